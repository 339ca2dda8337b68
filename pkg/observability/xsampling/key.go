package xsampling

import (
	"math"
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
)

// KeySampler 按顶层属性值一致性采样：相同的值在相同比率下总是得到相同结论，
// 跨进程也一致。属性缺失时退化为随机采样。
type KeySampler struct {
	rate    float64
	key     string
	missing func()
}

// KeyOption 配置 KeySampler。
type KeyOption func(*KeySampler)

// WithOnMissing 属性缺失时回调，用于统计上下文传播断裂。nil 被忽略。
func WithOnMissing(fn func()) KeyOption {
	return func(s *KeySampler) {
		if fn != nil {
			s.missing = fn
		}
	}
}

// NewKeySampler 创建按属性 key 一致性采样的采样器。
func NewKeySampler(rate float64, key string, opts ...KeyOption) (*KeySampler, error) {
	if err := validateRate(rate); err != nil {
		return nil, err
	}
	if key == "" {
		return nil, ErrEmptyKey
	}
	s := &KeySampler{rate: rate, key: key}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// ShouldSample 实现 Sampler。
func (s *KeySampler) ShouldSample(ev *xlog.Event) bool {
	if s.rate <= 0 {
		return false
	}
	if s.rate >= 1 {
		return true
	}
	v := s.lookup(ev)
	if v == "" {
		if s.missing != nil {
			s.missing()
		}
		return rand.Float64() < s.rate
	}
	return hashFraction(v) < s.rate
}

func (s *KeySampler) lookup(ev *xlog.Event) string {
	for _, a := range ev.Attrs {
		if a.Key == s.key {
			return a.Value.Resolve().String()
		}
	}
	return ""
}

// Rate 返回采样比率。
func (s *KeySampler) Rate() float64 { return s.rate }

// hashFraction 把值映射到 [0, 1]。
func hashFraction(v string) float64 {
	return float64(xxhash.Sum64String(v)) / float64(math.MaxUint64)
}
