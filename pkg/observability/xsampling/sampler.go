package xsampling

import (
	"math"
	"math/rand/v2"
	"sync/atomic"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
)

// Sampler 决定事件是否保留。实现必须可并发调用。
type Sampler interface {
	ShouldSample(ev *xlog.Event) bool
}

// Func 将函数适配为 Sampler。
type Func func(ev *xlog.Event) bool

// ShouldSample 实现 Sampler。
func (f Func) ShouldSample(ev *xlog.Event) bool { return f(ev) }

var (
	always Sampler = Func(func(*xlog.Event) bool { return true })
	never  Sampler = Func(func(*xlog.Event) bool { return false })
)

// Always 保留所有事件。
func Always() Sampler { return always }

// Never 丢弃所有事件。
func Never() Sampler { return never }

func validateRate(rate float64) error {
	if math.IsNaN(rate) || rate < 0 || rate > 1 {
		return ErrInvalidRate
	}
	return nil
}

// RateSampler 按固定比率随机采样。
type RateSampler struct {
	rate float64
}

// NewRateSampler 创建比率采样器，rate 取 [0, 1]。
func NewRateSampler(rate float64) (*RateSampler, error) {
	if err := validateRate(rate); err != nil {
		return nil, err
	}
	return &RateSampler{rate: rate}, nil
}

// ShouldSample 实现 Sampler。
func (s *RateSampler) ShouldSample(*xlog.Event) bool {
	switch {
	case s.rate <= 0:
		return false
	case s.rate >= 1:
		return true
	default:
		return rand.Float64() < s.rate
	}
}

// Rate 返回采样比率。
func (s *RateSampler) Rate() float64 { return s.rate }

// CountSampler 每 n 个事件保留 1 个，保留第 1、n+1、2n+1... 个。
type CountSampler struct {
	n       uint64
	counter atomic.Uint64
}

// NewCountSampler 创建计数采样器。
func NewCountSampler(n int) (*CountSampler, error) {
	if n < 1 {
		return nil, ErrInvalidCount
	}
	return &CountSampler{n: uint64(n)}, nil
}

// ShouldSample 实现 Sampler。
func (s *CountSampler) ShouldSample(*xlog.Event) bool {
	// 无符号回绕后取模仍保持周期
	return (s.counter.Add(1)-1)%s.n == 0
}

// Reset 计数归零。
func (s *CountSampler) Reset() { s.counter.Store(0) }

// N 返回采样间隔。
func (s *CountSampler) N() int { return int(s.n) }

// KeepLevel 返回的采样器总是保留级别不低于 level 的事件，其余交给 inner。
func KeepLevel(level xlog.Level, inner Sampler) (Sampler, error) {
	if inner == nil {
		return nil, ErrNilSampler
	}
	return Func(func(ev *xlog.Event) bool {
		return ev.Level.Enabled(level) || inner.ShouldSample(ev)
	}), nil
}
