package appconf

import (
	"errors"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
	"github.com/omeyang/xlogkit/pkg/observability/xsampling"
)

// Sampling 单个 sink 的采样配置。rate 与 every 互斥；
// 设置 key_attr 时 rate 按该属性一致性采样；keep_level 及以上的事件总是保留。
type Sampling struct {
	Rate      *float64 `koanf:"rate"`
	Every     int      `koanf:"every"`
	KeyAttr   string   `koanf:"key_attr"`
	KeepLevel string   `koanf:"keep_level"`
}

// Sampler 构造采样器，未配置采样时返回 nil。
func (s Sampling) Sampler() (xsampling.Sampler, error) {
	var (
		inner xsampling.Sampler
		err   error
	)
	switch {
	case s.Every < 0:
		return nil, xsampling.ErrInvalidCount
	case s.Rate != nil && s.Every > 0:
		return nil, errors.New("sample.rate and sample.every are mutually exclusive")
	case s.Every > 0:
		inner, err = xsampling.NewCountSampler(s.Every)
	case s.Rate != nil && s.KeyAttr != "":
		inner, err = xsampling.NewKeySampler(*s.Rate, s.KeyAttr)
	case s.Rate != nil:
		inner, err = xsampling.NewRateSampler(*s.Rate)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if s.KeepLevel == "" {
		return inner, nil
	}
	level, err := xlog.ParseLevel(s.KeepLevel)
	if err != nil {
		return nil, err
	}
	return xsampling.KeepLevel(level, inner)
}
