package xsampling

import "errors"

var (
	// ErrInvalidRate 采样比率不在 [0, 1] 内或为 NaN。
	ErrInvalidRate = errors.New("xsampling: rate must be in [0.0, 1.0]")

	// ErrInvalidCount 计数间隔小于 1。
	ErrInvalidCount = errors.New("xsampling: count n must be >= 1")

	// ErrEmptyKey KeySampler 未指定属性名。
	ErrEmptyKey = errors.New("xsampling: attribute key must not be empty")

	// ErrNilSampler 组合时传入了 nil。
	ErrNilSampler = errors.New("xsampling: sampler must not be nil")
)
