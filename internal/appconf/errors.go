package appconf

import "errors"

var (
	// ErrInvalidConfig 配置内容不合法，具体原因包装在错误链中。
	ErrInvalidConfig = errors.New("appconf: invalid config")

	// ErrInvalidSize 大小字段无法解析。
	ErrInvalidSize = errors.New("appconf: invalid size")

	// ErrNilBus Build 未提供总线。
	ErrNilBus = errors.New("appconf: nil bus")
)
