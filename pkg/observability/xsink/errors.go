package xsink

import "errors"

var (
	// ErrEmptyName sink 名称为空。
	ErrEmptyName = errors.New("xsink: empty sink name")

	// ErrEmptyPath 文件路径或基础目录为空。
	ErrEmptyPath = errors.New("xsink: empty path")

	// ErrInvalidIdleTimeout 空闲超时为负数。
	ErrInvalidIdleTimeout = errors.New("xsink: idle timeout must not be negative")

	// ErrInvalidURL HEC 地址无效。
	ErrInvalidURL = errors.New("xsink: invalid collector url")

	// ErrEmptyToken HEC token 为空。
	ErrEmptyToken = errors.New("xsink: empty collector token")

	// ErrCollectorStatus 采集端返回非 2xx 状态码。
	ErrCollectorStatus = errors.New("xsink: collector rejected event")
)
