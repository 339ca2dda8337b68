package xconf

import "errors"

var (
	// ErrEmptyPath 配置文件路径为空。
	ErrEmptyPath = errors.New("xconf: empty config path")

	// ErrUnsupportedFormat 无法识别的配置格式。
	ErrUnsupportedFormat = errors.New("xconf: unsupported config format")

	// ErrLoadFailed 读取配置文件失败。
	ErrLoadFailed = errors.New("xconf: failed to load config")

	// ErrParseFailed 配置内容解析失败。
	ErrParseFailed = errors.New("xconf: failed to parse config")

	// ErrUnmarshalFailed 反序列化到目标结构体失败。
	ErrUnmarshalFailed = errors.New("xconf: failed to unmarshal config")

	// ErrNilCallback Watch 未提供回调。
	ErrNilCallback = errors.New("xconf: nil watch callback")
)
