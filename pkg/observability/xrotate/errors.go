package xrotate

import "errors"

// 配置校验错误，构造时返回。
var (
	// ErrEmptyFilename 文件名为空
	ErrEmptyFilename = errors.New("xrotate: filename is required")

	// ErrInvalidMaxSize MaxSize 为负数
	ErrInvalidMaxSize = errors.New("xrotate: invalid MaxSize")

	// ErrInvalidBackups Backups 小于 UnlimitedBackups
	ErrInvalidBackups = errors.New("xrotate: invalid Backups")

	// ErrInvalidMaxAge MaxAgeDays 值无效（仅 lumberjack 引擎使用）
	ErrInvalidMaxAge = errors.New("xrotate: invalid MaxAgeDays")

	// ErrInvalidDatePattern 日期模式不是有效的时间布局
	ErrInvalidDatePattern = errors.New("xrotate: invalid date pattern")

	// ErrConflictingPolicy 同时配置了按大小和按日期轮转
	ErrConflictingPolicy = errors.New("xrotate: size and date rotation are mutually exclusive")

	// ErrInvalidSeparator 文件名分隔符为空或包含路径分隔符
	ErrInvalidSeparator = errors.New("xrotate: invalid separator")

	// ErrInvalidFileMode FileMode 包含非权限位（仅允许 0000~0777）
	ErrInvalidFileMode = errors.New("xrotate: invalid FileMode")

	// ErrUnsupportedEncoding 不支持的文本编码
	ErrUnsupportedEncoding = errors.New("xrotate: unsupported encoding")

	// ErrInvalidQueueSize 异步引擎队列大小无效
	ErrInvalidQueueSize = errors.New("xrotate: invalid queue size")

	// ErrUnknownKind 未知的引擎类型
	ErrUnknownKind = errors.New("xrotate: unknown engine kind")
)

// ErrClosed 引擎已关闭
var ErrClosed = errors.New("xrotate: engine is closed")
