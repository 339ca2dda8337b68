package xbus

import "errors"

var (
	// ErrDuplicateSink 不同的 sink 实例使用了相同的名称。
	ErrDuplicateSink = errors.New("xbus: duplicate sink name")

	// ErrUnknownSink SetLevel 指定的 sink 未挂载。
	ErrUnknownSink = errors.New("xbus: unknown sink")

	// ErrNilSink Attach 的 sink 为 nil。
	ErrNilSink = errors.New("xbus: nil sink")

	// ErrNilTransform Attach 的转换函数为 nil。
	ErrNilTransform = errors.New("xbus: nil transform")

	// ErrClosed 总线已关闭。
	ErrClosed = errors.New("xbus: closed")
)
