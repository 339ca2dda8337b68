package xrotate

import (
	"fmt"
	"io"
)

var _ io.WriteCloser = (Engine)(nil)

// Engine 日志轮转引擎。
//
// 实现约定：
//   - 所有方法并发安全，同一引擎上的写入全序
//   - Close 后 Write/Roll/Reopen 返回 [ErrClosed]，重复 Close 同样返回 [ErrClosed]
//   - 运行期 I/O 失败后引擎仍可继续使用
type Engine interface {
	// Write 写入数据，满足轮转条件时先完成轮转再写入
	Write(p []byte) (n int, err error)

	// Roll 立即执行一次轮转
	Roll() error

	// Reopen 关闭并重新打开主文件，不轮转（用于外部工具移走文件后的 SIGHUP）
	Reopen() error

	// Filename 返回当前主文件的绝对路径
	Filename() string

	Close() error
}

// reportError 调用 OnError 回调，回调 panic 被隔离。
func reportError(fn func(error), err error) {
	if err == nil || fn == nil {
		return
	}
	defer func() { recover() }() //nolint:errcheck // recover 返回值无需检查
	fn(err)
}

// Kind 引擎类型
type Kind string

// 引擎类型取值
const (
	KindSync       Kind = "sync"
	KindAsync      Kind = "async"
	KindLumberjack Kind = "lumberjack"
)

// Open 按类型创建引擎。kind 为空时使用 [KindSync]。
func Open(kind Kind, path string, opts ...Option) (Engine, error) {
	switch kind {
	case "", KindSync:
		return NewFile(path, opts...)
	case KindAsync:
		return NewAsyncFile(path, opts...)
	case KindLumberjack:
		return NewLumberjack(path, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
