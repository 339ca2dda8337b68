package xmetrics

import (
	"context"
	"time"
)

// Status 表示观测结果状态。
type Status string

const (
	// StatusOK 表示成功。
	StatusOK Status = "ok"
	// StatusError 表示失败。
	StatusError Status = "error"
)

// StatusOf 将错误映射为状态。
func StatusOf(err error) Status {
	if err != nil {
		return StatusError
	}
	return StatusOK
}

// Recorder 日志 sink 子系统的观测接口。实现必须并发安全。
type Recorder interface {
	// RecordWrite 记录一次 sink 写入
	RecordWrite(ctx context.Context, sink string, bytes int, err error)

	// RecordRoll 记录一次文件轮转
	RecordRoll(ctx context.Context, sink, reason string, err error)

	// RecordEviction 记录写入池回收了一个空闲条目
	RecordEviction(ctx context.Context, pool string)

	// RecordDrain 记录一次 sink 关闭排空
	RecordDrain(ctx context.Context, sink string, d time.Duration, err error)

	// Start 开始一个观测跨度，返回的 Span 必须 End
	Start(ctx context.Context, component, operation string) (context.Context, Span)
}

// Span 观测跨度。
type Span interface {
	// End 结束跨度，重复调用只生效一次
	End(err error)
}

// NoopRecorder 空实现。
type NoopRecorder struct{}

var _ Recorder = NoopRecorder{}

// RecordWrite 实现 Recorder。
func (NoopRecorder) RecordWrite(context.Context, string, int, error) {}

// RecordRoll 实现 Recorder。
func (NoopRecorder) RecordRoll(context.Context, string, string, error) {}

// RecordEviction 实现 Recorder。
func (NoopRecorder) RecordEviction(context.Context, string) {}

// RecordDrain 实现 Recorder。
func (NoopRecorder) RecordDrain(context.Context, string, time.Duration, error) {}

// Start 实现 Recorder。
func (NoopRecorder) Start(ctx context.Context, _, _ string) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

// OrNoop 在 r 为 nil 时返回 NoopRecorder。
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
