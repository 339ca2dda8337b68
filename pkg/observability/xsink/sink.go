package xsink

import (
	"context"
	"log/slog"
	"time"

	"github.com/omeyang/xlogkit/pkg/observability/xdrain"
	"github.com/omeyang/xlogkit/pkg/observability/xlog"
	"github.com/omeyang/xlogkit/pkg/observability/xmetrics"
)

// Drainer 可按排空协议关闭的组件。
type Drainer interface {
	Name() string

	// Shutdown 拒绝新投递，等待在途操作（有上限）后释放资源。
	// 重复调用返回首次的结果。
	Shutdown(ctx context.Context) error
}

// Sink 接收类型为 T 的载荷。Dispatch 不返回错误，失败进入诊断日志。
type Sink[T any] interface {
	Drainer

	Dispatch(ctx context.Context, payload T)
}

// base 各 sink 共享的排空与诊断逻辑。
type base struct {
	name      string
	component string
	tracker   *xdrain.Tracker
	logger    *slog.Logger
	rec       xmetrics.Recorder
}

func newBase(name, component string, o *options) base {
	return base{
		name:      name,
		component: component,
		tracker:   xdrain.New(o.drainOptions(name)...),
		logger:    o.logger,
		rec:       o.recorder,
	}
}

// Name 返回 sink 名称。
func (b *base) Name() string { return b.name }

// report 记录写入路径上的错误。
func (b *base) report(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	all := make([]slog.Attr, 0, len(attrs)+3)
	all = append(all, xlog.Component(b.component), xlog.Sink(b.name), xlog.Err(err))
	all = append(all, attrs...)
	b.logger.LogAttrs(ctx, slog.LevelError, msg, all...)
}

// drain 执行排空协议并记录耗时。
func (b *base) drain(ctx context.Context, teardown func(firstErr error) error) error {
	start := time.Now()
	err := b.tracker.Shutdown(ctx, teardown)
	b.rec.RecordDrain(ctx, b.name, time.Since(start), err)
	return err
}
