package xbus

import (
	"context"
	"log/slog"
	"slices"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
)

// Handler 返回把 slog 记录发布为名为 name 的生产者事件的 slog.Handler。
func (b *Bus) Handler(name string) slog.Handler {
	return &handler{bus: b, name: name}
}

// handler 的 attrs 是已按分组嵌套好的预置属性；groups 是之后的
// 记录属性需要嵌套进去的分组路径。
type handler struct {
	bus    *Bus
	name   string
	attrs  []slog.Attr
	groups []string
}

var _ slog.Handler = (*handler)(nil)

func (h *handler) Enabled(_ context.Context, level slog.Level) bool {
	return h.bus.Enabled(h.name, xlog.Level(level))
}

func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	recAttrs := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		recAttrs = append(recAttrs, a)
		return true
	})
	attrs := slices.Clip(h.attrs)
	attrs = append(attrs, nest(h.groups, recAttrs)...)

	h.bus.Publish(ctx, Event{
		Time:    r.Time,
		Level:   xlog.Level(r.Level),
		Logger:  h.name,
		Message: r.Message,
		Attrs:   attrs,
	})
	return nil
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := *h
	h2.attrs = append(slices.Clip(h.attrs), nest(h.groups, attrs)...)
	return &h2
}

func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.groups = append(slices.Clip(h.groups), name)
	return &h2
}

// nest 把 attrs 依次包进 groups 描述的分组。
func nest(groups []string, attrs []slog.Attr) []slog.Attr {
	if len(attrs) == 0 {
		return nil
	}
	for i := len(groups) - 1; i >= 0; i-- {
		attrs = []slog.Attr{{Key: groups[i], Value: slog.GroupValue(attrs...)}}
	}
	return attrs
}
