package xsink

import (
	"context"
	"io"
	"sync"
)

// Console 每条载荷写一行到 io.Writer。
type Console struct {
	base
	mu sync.Mutex
	w  io.Writer
}

var _ Sink[string] = (*Console)(nil)

// NewConsole 创建控制台 sink，默认写 stdout。
func NewConsole(name string, opts ...Option) (*Console, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	o := buildOptions(opts)
	return &Console{base: newBase(name, "xsink.console", &o), w: o.writer}, nil
}

// Dispatch 写入一行。
func (c *Console) Dispatch(ctx context.Context, line string) {
	op, err := c.tracker.Begin()
	if err != nil {
		return
	}
	c.mu.Lock()
	n, err := io.WriteString(c.w, line+"\n")
	c.mu.Unlock()
	op.Done(err)

	c.rec.RecordWrite(ctx, c.name, n, err)
	if err != nil {
		c.report(ctx, "console write failed", err)
	}
}

// Shutdown 排空后返回，不关闭底层 writer。
func (c *Console) Shutdown(ctx context.Context) error {
	return c.drain(ctx, func(first error) error { return nil })
}
