package xlog

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// errorHandler 把 Handle 失败交给 onError。slog.Logger 会丢弃 Handler
// 返回的错误，诊断日志写不出去时这是唯一的通知渠道。
type errorHandler struct {
	slog.Handler
	onError func(error)
	// 多个派生 handler 共享，防止回调里再次记日志造成递归
	inCallback *atomic.Bool
}

func newErrorHandler(h slog.Handler, onError func(error)) slog.Handler {
	if onError == nil {
		return h
	}
	return &errorHandler{Handler: h, onError: onError, inCallback: new(atomic.Bool)}
}

func (h *errorHandler) Handle(ctx context.Context, r slog.Record) error {
	err := h.Handler.Handle(ctx, r)
	if err != nil && h.inCallback.CompareAndSwap(false, true) {
		func() {
			defer h.inCallback.Store(false)
			defer func() { recover() }() //nolint:errcheck // 回调 panic 不影响日志调用方
			h.onError(err)
		}()
	}
	return err
}

func (h *errorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &errorHandler{Handler: h.Handler.WithAttrs(attrs), onError: h.onError, inCallback: h.inCallback}
}

func (h *errorHandler) WithGroup(name string) slog.Handler {
	return &errorHandler{Handler: h.Handler.WithGroup(name), onError: h.onError, inCallback: h.inCallback}
}
