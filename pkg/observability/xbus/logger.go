package xbus

import (
	"context"
	"log/slog"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
)

// Logger 以固定生产者名称向总线发布事件。
type Logger struct {
	bus   *Bus
	name  string
	attrs []slog.Attr
}

// Logger 返回名为 name 的生产者。
func (b *Bus) Logger(name string) *Logger {
	return &Logger{bus: b, name: name}
}

// Name 返回生产者名称。
func (l *Logger) Name() string { return l.name }

// With 返回附带固定属性的派生 Logger。
func (l *Logger) With(attrs ...slog.Attr) *Logger {
	merged := make([]slog.Attr, 0, len(l.attrs)+len(attrs))
	merged = append(merged, l.attrs...)
	merged = append(merged, attrs...)
	return &Logger{bus: l.bus, name: l.name, attrs: merged}
}

// Log 发布一条指定级别的事件。
func (l *Logger) Log(ctx context.Context, level xlog.Level, msg string, attrs ...slog.Attr) {
	if !l.bus.Enabled(l.name, level) {
		return
	}
	all := attrs
	if len(l.attrs) > 0 {
		all = make([]slog.Attr, 0, len(l.attrs)+len(attrs))
		all = append(all, l.attrs...)
		all = append(all, attrs...)
	}
	l.bus.Publish(ctx, Event{Level: level, Logger: l.name, Message: msg, Attrs: all})
}

// Debug 发布 DEBUG 事件。
func (l *Logger) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.Log(ctx, xlog.LevelDebug, msg, attrs...)
}

// Info 发布 INFO 事件。
func (l *Logger) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.Log(ctx, xlog.LevelInfo, msg, attrs...)
}

// Warn 发布 WARN 事件。
func (l *Logger) Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.Log(ctx, xlog.LevelWarn, msg, attrs...)
}

// Error 发布 ERROR 事件。
func (l *Logger) Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.Log(ctx, xlog.LevelError, msg, attrs...)
}
