package xbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
	"github.com/omeyang/xlogkit/pkg/observability/xsampling"
	"github.com/omeyang/xlogkit/pkg/observability/xsink"
)

// Event 总线上传递的事件。
type Event = xlog.Event

// AnyLogger 匹配所有生产者的名称。
const AnyLogger = "*"

// Bus 事件路由总线，所有方法并发安全。
type Bus struct {
	now    func() time.Time
	logger *slog.Logger

	mu     sync.RWMutex
	routes []*route
	sinks  map[string]xsink.Drainer
	order  []string

	closed atomic.Bool
}

type route struct {
	logger   string
	sink     string
	minLevel atomic.Int64
	sampler  xsampling.Sampler
	deliver  func(ctx context.Context, ev Event)
}

// AttachOption 配置单条路由。
type AttachOption func(*route)

// WithSampler 在级别过滤之后对事件采样，nil 表示不采样。
func WithSampler(s xsampling.Sampler) AttachOption {
	return func(r *route) {
		r.sampler = s
	}
}

func (r *route) sampled(ev *Event) bool {
	return r.sampler == nil || r.sampler.ShouldSample(ev)
}

func (r *route) matches(ev *Event) bool {
	return (r.logger == AnyLogger || r.logger == ev.Logger) &&
		int64(ev.Level) >= r.minLevel.Load()
}

// Option 配置 Bus。
type Option func(*Bus)

// WithClock 设置事件时间来源，默认 time.Now。
func WithClock(now func() time.Time) Option {
	return func(b *Bus) {
		if now != nil {
			b.now = now
		}
	}
}

// WithLogger 设置诊断 logger，默认 slog.Default()。
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// New 创建总线。
func New(opts ...Option) *Bus {
	b := &Bus{
		now:    time.Now,
		logger: slog.Default(),
		sinks:  make(map[string]xsink.Drainer),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Attach 为生产者 loggerName 挂载 sink，级别不低于 minLevel 的事件经
// transform 转换后投递。同一个 sink 实例可以挂载多次；名称相同的不同实例
// 返回 [ErrDuplicateSink]。
func Attach[T any](b *Bus, loggerName string, minLevel xlog.Level, s xsink.Sink[T], transform func(Event) T, opts ...AttachOption) error {
	if s == nil {
		return ErrNilSink
	}
	if transform == nil {
		return ErrNilTransform
	}
	if loggerName == "" {
		loggerName = AnyLogger
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed.Load() {
		return ErrClosed
	}

	name := s.Name()
	if existing, ok := b.sinks[name]; ok && existing != xsink.Drainer(s) {
		return fmt.Errorf("%w: %q", ErrDuplicateSink, name)
	} else if !ok {
		b.sinks[name] = s
		b.order = append(b.order, name)
	}

	r := &route{
		logger: loggerName,
		sink:   name,
		deliver: func(ctx context.Context, ev Event) {
			s.Dispatch(ctx, transform(ev))
		},
	}
	r.minLevel.Store(int64(minLevel))
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	b.routes = append(b.routes, r)
	return nil
}

// Publish 把事件投递到所有匹配的路由。关闭后直接丢弃。
// Time 为零值时填充为当前时间。
func (b *Bus) Publish(ctx context.Context, ev Event) {
	if b.closed.Load() {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = b.now()
	}
	b.mu.RLock()
	routes := b.routes
	b.mu.RUnlock()

	for _, r := range routes {
		if r.matches(&ev) && r.sampled(&ev) {
			r.deliver(ctx, ev)
		}
	}
}

// Enabled 报告 loggerName 在 level 下是否有任何路由会接收事件。
func (b *Bus) Enabled(loggerName string, level xlog.Level) bool {
	if b.closed.Load() {
		return false
	}
	ev := Event{Logger: loggerName, Level: level}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, r := range b.routes {
		if r.matches(&ev) {
			return true
		}
	}
	return false
}

// SetLevel 调整挂载到 sinkName 的所有路由的最低级别，用于配置热更新。
func (b *Bus) SetLevel(sinkName string, level xlog.Level) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	found := false
	for _, r := range b.routes {
		if r.sink == sinkName {
			r.minLevel.Store(int64(level))
			found = true
		}
	}
	if !found {
		return fmt.Errorf("%w: %q", ErrUnknownSink, sinkName)
	}
	return nil
}

// Sinks 返回已挂载的 sink 名称，按首次挂载顺序。
func (b *Bus) Sinks() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.order...)
}

// Shutdown 停止投递并并发关闭所有 sink，返回第一个错误。
// 没有 sink 时立即返回 nil。重复调用会再次关闭各 sink，
// 各 sink 返回其首次关闭的结果。
func (b *Bus) Shutdown(ctx context.Context) error {
	b.closed.Store(true)

	b.mu.RLock()
	drainers := make([]xsink.Drainer, 0, len(b.order))
	for _, name := range b.order {
		drainers = append(drainers, b.sinks[name])
	}
	b.mu.RUnlock()

	var g errgroup.Group
	for _, d := range drainers {
		g.Go(func() error {
			if err := d.Shutdown(ctx); err != nil {
				b.logger.LogAttrs(ctx, slog.LevelWarn, "sink shutdown failed",
					xlog.Component("xbus"), xlog.Sink(d.Name()), xlog.Err(err))
				return fmt.Errorf("xbus: shutdown %s: %w", d.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}
