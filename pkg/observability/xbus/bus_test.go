package xbus

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
	"github.com/omeyang/xlogkit/pkg/observability/xsampling"
	"github.com/omeyang/xlogkit/pkg/observability/xsink"
)

// recordingSink 记录收到的载荷
type recordingSink[T any] struct {
	name     string
	mu       sync.Mutex
	got      []T
	shutErr  error
	shutdown int
}

func newRecording[T any](name string) *recordingSink[T] {
	return &recordingSink[T]{name: name}
}

func (s *recordingSink[T]) Name() string { return s.name }

func (s *recordingSink[T]) Dispatch(_ context.Context, v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, v)
}

func (s *recordingSink[T]) Shutdown(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdown++
	return s.shutErr
}

func (s *recordingSink[T]) payloads() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]T(nil), s.got...)
}

func message(ev Event) string { return ev.Message }

var fixedTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newBus() *Bus {
	return New(WithClock(func() time.Time { return fixedTime }), nil)
}

func TestAttach_Routing(t *testing.T) {
	bus := newBus()
	all := newRecording[string]("all")
	billing := newRecording[Event]("billing")
	require.NoError(t, Attach(bus, "", xlog.LevelInfo, xsink.Sink[string](all), message))
	require.NoError(t, Attach(bus, "billing", xlog.LevelWarn, xsink.Sink[Event](billing), func(ev Event) Event { return ev }))

	ctx := context.Background()
	tests := []struct {
		name   string
		ev     Event
		toAll  bool
		toBill bool
	}{
		{"低于全部阈值", Event{Logger: "app", Level: xlog.LevelDebug, Message: "d"}, false, false},
		{"通配路由", Event{Logger: "app", Level: xlog.LevelInfo, Message: "i"}, true, false},
		{"命名路由级别不足", Event{Logger: "billing", Level: xlog.LevelInfo, Message: "bi"}, true, false},
		{"两条路由都匹配", Event{Logger: "billing", Level: xlog.LevelError, Message: "be"}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			beforeAll, beforeBill := len(all.payloads()), len(billing.payloads())
			bus.Publish(ctx, tt.ev)
			assert.Equal(t, tt.toAll, len(all.payloads()) > beforeAll)
			assert.Equal(t, tt.toBill, len(billing.payloads()) > beforeBill)
		})
	}

	got := billing.payloads()
	require.Len(t, got, 1)
	assert.Equal(t, fixedTime, got[0].Time)
	assert.Equal(t, []string{"all", "billing"}, bus.Sinks())
}

func TestAttach_Errors(t *testing.T) {
	bus := newBus()
	s := newRecording[string]("file")

	assert.ErrorIs(t, Attach[string](bus, "*", xlog.LevelInfo, nil, message), ErrNilSink)
	assert.ErrorIs(t, Attach(bus, "*", xlog.LevelInfo, xsink.Sink[string](s), nil), ErrNilTransform)

	require.NoError(t, Attach(bus, "a", xlog.LevelInfo, xsink.Sink[string](s), message))
	// 同一实例挂到另一个生产者
	require.NoError(t, Attach(bus, "b", xlog.LevelInfo, xsink.Sink[string](s), message))

	other := newRecording[string]("file")
	err := Attach(bus, "c", xlog.LevelInfo, xsink.Sink[string](other), message)
	assert.ErrorIs(t, err, ErrDuplicateSink)

	require.NoError(t, bus.Shutdown(context.Background()))
	assert.ErrorIs(t, Attach(bus, "d", xlog.LevelInfo, xsink.Sink[string](newRecording[string]("new")), message), ErrClosed)
	assert.Equal(t, 1, s.shutdown)
}

func TestSetLevel(t *testing.T) {
	bus := newBus()
	s := newRecording[string]("file")
	require.NoError(t, Attach(bus, "*", xlog.LevelError, xsink.Sink[string](s), message))

	log := bus.Logger("app")
	log.Info(context.Background(), "dropped")
	require.NoError(t, bus.SetLevel("file", xlog.LevelDebug))
	log.Debug(context.Background(), "kept")

	assert.Equal(t, []string{"kept"}, s.payloads())
	assert.ErrorIs(t, bus.SetLevel("missing", xlog.LevelInfo), ErrUnknownSink)
}

func TestShutdown(t *testing.T) {
	t.Run("无sink", func(t *testing.T) {
		assert.NoError(t, newBus().Shutdown(context.Background()))
	})

	t.Run("返回首个错误并停止投递", func(t *testing.T) {
		bus := newBus()
		ok := newRecording[string]("ok")
		bad := newRecording[string]("bad")
		bad.shutErr = errors.New("disk full")
		require.NoError(t, Attach(bus, "*", xlog.LevelDebug, xsink.Sink[string](ok), message))
		require.NoError(t, Attach(bus, "*", xlog.LevelDebug, xsink.Sink[string](bad), message))

		err := bus.Shutdown(context.Background())
		assert.ErrorIs(t, err, bad.shutErr)
		assert.Contains(t, err.Error(), "shutdown bad")
		assert.Equal(t, 1, ok.shutdown)

		bus.Publish(context.Background(), Event{Logger: "x", Level: xlog.LevelError, Message: "late"})
		assert.Empty(t, ok.payloads())
		assert.False(t, bus.Enabled("x", xlog.LevelError))
	})
}

func TestLogger_With(t *testing.T) {
	bus := newBus()
	s := newRecording[Event]("events")
	require.NoError(t, Attach(bus, "api", xlog.LevelDebug, xsink.Sink[Event](s), func(ev Event) Event { return ev }))

	log := bus.Logger("api").With(slog.String("req", "r1"))
	assert.Equal(t, "api", log.Name())
	log.Warn(context.Background(), "slow", slog.Int("ms", 900))
	log.Error(context.Background(), "failed")
	bus.Logger("other").Error(context.Background(), "unrouted")

	got := s.payloads()
	require.Len(t, got, 2)
	assert.Equal(t, xlog.LevelWarn, got[0].Level)
	assert.Equal(t, map[string]any{"req": "r1", "ms": int64(900)}, got[0].AttrMap())
	assert.Equal(t, map[string]any{"req": "r1"}, got[1].AttrMap())
}

func TestHandler_Slog(t *testing.T) {
	bus := newBus()
	s := newRecording[Event]("events")
	require.NoError(t, Attach(bus, "svc", xlog.LevelInfo, xsink.Sink[Event](s), func(ev Event) Event { return ev }))

	logger := slog.New(bus.Handler("svc"))
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
	logger.Debug("hidden")

	logger.With("tenant", "acme").WithGroup("req").With("id", 7).WithGroup("").Info("served", "status", 200)

	got := s.payloads()
	require.Len(t, got, 1)
	assert.Equal(t, "svc", got[0].Logger)
	assert.Equal(t, "served", got[0].Message)
	assert.False(t, got[0].Time.IsZero())
	assert.Equal(t, map[string]any{
		"tenant": "acme",
		"req":    map[string]any{"id": int64(7), "status": int64(200)},
	}, got[0].AttrMap())
}

func TestAttach_WithSampler(t *testing.T) {
	bus := newBus()
	sampled := newRecording[string]("sampled")
	full := newRecording[string]("full")
	every2, err := xsampling.NewCountSampler(2)
	require.NoError(t, err)
	keep, err := xsampling.KeepLevel(xlog.LevelError, every2)
	require.NoError(t, err)
	require.NoError(t, Attach(bus, "", xlog.LevelDebug, xsink.Sink[string](sampled), message, WithSampler(keep)))
	require.NoError(t, Attach(bus, "", xlog.LevelDebug, xsink.Sink[string](full), message, WithSampler(nil)))

	l := bus.Logger("app")
	ctx := context.Background()
	for _, msg := range []string{"a", "b", "c", "d"} {
		l.Info(ctx, msg)
	}
	l.Error(ctx, "boom")

	assert.Equal(t, []string{"a", "c", "boom"}, sampled.payloads())
	assert.Equal(t, []string{"a", "b", "c", "d", "boom"}, full.payloads())
	assert.True(t, bus.Enabled("app", xlog.LevelDebug), "Enabled 不受采样影响")
}
