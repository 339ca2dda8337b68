package xmetrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultInstrumentationName = "github.com/omeyang/xlogkit/xmetrics"

	metricSinkWrites    = "xlogkit.sink.writes"
	metricSinkBytes     = "xlogkit.sink.bytes"
	metricRotateRolls   = "xlogkit.rotate.rolls"
	metricPoolEvictions = "xlogkit.pool.evictions"
	metricDrainDuration = "xlogkit.drain.duration"
)

type otelConfig struct {
	instrumentationName string
	tracerProvider      trace.TracerProvider
	meterProvider       metric.MeterProvider
}

// Option 定义 OTel Recorder 的配置选项。
type Option func(*otelConfig)

// WithInstrumentationName 设置 OTel instrumentation 名称。
func WithInstrumentationName(name string) Option {
	return func(cfg *otelConfig) {
		if name != "" {
			cfg.instrumentationName = name
		}
	}
}

// WithTracerProvider 设置 TracerProvider。
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(cfg *otelConfig) {
		if provider != nil {
			cfg.tracerProvider = provider
		}
	}
}

// WithMeterProvider 设置 MeterProvider。
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(cfg *otelConfig) {
		if provider != nil {
			cfg.meterProvider = provider
		}
	}
}

type otelRecorder struct {
	tracer    trace.Tracer
	writes    metric.Int64Counter
	bytes     metric.Int64Counter
	rolls     metric.Int64Counter
	evictions metric.Int64Counter
	drain     metric.Float64Histogram
}

// NewOTelRecorder 创建基于 OpenTelemetry 的 Recorder。
// 未指定 Provider 时使用 otel 全局 Provider。
func NewOTelRecorder(opts ...Option) (Recorder, error) {
	cfg := &otelConfig{
		instrumentationName: defaultInstrumentationName,
		tracerProvider:      otel.GetTracerProvider(),
		meterProvider:       otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	meter := cfg.meterProvider.Meter(cfg.instrumentationName)

	r := &otelRecorder{tracer: cfg.tracerProvider.Tracer(cfg.instrumentationName)}
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&r.writes, metricSinkWrites, "sink write operations", "1"},
		{&r.bytes, metricSinkBytes, "bytes written by sinks", "By"},
		{&r.rolls, metricRotateRolls, "file rotations", "1"},
		{&r.evictions, metricPoolEvictions, "idle writer pool evictions", "1"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrCreateCounter, c.name, err)
		}
		*c.dst = counter
	}

	drain, err := meter.Float64Histogram(metricDrainDuration,
		metric.WithDescription("sink drain duration on shutdown"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCreateHistogram, metricDrainDuration, err)
	}
	r.drain = drain
	return r, nil
}

func ctxOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func (r *otelRecorder) RecordWrite(ctx context.Context, sink string, n int, err error) {
	ctx = ctxOrBackground(ctx)
	r.writes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("sink", sink),
		attribute.String("status", string(StatusOf(err)))))
	if n > 0 {
		r.bytes.Add(ctx, int64(n), metric.WithAttributes(attribute.String("sink", sink)))
	}
}

func (r *otelRecorder) RecordRoll(ctx context.Context, sink, reason string, err error) {
	r.rolls.Add(ctxOrBackground(ctx), 1, metric.WithAttributes(
		attribute.String("sink", sink),
		attribute.String("reason", reason),
		attribute.String("status", string(StatusOf(err)))))
}

func (r *otelRecorder) RecordEviction(ctx context.Context, pool string) {
	r.evictions.Add(ctxOrBackground(ctx), 1, metric.WithAttributes(attribute.String("pool", pool)))
}

func (r *otelRecorder) RecordDrain(ctx context.Context, sink string, d time.Duration, err error) {
	r.drain.Record(ctxOrBackground(ctx), d.Seconds(), metric.WithAttributes(
		attribute.String("sink", sink),
		attribute.String("status", string(StatusOf(err)))))
}

func (r *otelRecorder) Start(ctx context.Context, component, operation string) (context.Context, Span) {
	ctx, span := r.tracer.Start(ctxOrBackground(ctx), operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("component", component),
			attribute.String("operation", operation)))
	return ctx, &otelSpan{span: span}
}

type otelSpan struct {
	span trace.Span
	once sync.Once
}

// End 幂等，避免 defer 与显式调用重复结束。
func (s *otelSpan) End(err error) {
	s.once.Do(func() {
		if err != nil {
			s.span.RecordError(err)
			s.span.SetStatus(codes.Error, err.Error())
		} else {
			s.span.SetStatus(codes.Ok, "")
		}
		s.span.End()
	})
}
