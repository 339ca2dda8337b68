package xsink

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/omeyang/xlogkit/pkg/lifecycle/xrun"
	"github.com/omeyang/xlogkit/pkg/observability/xdrain"
	"github.com/omeyang/xlogkit/pkg/observability/xmetrics"
	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
)

const (
	// DefaultMaxSize 文件 sink 未配置轮转时的单文件上限
	DefaultMaxSize = 1 << 20

	// DefaultBackups 文件 sink 未配置轮转时保留的备份数
	DefaultBackups = 5

	// DefaultHECTimeout HEC 单次请求超时
	DefaultHECTimeout = 15 * time.Second

	// hecPath 采集端事件接口路径
	hecPath = "/services/collector/event"
)

// Option 配置 sink。各 sink 只读取与自己相关的字段，其余忽略。
type Option func(*options)

type options struct {
	logger       *slog.Logger
	recorder     xmetrics.Recorder
	drainTimeout time.Duration
	pollInterval time.Duration

	// Console
	writer io.Writer

	// File / MultiFile
	engine      xrotate.Kind
	rotate      []xrotate.Option
	removeColor bool
	eol         string
	reloader    *xrun.Reloader
	idleTimeout time.Duration

	// HEC
	client     *fasthttp.Client
	hecTimeout time.Duration
}

func defaultOptions() options {
	return options{
		logger:      slog.Default(),
		recorder:    xmetrics.NoopRecorder{},
		writer:      os.Stdout,
		engine:      xrotate.KindSync,
		removeColor: true,
		eol:         "\n",
		hecTimeout:  DefaultHECTimeout,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// drainOptions 转换为 xdrain 的配置。
func (o *options) drainOptions(name string) []xdrain.Option {
	return []xdrain.Option{
		xdrain.WithName(name),
		xdrain.WithLogger(o.logger),
		xdrain.WithTimeout(o.drainTimeout),
		xdrain.WithPollInterval(o.pollInterval),
	}
}

// WithLogger 设置诊断 logger，默认 slog.Default()。
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRecorder 设置指标记录器，默认不记录。
func WithRecorder(r xmetrics.Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithDrainTimeout 设置排空上限，默认 xdrain.DefaultTimeout。
func WithDrainTimeout(d time.Duration) Option {
	return func(o *options) {
		o.drainTimeout = d
	}
}

// WithPollInterval 设置排空轮询间隔，默认 xdrain.DefaultPollInterval。
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		o.pollInterval = d
	}
}

// WithWriter 设置 Console 的输出目标。
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.writer = w
		}
	}
}

// WithEngine 设置文件 sink 的轮转引擎类型，默认 sync。
func WithEngine(kind xrotate.Kind) Option {
	return func(o *options) {
		o.engine = kind
	}
}

// WithAsync 为 true 时使用 async 引擎，等价于 WithEngine(xrotate.KindAsync)。
func WithAsync(async bool) Option {
	return func(o *options) {
		if async {
			o.engine = xrotate.KindAsync
		} else if o.engine == xrotate.KindAsync {
			o.engine = xrotate.KindSync
		}
	}
}

// WithRotate 设置轮转引擎选项。
// 未调用时使用 DefaultMaxSize 与 DefaultBackups；调用后完全由传入的选项决定。
func WithRotate(opts ...xrotate.Option) Option {
	copied := append([]xrotate.Option(nil), opts...)
	return func(o *options) {
		o.rotate = copied
	}
}

// WithRemoveColor 是否去除 ANSI 颜色转义序列，默认 true。
func WithRemoveColor(v bool) Option {
	return func(o *options) {
		o.removeColor = v
	}
}

// WithEOL 设置行尾，默认 "\n"。
func WithEOL(eol string) Option {
	return func(o *options) {
		o.eol = eol
	}
}

// WithReloader 注册到 Reloader，收到 SIGHUP 时重新打开文件。
func WithReloader(r *xrun.Reloader) Option {
	return func(o *options) {
		o.reloader = r
	}
}

// WithIdleTimeout 设置 MultiFile 条目的空闲回收时间，0 表示不回收。
func WithIdleTimeout(d time.Duration) Option {
	return func(o *options) {
		o.idleTimeout = d
	}
}

// WithHTTPClient 设置 HEC 使用的 fasthttp 客户端。
func WithHTTPClient(c *fasthttp.Client) Option {
	return func(o *options) {
		if c != nil {
			o.client = c
		}
	}
}

// WithHECTimeout 设置 HEC 请求超时，非正值被忽略。
func WithHECTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.hecTimeout = d
		}
	}
}
