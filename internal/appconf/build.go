package appconf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/valyala/fasthttp"

	"github.com/omeyang/xlogkit/pkg/lifecycle/xrun"
	"github.com/omeyang/xlogkit/pkg/observability/xbus"
	"github.com/omeyang/xlogkit/pkg/observability/xlog"
	"github.com/omeyang/xlogkit/pkg/observability/xmetrics"
	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
	"github.com/omeyang/xlogkit/pkg/observability/xsink"
)

// Deps Build 需要的运行期依赖，零值字段使用各 sink 的默认值。
type Deps struct {
	Logger     *slog.Logger
	Recorder   xmetrics.Recorder
	Reloader   *xrun.Reloader
	Console    io.Writer
	HTTPClient *fasthttp.Client
}

// Builder 返回按诊断配置准备好的 xlog.Builder。
func (d Diagnostics) Builder() *xlog.Builder {
	b := xlog.New().SetLevelString(d.Level).SetFormat(d.Format)
	if d.File != "" {
		b.SetRotation(d.File, d.Rotation.Options()...)
	}
	return b
}

// Build 按配置创建所有 sink 并挂载到 bus。
// 返回错误时，已挂载的 sink 归 bus 所有，由调用方通过 bus.Shutdown 关闭。
func Build(cfg Config, bus *xbus.Bus, deps Deps) error {
	if bus == nil {
		return ErrNilBus
	}
	for _, s := range cfg.Sinks {
		if err := attach(s, bus, deps); err != nil {
			return fmt.Errorf("appconf: sink %q: %w", s.Name, err)
		}
	}
	return nil
}

// ApplyLevels 把 cfg 中各 sink 的级别应用到已挂载的路由，用于配置热更新。
// 新增或改名的 sink 需要重启进程才能生效，对应错误被合并返回。
func ApplyLevels(cfg Config, bus *xbus.Bus) error {
	var errs []error
	for _, s := range cfg.Sinks {
		level, err := xlog.ParseLevel(s.Level)
		if err == nil {
			err = bus.SetLevel(s.Name, level)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("sink %q: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (s Sink) options(deps Deps) []xsink.Option {
	opts := []xsink.Option{
		xsink.WithLogger(deps.Logger),
		xsink.WithRecorder(deps.Recorder),
		xsink.WithDrainTimeout(s.DrainTimeout),
	}
	switch s.Kind {
	case KindConsole:
		opts = append(opts, xsink.WithWriter(deps.Console))
	case KindFile, KindMultiFile:
		opts = append(opts,
			xsink.WithEngine(xrotate.Kind(s.Engine)),
			xsink.WithRotate(s.Rotation.Options()...),
			xsink.WithIdleTimeout(s.IdleTimeout),
		)
		if s.RemoveColor != nil {
			opts = append(opts, xsink.WithRemoveColor(*s.RemoveColor))
		}
		if s.EOL != "" {
			opts = append(opts, xsink.WithEOL(s.EOL))
		}
		if deps.Reloader != nil {
			opts = append(opts, xsink.WithReloader(deps.Reloader))
		}
	case KindHEC:
		opts = append(opts, xsink.WithHTTPClient(deps.HTTPClient), xsink.WithHECTimeout(s.Timeout))
	}
	return opts
}

func (s Sink) layout() func(xlog.Event) string {
	if s.Layout == LayoutJSON {
		return xsink.JSONLine
	}
	return xsink.TextLine
}

func attach(s Sink, bus *xbus.Bus, deps Deps) error {
	level, err := xlog.ParseLevel(s.Level)
	if err != nil {
		return err
	}
	opts := s.options(deps)
	sampler, err := s.Sample.Sampler()
	if err != nil {
		return err
	}
	route := []xbus.AttachOption{xbus.WithSampler(sampler)}

	var (
		sink      xsink.Drainer
		attachErr error
	)
	switch s.Kind {
	case KindConsole:
		c, err := xsink.NewConsole(s.Name, opts...)
		if err != nil {
			return err
		}
		sink, attachErr = c, xbus.Attach(bus, s.Logger, level, c, s.layout(), route...)
	case KindFile:
		f, err := xsink.NewFile(s.Name, s.Path, opts...)
		if err != nil {
			return err
		}
		sink, attachErr = f, xbus.Attach(bus, s.Logger, level, f, s.layout(), route...)
	case KindMultiFile:
		m, err := xsink.NewMultiFile(s.Name, s.BaseDir, opts...)
		if err != nil {
			return err
		}
		sink, attachErr = m, xbus.Attach(bus, s.Logger, level, m,
			xsink.EntryTransform(s.KeyAttr, s.Fallback, s.layout()), route...)
	case KindHEC:
		h, err := xsink.NewHEC(s.Name, os.ExpandEnv(s.URL), os.ExpandEnv(s.Token), opts...)
		if err != nil {
			return err
		}
		host := s.Host
		if host == "" {
			host, _ = os.Hostname() //nolint:errcheck // 取不到主机名时留空
		}
		sink, attachErr = h, xbus.Attach(bus, s.Logger, level, h, xsink.HECTransform(host, s.Index), route...)
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidConfig, s.Kind)
	}

	if attachErr != nil {
		// 未挂载成功的 sink 不归 bus 管理，在这里关闭
		return errors.Join(attachErr, sink.Shutdown(context.Background()))
	}
	return nil
}
