package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xlogkit/internal/appconf"
	"github.com/omeyang/xlogkit/pkg/config/xconf"
	"github.com/omeyang/xlogkit/pkg/lifecycle/xrun"
	"github.com/omeyang/xlogkit/pkg/observability/xbus"
	"github.com/omeyang/xlogkit/pkg/observability/xlog"
	"github.com/omeyang/xlogkit/pkg/observability/xmetrics"
	"github.com/omeyang/xlogkit/pkg/util/xsys"
)

// errInputClosed 标准输入读完，视为正常退出。
var errInputClosed = errors.New("input closed")

func createRunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "按配置运行，逐行发布标准输入",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "配置文件路径（.yaml/.yml/.json）",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "logger",
				Aliases: []string{"l"},
				Usage:   "输入行使用的生产者名称",
				Value:   "stdin",
			},
			&cli.StringFlag{
				Name:  "level",
				Usage: "输入行的级别",
				Value: "info",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			level, err := xlog.ParseLevel(cmd.String("level"))
			if err != nil {
				return usagef("%v", err)
			}
			return runDaemon(ctx, daemonConfig{
				path:   cmd.String("config"),
				logger: cmd.String("logger"),
				level:  level,
				input:  cmd.Root().Reader,
				output: cmd.Root().Writer,
			})
		},
	}
}

type daemonConfig struct {
	path   string
	logger string
	level  xlog.Level
	input  io.Reader
	output io.Writer
	// groupOpts 测试注入，用于关闭真实信号监听
	groupOpts []xrun.Option
}

func runDaemon(ctx context.Context, dc daemonConfig) (err error) {
	file, err := xconf.Load(dc.path)
	if err != nil {
		return err
	}
	cfg, err := appconf.Decode(file)
	if err != nil {
		return err
	}

	diag := cfg.Diagnostics.Builder()
	logger, cleanup, err := diag.Build()
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, cleanup()) }()

	ensureFileLimit(logger, cfg.Process.MaxOpenFiles)

	rec, err := xmetrics.NewOTelRecorder()
	if err != nil {
		return err
	}
	bus := xbus.New(xbus.WithLogger(logger))
	reloader := xrun.NewReloader(logger)
	// 无论后续成败，退出前都排空已挂载的 sink
	defer func() {
		if shutdownErr := bus.Shutdown(context.Background()); shutdownErr != nil {
			err = errors.Join(err, shutdownErr)
		}
	}()

	if err := appconf.Build(cfg, bus, appconf.Deps{
		Logger:   logger,
		Recorder: rec,
		Reloader: reloader,
		Console:  dc.output,
	}); err != nil {
		return err
	}

	watcher, err := xconf.Watch(file, func(f *xconf.File, changed bool, err error) {
		applyReload(logger, diag.LevelVar(), bus, f, changed, err)
	})
	if err != nil {
		return err
	}

	logger.Info("xlogd started",
		slog.String("config", dc.path),
		slog.Any("sinks", bus.Sinks()),
	)
	opts := append([]xrun.Option{
		xrun.WithLogger(logger),
		xrun.WithName("xlogd"),
		xrun.WithReloader(reloader),
	}, dc.groupOpts...)
	runErr := xrun.RunServicesWithOptions(ctx, opts,
		watcher,
		xrun.ServiceFunc(func(ctx context.Context) error {
			return pump(ctx, dc.input, bus.Logger(dc.logger), dc.level)
		}),
	)

	var sigErr *xrun.SignalError
	switch {
	case runErr == nil, errors.Is(runErr, errInputClosed), errors.As(runErr, &sigErr):
		logger.Info("xlogd stopping", slog.Any("cause", runErr))
		return nil
	default:
		return runErr
	}
}

// ensureFileLimit 为写入池预留文件描述符，失败只记录告警。
func ensureFileLimit(logger *slog.Logger, want uint64) {
	if want == 0 {
		return
	}
	soft, err := xsys.EnsureFileLimit(want)
	switch {
	case err != nil:
		logger.Warn("raise open file limit failed", xlog.Err(err))
	case soft < want:
		logger.Warn("open file limit capped by hard limit",
			slog.Uint64("want", want), slog.Uint64("soft", soft))
	default:
		logger.Debug("open file limit", slog.Uint64("soft", soft))
	}
}

// applyReload 把重载后的配置热应用到运行中的总线。
func applyReload(logger *slog.Logger, diagLevel *slog.LevelVar, bus *xbus.Bus, f *xconf.File, changed bool, err error) {
	if err != nil {
		logger.Warn("config reload failed", xlog.Err(err))
		return
	}
	if !changed {
		return
	}
	cfg, err := appconf.Decode(f)
	if err != nil {
		logger.Warn("config rejected", xlog.Err(err))
		return
	}
	if level, err := xlog.ParseLevel(cfg.Diagnostics.Level); err == nil {
		diagLevel.Set(level.Level())
	}
	if err := appconf.ApplyLevels(cfg, bus); err != nil {
		logger.Warn("config partially applied, restart to add sinks", xlog.Err(err))
		return
	}
	logger.Info("config applied", slog.Uint64("digest", f.Digest()))
}

// pump 逐行读取 r 并作为事件发布，读到 EOF 返回 errInputClosed。
func pump(ctx context.Context, r io.Reader, l *xbus.Logger, level xlog.Level) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("read input: %w", err)
					}
				default:
				}
				return errInputClosed
			}
			l.Log(ctx, level, line)
		}
	}
}
