package xrun

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Group 基于 errgroup + context 管理多个服务的并发运行和协调关闭。
//
// Go、GoWithName、Cancel 可并发调用；Wait 只应调用一次。
type Group struct {
	eg       *errgroup.Group
	ctx      context.Context
	causeCtx context.Context
	cancel   context.CancelCauseFunc
	opts     *groupOptions
}

// NewGroup 创建 Group 并返回派生的 context。
// 任一服务返回错误时该 context 被取消。nil ctx 视为 context.Background()。
func NewGroup(ctx context.Context, opts ...Option) (*Group, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	options := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	causeCtx, cancel := context.WithCancelCause(ctx)
	eg, egCtx := errgroup.WithContext(causeCtx)
	return &Group{
		eg:       eg,
		ctx:      egCtx,
		causeCtx: causeCtx,
		cancel:   cancel,
		opts:     options,
	}, egCtx
}

// Go 在新 goroutine 中运行 fn，fn 应监听 ctx.Done()。
func (g *Group) Go(fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		return fn(g.ctx)
	})
}

// GoWithName 与 Go 相同，额外记录服务的启停日志。
func (g *Group) GoWithName(name string, fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		g.opts.logger.Debug("service starting",
			slog.String("group", g.opts.name),
			slog.String("service", name),
		)
		err := fn(g.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			g.opts.logger.Warn("service exited with error",
				slog.String("group", g.opts.name),
				slog.String("service", name),
				slog.Any("error", err),
			)
		} else {
			g.opts.logger.Debug("service stopped",
				slog.String("group", g.opts.name),
				slog.String("service", name),
			)
		}
		return err
	})
}

// Wait 等待所有服务退出，返回值规则见包文档。
func (g *Group) Wait() error {
	defer g.cancel(nil)

	err := g.eg.Wait()
	g.opts.logger.Debug("all services stopped", slog.String("group", g.opts.name))

	// 用 causeCtx 区分取消来源：它未被取消说明 Canceled 来自服务内部
	if errors.Is(err, context.Canceled) {
		if g.causeCtx.Err() == nil {
			return err
		}
		return g.explicitCause()
	}
	if err == nil && g.causeCtx.Err() != nil {
		return g.explicitCause()
	}
	return err
}

func (g *Group) explicitCause() error {
	if cause := context.Cause(g.causeCtx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return nil
}

// Cancel 以 cause 取消所有服务，Wait 会返回该 cause。
// cause 不应包装 context.Canceled，否则会被当作普通取消过滤掉。
func (g *Group) Cancel(cause error) {
	g.cancel(cause)
}

// Context 返回 Group 的 context。
func (g *Group) Context() context.Context {
	return g.ctx
}

// runGroup 是 Run 系列函数的共享实现：启动终止信号服务与 SIGHUP 重新打开服务，
// 再调用 setup 并等待。
func runGroup(ctx context.Context, opts []Option, setup func(g *Group)) error {
	g, _ := NewGroup(ctx, opts...)

	if !g.opts.noSignalHandler {
		g.GoWithName("signals", g.awaitTermination)
	}
	if rl := g.opts.reloader; rl != nil {
		g.GoWithName("reloader", rl.Run)
	}

	setup(g)
	return g.Wait()
}

// awaitTermination 等待第一个终止信号，以 [SignalError] 取消整个 Group。
func (g *Group) awaitTermination(ctx context.Context) error {
	// 空列表按默认处理，signal.Notify 无参调用会订阅所有信号
	signals := g.opts.signals
	if len(signals) == 0 {
		signals = DefaultSignals()
	}
	sigCh, stop := g.opts.notify(signals...)
	defer stop()

	select {
	case sig := <-sigCh:
		g.opts.logger.Info("received signal",
			slog.String("group", g.opts.name),
			slog.String("signal", sig.String()),
		)
		g.cancel(&SignalError{Signal: sig})
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run 监听终止信号并运行 services，收到信号时返回 *SignalError。
func Run(ctx context.Context, services ...func(ctx context.Context) error) error {
	return RunWithOptions(ctx, nil, services...)
}

// RunWithOptions 与 Run 相同，但支持配置选项。
func RunWithOptions(ctx context.Context, opts []Option, services ...func(ctx context.Context) error) error {
	return runGroup(ctx, opts, func(g *Group) {
		for _, svc := range services {
			g.Go(svc)
		}
	})
}

// Service 可被 Group 管理的服务，Run 阻塞到 ctx 取消或出错。
type Service interface {
	Run(ctx context.Context) error
}

// ServiceFunc 将函数适配为 Service。
type ServiceFunc func(ctx context.Context) error

// Run 实现 Service。
func (f ServiceFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// RunServices 运行多个 Service，监听信号并协调关闭。
func RunServices(ctx context.Context, services ...Service) error {
	return RunServicesWithOptions(ctx, nil, services...)
}

// RunServicesWithOptions 与 RunServices 相同，但支持配置选项。
func RunServicesWithOptions(ctx context.Context, opts []Option, services ...Service) error {
	return runGroup(ctx, opts, func(g *Group) {
		for _, svc := range services {
			if svc == nil {
				g.Go(func(context.Context) error { return ErrNilService })
				continue
			}
			g.Go(svc.Run)
		}
	})
}
