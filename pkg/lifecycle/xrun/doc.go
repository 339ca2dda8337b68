// Package xrun 提供基于 errgroup + context 的进程生命周期管理。
//
// Group 并发运行多个服务，任一服务返回错误或收到终止信号时取消其余服务。
// Run/RunWithOptions/RunServices 额外注册信号监听服务，收到信号后
// Wait 返回 *[SignalError]。
//
//	err := xrun.RunServicesWithOptions(ctx,
//	    []xrun.Option{xrun.WithReloader(reloader)},
//	    xrun.ServiceFunc(pump))
//	if errors.Is(err, xrun.ErrSignal) {
//	    // 正常的信号退出
//	}
//
// # 信号
//
// 默认终止信号为 SIGINT、SIGTERM、SIGQUIT。SIGHUP 不在其中，
// 它留给 [Reloader]：收到 SIGHUP 时重新打开所有已注册的文件 sink，
// 配合 logrotate 等外部工具使用。[WithReloader] 让 Run 系列函数把它与
// 终止信号服务一起运行。
//
// # 错误处理
//
// Wait 的返回值：
//   - 服务返回的第一个非 context.Canceled 错误
//   - Group 被主动取消且带有 cause（如 SignalError）时返回该 cause
//   - 普通取消返回 nil
//   - context.Canceled 来自服务内部（Group 未被取消）时原样返回
//
// [errgroup]: https://pkg.go.dev/golang.org/x/sync/errgroup
package xrun
