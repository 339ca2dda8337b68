// Package xbus 把生产者发布的事件路由到各个 sink。
//
// 每条路由由 (生产者名称, 最低级别, sink, 转换函数) 组成。Publish 对
// 匹配的路由依次调用转换函数并投递到 sink；转换后的载荷类型由 sink 决定，
// 因此同一事件可以同时以文本行写文件、以 HECEvent 发往采集端。
//
//	bus := xbus.New()
//	_ = xbus.Attach(bus, "*", xlog.LevelInfo, fileSink, xsink.TextLine)
//	_ = xbus.Attach(bus, "billing", xlog.LevelWarn, hecSink, xsink.HECTransform(host, "main"))
//
//	log := bus.Logger("billing")
//	log.Warn(ctx, "slow query", slog.Duration("took", d))
//
//	slog.SetDefault(slog.New(bus.Handler("app")))
//
// 生产者名称 "*" 匹配所有生产者。Shutdown 之后 Publish 不再投递，
// 并发关闭所有 sink 并返回第一个错误。
package xbus
