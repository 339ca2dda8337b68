// Package xmetrics 提供日志 sink 子系统的可观测性接口。
//
// 组件只依赖 [Recorder] 接口；默认实现 [NoopRecorder] 不做任何事，
// [NewOTelRecorder] 基于 OpenTelemetry 记录指标与跨度。
//
// # 指标命名
//
//   - xlogkit.sink.writes      写入次数（sink, status）
//   - xlogkit.sink.bytes       写入字节数（sink）
//   - xlogkit.rotate.rolls     轮转次数（sink, reason, status）
//   - xlogkit.pool.evictions   写入池空闲回收次数（pool）
//   - xlogkit.drain.duration   sink 关闭排空耗时，秒（sink, status）
package xmetrics
