// Package observability 汇集日志运行时的各个子包。
//
// 子包列表：
//   - xlog: 级别、事件模型与诊断日志构建器，基于 log/slog
//   - xrotate: 文件名编解码与按大小/日期轮转的写入引擎
//   - xdrain: 活跃操作登记与有界排空
//   - xsink: 控制台、文件、按 key 分组的文件池与 HEC sink
//   - xbus: 按生产者名称与级别把事件分发到 sink
//   - xsampling: 路由级事件采样
//   - xmetrics: 写入、轮转、回收与排空的 OpenTelemetry 指标
package observability
