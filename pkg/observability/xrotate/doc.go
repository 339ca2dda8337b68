// Package xrotate 提供按大小或按日期轮转的日志文件引擎。
//
// # 引擎
//
//   - [NewFile]: 同步引擎，互斥锁串行化写入与轮转
//   - [NewAsyncFile]: 异步引擎，单 worker 队列串行化写入与轮转，WriteAsync 返回完成信号
//   - [NewLumberjack]: 基于 lumberjack v2 的按大小轮转，备份名使用时间戳
//
// 三者都实现 [Engine]，并发安全。
//
// # 文件命名
//
// [Codec] 负责主文件与备份文件名的双向映射。以 /var/log/app.log 为例，
// 分隔符 "."：
//
//	app.log                     主文件
//	app.log.1 / app.log.2       按大小轮转的备份（1 最新）
//	app.log.2024-01-15.1        按日期轮转的备份
//	app.2024-01-15.1.log        KeepFileExt
//	app.log.1.gz                Compress
//
// 目录中无法被 Codec 解析的文件一律忽略，轮转不会触碰它们。
//
// # 轮转
//
// 写入前检查：当前大小 >= MaxSize，或日期桶已变化。轮转先完成，再写入本次数据。
// 轮转时当前日期桶内的备份按从旧到新依次后移一位，编号不连续的旧备份被清除，
// 超出 Backups 的备份被删除；Backups 为 0 时主文件原地截断。
//
// # 错误
//
// 配置错误在构造时返回；运行期 I/O 错误经返回值传播，同时通过 OnError 回调上报，
// 引擎保持可用。引擎内部不写日志，避免作为日志输出目标时递归。
package xrotate
