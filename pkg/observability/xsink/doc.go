// Package xsink 提供日志事件的输出端（sink）。
//
// 所有 sink 实现 [Sink]：Dispatch 投递一条已经过滤和转换的载荷，
// Shutdown 按排空协议关闭。写入路径上的错误不会返回给生产者，
// 而是记录到诊断 logger（[WithLogger]）并计入 xmetrics。
//
// 内置 sink：
//   - [Console]   每条一行写入 io.Writer，默认 stdout
//   - [File]      写入单个轮转文件，引擎可选 sync/async/lumberjack
//   - [MultiFile] 按 key 把载荷写到基础目录下的不同文件，空闲条目自动回收
//   - [HEC]       以 HTTP Event Collector 协议 POST 到采集端
//
// # 排空
//
// 每个 sink 持有一个 xdrain.Tracker。Shutdown 先拒绝新投递，
// 等待在途写入完成（默认每 10ms 检查一次，最多 5s），然后释放资源。
// 超时只记录日志，不视为错误；重复 Shutdown 返回相同结果。
//
// # 写入池
//
// MultiFile 为每个 (sink 名称, 物理路径) 懒创建一个 File。同一 key 的
// 并发首写由 xkeylock 串行化并在锁内复查，保证只创建一个引擎。
// 配置 [WithIdleTimeout] 后，每个条目有一个单次定时器：触发时若距上次
// 使用已超过超时时间则排空并移除条目，否则按剩余时间重置定时器。
// 投递遇到正在排空的条目时会等待排空结束再重新创建，不丢数据。
package xsink
