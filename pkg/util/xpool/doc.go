// Package xpool 提供泛型 worker pool。
//
// 特性：
//   - 泛型任务类型，worker 数量与队列大小可配置
//   - Submit 非阻塞，队列满返回 [ErrQueueFull]
//   - SubmitWait 阻塞直到入队、ctx 结束或 pool 关闭，用于需要背压的场景
//   - 单 worker 时任务严格按提交顺序执行，可作为串行执行队列
//   - Shutdown(ctx) 优雅关闭：拒绝新任务，处理完队列剩余任务
//   - panic 恢复：单个任务 panic 只记录日志，不影响后续任务
//
// # 注意事项
//
//   - New 创建后自动启动 worker
//   - Close/Shutdown 不可在 handler 内调用，否则会死锁
//   - Shutdown 超时返回后，残留 worker 仍在后台处理剩余任务，可通过 Done() 等待
package xpool
