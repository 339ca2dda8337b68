// Package xkeylock 提供按 key 互斥的进程内锁。
//
// 日志写入池用它串行化同一 key 的 sink 创建：同一个 (名称, 路径)
// 在任意时刻最多只有一个 goroutine 在打开文件，不同 key 互不阻塞。
//
// 实现要点：
//   - key 经 xxhash 映射到固定数量的分片，每个分片一把管理锁
//   - 每个 key 的条目是容量为 1 的 channel，发送即加锁，接收即解锁
//   - 条目按引用计数回收，没有持有者和等待者时从 map 删除
//   - Close 唤醒所有等待中的 Acquire，已持有的锁不受影响
package xkeylock
