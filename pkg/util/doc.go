// Package util 提供日志运行时依赖的通用工具。
//
// 子包列表：
//   - xfile: 路径解析（"~/"、相对路径）、安全拼接与目录创建
//   - xkeylock: 按 key 的进程内互斥锁，写入池用它串行化同一文件的创建
//   - xpool: 泛型 worker pool，异步轮转引擎的单 worker 队列
//   - xsys: 打开文件数上限调整
package util
