// Package xsys 调整进程的打开文件数上限。
//
// 写入池按 key 同时打开的文件数可能超过发行版默认的 1024。
// [EnsureFileLimit] 只在当前 soft limit 不足时提升，且不超过 hard limit，
// 从不降低任何一方；非 Unix 平台返回 [ErrUnsupportedPlatform]。
package xsys
