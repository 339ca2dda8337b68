// Package xfile 提供日志目标路径相关的文件系统工具。
//
// 主要能力：
//   - ResolvePath: 展开 "~/"，将相对路径解析为绝对路径，并做格式净化
//   - SanitizePath: 格式净化（空路径、空字节、相对穿越、目录路径）
//   - SafeJoin: 将不可信的子路径（如写入池的目标键）限制在 base 目录内
//   - EnsureDir: 递归创建父目录，已存在视为成功
//
// # 路径穿越检测
//
// 只有 ".." 作为独立路径段时才视为穿越，"..config" 这类文件名是合法的：
//
//	SafeJoin("/var/log", "..config")      // "/var/log/..config"
//	SafeJoin("/var/log", "../etc/passwd") // ErrPathTraversal
//
// # 错误处理
//
// 预定义错误变量支持 [errors.Is] 判断。
package xfile
