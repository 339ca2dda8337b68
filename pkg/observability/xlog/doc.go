// Package xlog 提供诊断日志的构建与日志级别定义。
//
// 诊断日志记录 sink 子系统自身的问题（写入失败、轮转失败、排空超时），
// 与业务事件的日志管道分离。它基于 log/slog，可选地输出到一个
// 由 xrotate 轮转的文件：
//
//	logger, cleanup, err := xlog.New().
//	    SetLevelString("debug").
//	    SetFormat("json").
//	    SetRotation("/var/log/xlogd/diag.log", xrotate.WithMaxSize(10<<20)).
//	    Build()
//	if err != nil {
//	    return err
//	}
//	defer cleanup()
//
// Builder 的设置方法遇到的第一个错误会保留到 Build 返回。
//
// [Level] 同时用于业务事件的级别过滤，实现了 slog.Leveler 与
// encoding.TextUnmarshaler，可直接出现在配置文件里。
package xlog
