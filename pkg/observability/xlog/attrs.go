package xlog

import (
	"log/slog"
	"time"
)

// 诊断日志的标准字段名。
const (
	KeyError     = "error"
	KeyDuration  = "duration"
	KeyComponent = "component"
	KeySink      = "sink"
	KeyPath      = "path"
	KeyPoolKey   = "pool_key"
	KeyReason    = "reason"
)

// Err 错误属性，err 为 nil 时返回会被 slog 忽略的空属性。
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Duration 耗时属性。
func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// Component 组件名属性，如 "xsink.file"。
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Sink sink 名称属性。
func Sink(name string) slog.Attr {
	return slog.String(KeySink, name)
}

// Path 文件路径属性。
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// PoolKey 写入池条目 key 属性。
func PoolKey(k string) slog.Attr {
	return slog.String(KeyPoolKey, k)
}

// Reason 轮转原因等分类属性。
func Reason(r string) slog.Attr {
	return slog.String(KeyReason, r)
}
