package xrun

import (
	"os"
	"os/signal"
	"syscall"
)

// DefaultSignals 返回默认终止信号：SIGINT、SIGTERM、SIGQUIT。
// 每次调用返回新切片。
func DefaultSignals() []os.Signal {
	return []os.Signal{
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	}
}

// notifier 订阅信号，返回接收通道与退订函数。
type notifier func(sig ...os.Signal) (<-chan os.Signal, func())

// osNotify 经 signal.Notify 订阅进程信号。
func osNotify(sig ...os.Signal) (<-chan os.Signal, func()) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, sig...)
	return c, func() { signal.Stop(c) }
}
