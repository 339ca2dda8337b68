package xrun

import "os"

// chanNotifier 把测试通道当作信号来源，不订阅进程信号。
func chanNotifier(src <-chan os.Signal) notifier {
	return func(...os.Signal) (<-chan os.Signal, func()) {
		return src, func() {}
	}
}

func withNotifier(n notifier) Option {
	return func(o *groupOptions) {
		o.notify = n
	}
}

func (rl *Reloader) setNotifier(n notifier) {
	rl.notify = n
}
