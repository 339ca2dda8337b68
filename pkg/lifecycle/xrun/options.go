package xrun

import (
	"log/slog"
	"os"
)

// Option 配置 Group 的选项函数。
type Option func(*groupOptions)

type groupOptions struct {
	logger          *slog.Logger
	name            string
	signals         []os.Signal
	noSignalHandler bool
	reloader        *Reloader
	notify          notifier
}

func defaultOptions() *groupOptions {
	return &groupOptions{
		logger: slog.Default(),
		name:   "xrun",
		notify: osNotify,
	}
}

// WithLogger 设置生命周期日志的 logger，默认 slog.Default()。
func WithLogger(logger *slog.Logger) Option {
	return func(o *groupOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithName 设置 Group 名称，默认 "xrun"。
func WithName(name string) Option {
	return func(o *groupOptions) {
		if name != "" {
			o.name = name
		}
	}
}

// WithSignals 覆盖默认的终止信号列表。空列表等价于默认值。
func WithSignals(signals []os.Signal) Option {
	copied := append([]os.Signal(nil), signals...)
	return func(o *groupOptions) {
		o.signals = copied
	}
}

// WithoutSignalHandler 禁用自动信号处理。
func WithoutSignalHandler() Option {
	return func(o *groupOptions) {
		o.noSignalHandler = true
	}
}

// WithReloader 让 Run 系列函数同时运行 rl：SIGHUP 触发重新打开，
// 与终止信号处理互不影响。nil 被忽略。
func WithReloader(rl *Reloader) Option {
	return func(o *groupOptions) {
		if rl != nil {
			o.reloader = rl
		}
	}
}
