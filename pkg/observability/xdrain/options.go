package xdrain

import (
	"log/slog"
	"time"
)

const (
	// DefaultPollInterval 排空期间检查活跃操作数的间隔
	DefaultPollInterval = 10 * time.Millisecond

	// DefaultTimeout 排空等待上限
	DefaultTimeout = 5 * time.Second
)

// Option 配置 Tracker。
type Option func(*options)

type options struct {
	pollInterval time.Duration
	timeout      time.Duration
	logger       *slog.Logger
	name         string
}

func defaultOptions() options {
	return options{
		pollInterval: DefaultPollInterval,
		timeout:      DefaultTimeout,
		logger:       slog.Default(),
	}
}

// WithPollInterval 设置轮询间隔，非正值被忽略。
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithTimeout 设置排空上限，非正值被忽略。
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithLogger 设置记录超时的日志器，nil 被忽略。
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithName 设置名称，出现在日志的 name 字段。
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}
