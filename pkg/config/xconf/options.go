package xconf

import "time"

// DefaultDebounce 监视防抖的默认时长。
const DefaultDebounce = 100 * time.Millisecond

type options struct {
	delim    string
	tag      string
	debounce time.Duration
}

func defaultOptions() options {
	return options{delim: ".", tag: "koanf", debounce: DefaultDebounce}
}

// Option 配置 [Load]、[Parse] 与 [Watch]。
type Option func(*options)

// WithDelim 设置键路径分隔符，默认 "."。
func WithDelim(delim string) Option {
	return func(o *options) {
		if delim != "" {
			o.delim = delim
		}
	}
}

// WithTag 设置 Unmarshal 使用的结构体标签名，默认 "koanf"。
func WithTag(tag string) Option {
	return func(o *options) {
		if tag != "" {
			o.tag = tag
		}
	}
}

// WithDebounce 设置监视防抖时长。窗口内的多次变更只触发一次重载。
// 非正值被忽略。
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.debounce = d
		}
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
