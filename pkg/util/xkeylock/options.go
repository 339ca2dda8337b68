package xkeylock

import "fmt"

const (
	defaultShardCount = 32
	maxShardCount     = 1 << 16
)

// Option 定义 Locker 可选配置。
type Option func(*options)

type options struct {
	maxKeys    int
	shardCount int
}

// WithMaxKeys 限制同时活跃（持有或等待）的 key 数量，n <= 0 表示不限制。
func WithMaxKeys(n int) Option {
	return func(o *options) {
		o.maxKeys = max(n, 0)
	}
}

// WithShardCount 设置分片数量，必须为 2 的幂，默认 32。
func WithShardCount(n int) Option {
	return func(o *options) {
		o.shardCount = n
	}
}

func (o *options) validate() error {
	sc := o.shardCount
	if sc <= 0 || sc > maxShardCount || sc&(sc-1) != 0 {
		return fmt.Errorf("%w: must be a power of 2 in [1, %d], got %d",
			ErrInvalidShardCount, maxShardCount, sc)
	}
	return nil
}
