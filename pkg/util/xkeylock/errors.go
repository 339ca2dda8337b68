package xkeylock

import "errors"

var (
	// ErrLockNotHeld Handle 已释放，再次 Unlock 时返回。
	ErrLockNotHeld = errors.New("xkeylock: lock not held")

	// ErrLockOccupied TryAcquire 时锁被占用。
	ErrLockOccupied = errors.New("xkeylock: lock occupied")

	// ErrClosed Locker 已关闭。
	ErrClosed = errors.New("xkeylock: closed")

	// ErrMaxKeysExceeded 活跃 key 数达到上限。
	ErrMaxKeysExceeded = errors.New("xkeylock: max keys exceeded")

	// ErrInvalidKey key 为空。
	ErrInvalidKey = errors.New("xkeylock: empty key")

	// ErrNilContext ctx 为 nil。
	ErrNilContext = errors.New("xkeylock: nil context")

	// ErrInvalidShardCount 分片数不是 [1, 65536] 内的 2 的幂。
	ErrInvalidShardCount = errors.New("xkeylock: invalid shard count")
)
