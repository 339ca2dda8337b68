package xkeylock

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// Handle 一次成功的加锁。
type Handle interface {
	// Unlock 释放锁。首次返回 nil，之后返回 [ErrLockNotHeld]。
	Unlock() error

	// Key 返回加锁的 key，Unlock 之后仍然有效。
	Key() string
}

// Locker 按 key 互斥的锁，非可重入。
type Locker struct {
	shards   []shard
	mask     uint64
	maxKeys  int64
	keyCount atomic.Int64
	closed   atomic.Bool
	done     chan struct{}
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// entry 的 refs 只在所属分片的 mu 下修改。
type entry struct {
	ch   chan struct{}
	refs int
}

type handle struct {
	l        *Locker
	key      string
	e        *entry
	released atomic.Bool
}

var _ Handle = (*handle)(nil)

// New 创建 Locker。
func New(opts ...Option) (*Locker, error) {
	o := options{shardCount: defaultShardCount}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	shards := make([]shard, o.shardCount)
	for i := range shards {
		shards[i].entries = make(map[string]*entry)
	}
	return &Locker{
		shards:  shards,
		mask:    uint64(o.shardCount - 1), //#nosec G115 -- validate 保证 shardCount 在 [1, 65536]
		maxKeys: int64(o.maxKeys),
		done:    make(chan struct{}),
	}, nil
}

func (l *Locker) shardFor(key string) *shard {
	return &l.shards[xxhash.Sum64String(key)&l.mask]
}

func (l *Locker) ref(key string) (*entry, error) {
	s := l.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if l.closed.Load() {
		return nil, ErrClosed
	}
	e, ok := s.entries[key]
	if !ok {
		// 跨分片并发创建时用 CAS 守住上限
		for {
			cur := l.keyCount.Load()
			if l.maxKeys > 0 && cur >= l.maxKeys {
				return nil, ErrMaxKeysExceeded
			}
			if l.keyCount.CompareAndSwap(cur, cur+1) {
				break
			}
		}
		e = &entry{ch: make(chan struct{}, 1)}
		s.entries[key] = e
	}
	e.refs++
	return e, nil
}

func (l *Locker) unref(key string, e *entry) {
	s := l.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(s.entries, key)
		l.keyCount.Add(-1)
	}
}

// Acquire 阻塞直到获得 key 的锁、ctx 结束或 Locker 关闭。
// 关闭与 ctx 取消同时发生时，返回 [ErrClosed] 或 ctx.Err() 均有可能。
func (l *Locker) Acquire(ctx context.Context, key string) (Handle, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if key == "" {
		return nil, ErrInvalidKey
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, err := l.ref(key)
	if err != nil {
		return nil, err
	}
	select {
	case e.ch <- struct{}{}:
		return &handle{l: l, key: key, e: e}, nil
	case <-ctx.Done():
		l.unref(key, e)
		return nil, ctx.Err()
	case <-l.done:
		l.unref(key, e)
		return nil, ErrClosed
	}
}

// TryAcquire 非阻塞加锁，锁被占用时返回 [ErrLockOccupied]。
func (l *Locker) TryAcquire(key string) (Handle, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	e, err := l.ref(key)
	if err != nil {
		return nil, err
	}
	select {
	case e.ch <- struct{}{}:
		return &handle{l: l, key: key, e: e}, nil
	default:
		l.unref(key, e)
		return nil, ErrLockOccupied
	}
}

// Len 返回活跃 key 数量的瞬时值。
func (l *Locker) Len() int {
	return int(max(l.keyCount.Load(), 0))
}

// Keys 返回活跃 key 的快照，不保证跨分片原子性。
func (l *Locker) Keys() []string {
	keys := make([]string, 0, l.Len())
	for i := range l.shards {
		s := &l.shards[i]
		s.mu.Lock()
		for k := range s.entries {
			keys = append(keys, k)
		}
		s.mu.Unlock()
	}
	return keys
}

// Close 拒绝新的加锁请求并唤醒等待者。重复调用返回 [ErrClosed]。
func (l *Locker) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	close(l.done)
	return nil
}

func (h *handle) Unlock() error {
	if !h.released.CompareAndSwap(false, true) {
		return ErrLockNotHeld
	}
	<-h.e.ch
	h.l.unref(h.key, h.e)
	return nil
}

func (h *handle) Key() string { return h.key }
