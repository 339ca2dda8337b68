package xsink

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xlogkit/pkg/observability/xdrain"
	"github.com/omeyang/xlogkit/pkg/observability/xlog"
	"github.com/omeyang/xlogkit/pkg/util/xfile"
	"github.com/omeyang/xlogkit/pkg/util/xkeylock"
)

// Entry MultiFile 的载荷：Key 是相对基础目录的文件路径。
type Entry struct {
	Key  string
	Data string
}

// PoolStats 写入池累计统计。
type PoolStats struct {
	Created uint64
	Evicted uint64
}

// MultiFile 按 key 分发到不同文件的写入池。
type MultiFile struct {
	base
	baseDir  string
	idle     time.Duration
	fileOpts options
	locks    *xkeylock.Locker
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*poolEntry
	closing bool

	created atomic.Uint64
	evicted atomic.Uint64
}

var _ Sink[Entry] = (*MultiFile)(nil)

// poolEntry 写入池中的一个条目。
type poolEntry struct {
	key      string
	sink     *File
	timer    *time.Timer
	lastUsed atomic.Int64 // UnixNano
	draining atomic.Bool
	drained  chan struct{}
}

// NewMultiFile 创建写入池。baseDir 支持 "~/" 与相对路径，
// 每个条目的文件 sink 继承 opts 中的引擎与轮转配置。
func NewMultiFile(name, baseDir string, opts ...Option) (*MultiFile, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if baseDir == "" {
		return nil, ErrEmptyPath
	}
	o := buildOptions(opts)
	if o.idleTimeout < 0 {
		return nil, ErrInvalidIdleTimeout
	}
	dir, err := xfile.ResolvePath(baseDir)
	if err != nil {
		return nil, err
	}
	locks, err := xkeylock.New()
	if err != nil {
		return nil, err
	}
	return &MultiFile{
		base:     newBase(name, "xsink.multifile", &o),
		baseDir:  dir,
		idle:     o.idleTimeout,
		fileOpts: o,
		locks:    locks,
		now:      time.Now,
		entries:  make(map[string]*poolEntry),
	}, nil
}

// Dispatch 将 e.Data 写入 baseDir/e.Key。
func (m *MultiFile) Dispatch(ctx context.Context, e Entry) {
	op, err := m.tracker.Begin()
	if err != nil {
		return
	}
	op.Done(m.dispatch(ctx, e))
}

func (m *MultiFile) dispatch(ctx context.Context, e Entry) error {
	path, err := xfile.SafeJoin(m.baseDir, e.Key)
	if err != nil {
		m.report(ctx, "rejected pool key", err, xlog.PoolKey(e.Key))
		return err
	}
	key := m.name + ":" + path

	for {
		ent := m.lookup(key)
		if ent == nil || ent.draining.Load() {
			if ent, err = m.create(ctx, key, path); err != nil {
				m.report(ctx, "create pooled file failed", err, xlog.PoolKey(key))
				return err
			}
		}
		ent.touch(m.now())
		// 条目在检查之后开始排空时被拒绝，重新走创建路径
		if err := ent.sink.dispatch(ctx, e.Data); errors.Is(err, xdrain.ErrDraining) {
			continue
		}
		return nil
	}
}

func (m *MultiFile) lookup(key string) *poolEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[key]
}

// create 在 key 锁内复查并创建条目。存在正在排空的旧条目时先等它结束。
func (m *MultiFile) create(ctx context.Context, key, path string) (*poolEntry, error) {
	h, err := m.locks.Acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = h.Unlock() }()

	for {
		ent := m.lookup(key)
		if ent == nil {
			break
		}
		if !ent.draining.Load() {
			return ent, nil
		}
		select {
		case <-ent.drained:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	sink, err := newFile(key, path, &m.fileOpts)
	if err != nil {
		return nil, err
	}
	ent := &poolEntry{key: key, sink: sink, drained: make(chan struct{})}
	ent.touch(m.now())

	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		_ = sink.Shutdown(ctx)
		return nil, xdrain.ErrDraining
	}
	m.entries[key] = ent
	if m.idle > 0 {
		ent.timer = time.AfterFunc(m.idle, func() { m.onIdle(ent) })
	}
	m.mu.Unlock()

	m.created.Add(1)
	m.logger.LogAttrs(ctx, slog.LevelDebug, "opened pooled file",
		xlog.Component(m.component), xlog.Sink(m.name), xlog.PoolKey(key))
	return ent, nil
}

func (e *poolEntry) touch(t time.Time) {
	e.lastUsed.Store(t.UnixNano())
}

// onIdle 定时器回调：未超时则按剩余时间重置，否则排空并移除条目。
func (m *MultiFile) onIdle(ent *poolEntry) {
	m.mu.Lock()
	if m.closing || m.entries[ent.key] != ent {
		m.mu.Unlock()
		return
	}
	remaining := m.idle - m.now().Sub(time.Unix(0, ent.lastUsed.Load()))
	if remaining > 0 {
		ent.timer.Reset(remaining)
		m.mu.Unlock()
		return
	}
	ent.draining.Store(true)
	m.mu.Unlock()

	ctx := context.Background()
	err := ent.sink.Shutdown(ctx)

	m.mu.Lock()
	if m.entries[ent.key] == ent {
		delete(m.entries, ent.key)
	}
	m.mu.Unlock()
	close(ent.drained)

	m.evicted.Add(1)
	m.rec.RecordEviction(ctx, m.name)
	if err != nil {
		m.report(ctx, "evicted pooled file with error", err, xlog.PoolKey(ent.key))
		return
	}
	m.logger.LogAttrs(ctx, slog.LevelDebug, "evicted idle pooled file",
		xlog.Component(m.component), xlog.Sink(m.name), xlog.PoolKey(ent.key))
}

// Len 返回当前条目数（包括正在排空的）。
func (m *MultiFile) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Stats 返回累计创建和回收次数。
func (m *MultiFile) Stats() PoolStats {
	return PoolStats{Created: m.created.Load(), Evicted: m.evicted.Load()}
}

// Shutdown 排空池本身的在途投递，然后停止所有定时器并并发关闭全部条目。
func (m *MultiFile) Shutdown(ctx context.Context) error {
	return m.drain(ctx, func(error) error {
		m.mu.Lock()
		m.closing = true
		ents := make([]*poolEntry, 0, len(m.entries))
		for _, ent := range m.entries {
			ents = append(ents, ent)
		}
		m.entries = make(map[string]*poolEntry)
		m.mu.Unlock()

		var g errgroup.Group
		for _, ent := range ents {
			if ent.timer != nil {
				ent.timer.Stop()
			}
			if ent.draining.Load() {
				// 回收中的条目由定时器回调完成关闭
				g.Go(func() error {
					<-ent.drained
					return nil
				})
				continue
			}
			g.Go(func() error { return ent.sink.Shutdown(ctx) })
		}
		err := g.Wait()
		_ = m.locks.Close()
		return err
	})
}
