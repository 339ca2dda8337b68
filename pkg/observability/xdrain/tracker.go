package xdrain

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Tracker 进行中操作的登记表。零值不可用，使用 [New] 创建。
type Tracker struct {
	opts options

	mu       sync.Mutex
	active   int
	draining bool
	tornDown bool
	firstErr error

	once   sync.Once
	done   chan struct{}
	result error
}

// New 创建 Tracker。
func New(opts ...Option) *Tracker {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return &Tracker{opts: o, done: make(chan struct{})}
}

// Op 一次登记的操作，完成时必须调用 Done。
type Op struct {
	t    *Tracker
	done atomic.Bool
}

// Begin 登记一个操作。开始关闭后返回 [ErrDraining]。
func (t *Tracker) Begin() (*Op, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.draining {
		return nil, ErrDraining
	}
	t.active++
	return &Op{t: t}, nil
}

// Done 注销操作并记录错误。重复调用无效。
func (o *Op) Done(err error) {
	if o == nil || o.done.Swap(true) {
		return
	}
	t := o.t
	t.mu.Lock()
	t.active--
	if err != nil && t.firstErr == nil && !t.tornDown {
		t.firstErr = err
	}
	t.mu.Unlock()
}

// Do 登记并执行 fn。fn panic 时操作同样会被注销。
func (t *Tracker) Do(fn func() error) (err error) {
	op, err := t.Begin()
	if err != nil {
		return err
	}
	defer func() { op.Done(err) }()
	return fn()
}

// Active 返回进行中的操作数。
func (t *Tracker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Draining 报告是否已开始关闭。
func (t *Tracker) Draining() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.draining
}

// Shutdown 执行关闭协议，teardown 恰好执行一次。
//
// 返回 teardown 的错误；teardown 成功时返回排空期间的第一个操作错误。
// 并发或重复调用等待首次调用完成并返回相同结果，等待期间自身 ctx 结束则返回 ctx.Err()。
// teardown 为 nil 时视为无操作。
func (t *Tracker) Shutdown(ctx context.Context, teardown func(firstErr error) error) error {
	if ctx == nil {
		return ErrNilContext
	}
	first := false
	t.once.Do(func() { first = true })
	if first {
		t.run(ctx, teardown)
		return t.result
	}
	select {
	case <-t.done:
		return t.result
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Tracker) run(ctx context.Context, teardown func(error) error) {
	defer close(t.done)
	start := time.Now()

	t.mu.Lock()
	t.draining = true
	t.mu.Unlock()

	timedOut := !t.wait(ctx)
	if timedOut {
		t.opts.logger.Warn("xdrain: drain ceiling reached, tearing down with operations in flight",
			"name", t.opts.name,
			"active", t.Active(),
			"waited", time.Since(start))
	}

	t.mu.Lock()
	t.tornDown = true
	first := t.firstErr
	t.mu.Unlock()

	if teardown == nil {
		t.result = first
		return
	}
	if err := teardown(first); err != nil {
		t.result = err
		return
	}
	t.result = first
}

// wait 轮询直到活跃数归零（返回 true），或达到上限/ctx 结束（返回 false）。
func (t *Tracker) wait(ctx context.Context) bool {
	if t.Active() == 0 {
		return true
	}
	deadline := time.NewTimer(t.opts.timeout)
	defer deadline.Stop()
	tick := time.NewTicker(t.opts.pollInterval)
	defer tick.Stop()

	for {
		select {
		case <-tick.C:
			if t.Active() == 0 {
				return true
			}
		case <-deadline.C:
			return t.Active() == 0
		case <-ctx.Done():
			return t.Active() == 0
		}
	}
}
