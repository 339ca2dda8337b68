package xpool

import (
	"context"
	"fmt"
	"io"
	"runtime/debug"
	"sync"
)

const (
	maxWorkers   = 1 << 16
	maxQueueSize = 1 << 24
)

var _ io.Closer = (*Pool[int])(nil)

// Pool 泛型 worker pool。
type Pool[T any] struct {
	handler func(T)
	opts    options

	// mu 保护 stopped 与 queue 的关闭：发送方持读锁，关闭方持写锁，
	// 避免向已关闭 channel 发送。
	mu      sync.RWMutex
	stopped bool
	queue   chan T

	wg   sync.WaitGroup
	done chan struct{}
}

// New 创建并启动 pool。
//
// workers 取值 [1, 65536]，queueSize 取值 [1, 16777216]。
func New[T any](workers, queueSize int, handler func(T), opts ...Option) (*Pool[T], error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if workers < 1 || workers > maxWorkers {
		return nil, fmt.Errorf("%w: got %d, want 1~%d", ErrInvalidWorkers, workers, maxWorkers)
	}
	if queueSize < 1 || queueSize > maxQueueSize {
		return nil, fmt.Errorf("%w: got %d, want 1~%d", ErrInvalidQueueSize, queueSize, maxQueueSize)
	}

	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	p := &Pool[T]{
		handler: handler,
		opts:    o,
		queue:   make(chan T, queueSize),
		done:    make(chan struct{}),
	}
	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	go func() {
		p.wg.Wait()
		close(p.done)
	}()
	return p, nil
}

// worker 只读 queue 直到其关闭，保证关闭时剩余任务被处理完。
func (p *Pool[T]) worker() {
	defer p.wg.Done()
	for task := range p.queue {
		p.run(task)
	}
}

func (p *Pool[T]) run(task T) {
	defer func() {
		if r := recover(); r != nil {
			p.opts.logger.Error("xpool: worker panic recovered",
				"pool", p.opts.name,
				"task_type", fmt.Sprintf("%T", task),
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	p.handler(task)
}

// Submit 非阻塞提交任务。队列满返回 [ErrQueueFull]，已关闭返回 [ErrPoolStopped]。
func (p *Pool[T]) Submit(task T) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrPoolStopped
	}
	select {
	case p.queue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// SubmitWait 阻塞提交任务，直到入队成功或 ctx 结束。
//
// 等待期间 Shutdown 会被阻塞在写锁上；由于 worker 持续消费队列，
// 等待最终会结束。
func (p *Pool[T]) SubmitWait(ctx context.Context, task T) error {
	if ctx == nil {
		return ErrNilContext
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrPoolStopped
	}
	select {
	case p.queue <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown 拒绝新任务并等待队列中剩余任务处理完成。
//
// ctx 到期时返回 ctx.Err()，worker 仍在后台继续处理。
// 重复调用安全。
func (p *Pool[T]) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.queue)
	}
	p.mu.Unlock()

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close 等价于 Shutdown(context.Background())。
func (p *Pool[T]) Close() error {
	return p.Shutdown(context.Background())
}

// Done 在所有 worker 退出后关闭。
func (p *Pool[T]) Done() <-chan struct{} {
	return p.done
}

// Len 返回队列中等待处理的任务数。
func (p *Pool[T]) Len() int {
	return len(p.queue)
}
