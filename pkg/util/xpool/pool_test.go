package xpool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	noop := func(int) {}
	tests := []struct {
		name    string
		workers int
		queue   int
		handler func(int)
		wantErr error
	}{
		{name: "nil handler", workers: 1, queue: 1, handler: nil, wantErr: ErrNilHandler},
		{name: "worker 为 0", workers: 0, queue: 1, handler: noop, wantErr: ErrInvalidWorkers},
		{name: "worker 超限", workers: maxWorkers + 1, queue: 1, handler: noop, wantErr: ErrInvalidWorkers},
		{name: "队列为 0", workers: 1, queue: 0, handler: noop, wantErr: ErrInvalidQueueSize},
		{name: "队列超限", workers: 1, queue: maxQueueSize + 1, handler: noop, wantErr: ErrInvalidQueueSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.workers, tt.queue, tt.handler)
			assert.Nil(t, p)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPool_ProcessesAll(t *testing.T) {
	var processed atomic.Int32
	p, err := New(4, 16, func(int) { processed.Add(1) })
	require.NoError(t, err)

	for i := range 10 {
		require.NoError(t, p.SubmitWait(context.Background(), i))
	}
	require.NoError(t, p.Close())
	assert.Equal(t, int32(10), processed.Load())
}

func TestPool_SingleWorkerKeepsOrder(t *testing.T) {
	var mu sync.Mutex
	var got []int
	p, err := New(1, 4, func(n int) {
		mu.Lock()
		got = append(got, n)
		mu.Unlock()
	})
	require.NoError(t, err)

	for i := range 100 {
		require.NoError(t, p.SubmitWait(context.Background(), i))
	}
	require.NoError(t, p.Close())

	require.Len(t, got, 100)
	for i, n := range got {
		assert.Equal(t, i, n)
	}
}

func TestPool_QueueFull(t *testing.T) {
	release := make(chan struct{})
	p, err := New(1, 1, func(int) { <-release })
	require.NoError(t, err)

	// 第一个任务被 worker 取走阻塞，第二个占满队列
	require.NoError(t, p.SubmitWait(context.Background(), 1))
	require.Eventually(t, func() bool { return p.Len() == 0 }, time.Second, time.Millisecond)
	require.NoError(t, p.Submit(2))
	assert.ErrorIs(t, p.Submit(3), ErrQueueFull)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.SubmitWait(ctx, 4), context.DeadlineExceeded)

	close(release)
	require.NoError(t, p.Close())
}

func TestPool_ShutdownRejectsAndDrains(t *testing.T) {
	var processed atomic.Int32
	p, err := New(1, 8, func(int) {
		time.Sleep(time.Millisecond)
		processed.Add(1)
	})
	require.NoError(t, err)

	for i := range 5 {
		require.NoError(t, p.Submit(i))
	}
	require.NoError(t, p.Shutdown(context.Background()))
	assert.Equal(t, int32(5), processed.Load())

	assert.ErrorIs(t, p.Submit(1), ErrPoolStopped)
	assert.ErrorIs(t, p.SubmitWait(context.Background(), 1), ErrPoolStopped)
	assert.NoError(t, p.Close(), "重复关闭安全")

	//nolint:staticcheck // 验证 nil ctx 防护
	assert.ErrorIs(t, p.Shutdown(nil), ErrNilContext)
	//nolint:staticcheck // 验证 nil ctx 防护
	assert.ErrorIs(t, p.SubmitWait(nil, 1), ErrNilContext)
}

func TestPool_ShutdownTimeout(t *testing.T) {
	release := make(chan struct{})
	p, err := New(1, 1, func(int) { <-release })
	require.NoError(t, err)
	require.NoError(t, p.Submit(1))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Shutdown(ctx), context.DeadlineExceeded)

	close(release)
	<-p.Done()
}

func TestPool_PanicRecovery(t *testing.T) {
	var processed atomic.Int32
	p, err := New(1, 4, func(n int) {
		if n == 1 {
			panic("boom")
		}
		processed.Add(1)
	}, WithName("panic-test"), nil)
	require.NoError(t, err)

	for i := range 3 {
		require.NoError(t, p.Submit(i))
	}
	require.NoError(t, p.Close())
	assert.Equal(t, int32(2), processed.Load())
}
