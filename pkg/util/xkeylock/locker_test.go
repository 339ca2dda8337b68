package xkeylock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocker(t *testing.T, opts ...Option) *Locker {
	t.Helper()
	l, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestNew_ShardCount(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		wantErr bool
	}{
		{"单分片", 1, false},
		{"默认之外的2的幂", 64, false},
		{"上限", maxShardCount, false},
		{"零", 0, true},
		{"负数", -4, true},
		{"非2的幂", 12, true},
		{"超过上限", maxShardCount * 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(WithShardCount(tt.n), nil)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidShardCount)
				return
			}
			require.NoError(t, err)
			require.NoError(t, l.Close())
		})
	}
}

func TestAcquire_Unlock(t *testing.T) {
	l := newLocker(t)

	h, err := l.Acquire(context.Background(), "app:/var/log/app.log")
	require.NoError(t, err)
	assert.Equal(t, "app:/var/log/app.log", h.Key())
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, []string{"app:/var/log/app.log"}, l.Keys())

	require.NoError(t, h.Unlock())
	assert.ErrorIs(t, h.Unlock(), ErrLockNotHeld)
	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.Keys())
}

func TestAcquire_InvalidInput(t *testing.T) {
	l := newLocker(t)

	//nolint:staticcheck // 验证 nil ctx
	_, err := l.Acquire(nil, "k")
	assert.ErrorIs(t, err, ErrNilContext)

	_, err = l.Acquire(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = l.TryAcquire("")
	assert.ErrorIs(t, err, ErrInvalidKey)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Acquire(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, l.Len())
}

func TestTryAcquire(t *testing.T) {
	l := newLocker(t)

	h1, err := l.TryAcquire("a")
	require.NoError(t, err)

	_, err = l.TryAcquire("a")
	assert.ErrorIs(t, err, ErrLockOccupied)

	h2, err := l.TryAcquire("b")
	require.NoError(t, err)

	require.NoError(t, h1.Unlock())
	h3, err := l.TryAcquire("a")
	require.NoError(t, err)

	require.NoError(t, h2.Unlock())
	require.NoError(t, h3.Unlock())
	assert.Equal(t, 0, l.Len())
}

func TestAcquire_Timeout(t *testing.T) {
	l := newLocker(t)

	h, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)
	defer func() { _ = h.Unlock() }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, l.Len())
}

func TestAcquire_MutualExclusion(t *testing.T) {
	l := newLocker(t, WithShardCount(4))

	var (
		inside  atomic.Int32
		overlap atomic.Bool
		wg      sync.WaitGroup
	)
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := l.Acquire(context.Background(), "shared")
			if err != nil {
				return
			}
			if inside.Add(1) > 1 {
				overlap.Store(true)
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			_ = h.Unlock()
		}()
	}
	wg.Wait()

	assert.False(t, overlap.Load())
	assert.Equal(t, 0, l.Len())
}

func TestMaxKeys(t *testing.T) {
	l := newLocker(t, WithMaxKeys(1))

	h, err := l.Acquire(context.Background(), "a")
	require.NoError(t, err)

	_, err = l.TryAcquire("b")
	assert.ErrorIs(t, err, ErrMaxKeysExceeded)

	// 同一 key 的等待者不占用新名额
	_, err = l.TryAcquire("a")
	assert.ErrorIs(t, err, ErrLockOccupied)

	require.NoError(t, h.Unlock())
	h, err = l.TryAcquire("b")
	require.NoError(t, err)
	require.NoError(t, h.Unlock())
}

func TestClose_WakesWaiters(t *testing.T) {
	l, err := New()
	require.NoError(t, err)

	h, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, err := l.Acquire(context.Background(), "k")
		errCh <- err
	}()

	require.Eventually(t, func() bool {
		s := l.shardFor("k")
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.entries["k"].refs == 2
	}, time.Second, time.Millisecond)

	require.NoError(t, l.Close())
	assert.ErrorIs(t, <-errCh, ErrClosed)
	assert.ErrorIs(t, l.Close(), ErrClosed)

	_, err = l.TryAcquire("x")
	assert.ErrorIs(t, err, ErrClosed)

	// 已持有的锁仍可释放
	require.NoError(t, h.Unlock())
	assert.Equal(t, 0, l.Len())
}
