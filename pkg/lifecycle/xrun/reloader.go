package xrun

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"
	"syscall"
)

// Reopener 可以重新打开底层文件的组件，例如文件 sink。
type Reopener interface {
	Reopen() error
}

// Reloader SIGHUP 重新打开注册表。
//
// 组件创建时 Register，关闭时调用返回的注销函数；Run 作为 Group 中的
// 一个服务运行，每收到一次 SIGHUP 就对所有已注册组件调用 Reopen。
// 零值不可用，使用 [NewReloader] 创建。
type Reloader struct {
	logger *slog.Logger
	notify notifier

	mu      sync.Mutex
	next    uint64
	entries map[uint64]reopenEntry
}

type reopenEntry struct {
	seq  uint64
	name string
	r    Reopener
}

var _ Service = (*Reloader)(nil)

// NewReloader 创建 Reloader，logger 为 nil 时使用 slog.Default()。
func NewReloader(logger *slog.Logger) *Reloader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reloader{logger: logger, notify: osNotify, entries: make(map[uint64]reopenEntry)}
}

// Register 注册 r，返回幂等的注销函数。同名可重复注册。
func (rl *Reloader) Register(name string, r Reopener) (unregister func(), err error) {
	if r == nil {
		return func() {}, ErrNilReopener
	}
	rl.mu.Lock()
	rl.next++
	seq := rl.next
	rl.entries[seq] = reopenEntry{seq: seq, name: name, r: r}
	rl.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			rl.mu.Lock()
			delete(rl.entries, seq)
			rl.mu.Unlock()
		})
	}, nil
}

// Len 返回已注册组件数量。
func (rl *Reloader) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.entries)
}

// ReopenAll 按注册顺序重新打开所有组件，汇总全部错误。
// Reopen 期间不持有注册表锁，组件可以在回调中注销自己。
func (rl *Reloader) ReopenAll() error {
	rl.mu.Lock()
	snapshot := make([]reopenEntry, 0, len(rl.entries))
	for _, e := range rl.entries {
		snapshot = append(snapshot, e)
	}
	rl.mu.Unlock()
	slices.SortFunc(snapshot, func(a, b reopenEntry) int { return cmp.Compare(a.seq, b.seq) })

	var errs []error
	for _, e := range snapshot {
		if err := e.r.Reopen(); err != nil {
			errs = append(errs, fmt.Errorf("reopen %s: %w", e.name, err))
		}
	}
	return errors.Join(errs...)
}

// Run 监听 SIGHUP 直到 ctx 取消，返回 ctx.Err()。
// 重新打开失败只记录日志，不终止服务。
func (rl *Reloader) Run(ctx context.Context) error {
	sigCh, stop := rl.notify(syscall.SIGHUP)
	defer stop()

	for {
		var sig os.Signal
		select {
		case sig = <-sigCh:
		case <-ctx.Done():
			return ctx.Err()
		}
		n := rl.Len()
		if err := rl.ReopenAll(); err != nil {
			rl.logger.Warn("reopen after signal failed",
				slog.String("signal", sig.String()),
				slog.Int("targets", n),
				slog.Any("error", err),
			)
			continue
		}
		rl.logger.Info("reopened log files",
			slog.String("signal", sig.String()),
			slog.Int("targets", n),
		)
	}
}
