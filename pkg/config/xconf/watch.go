package xconf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc 接收一次重载的结果。changed 为 false 且 err 为 nil
// 表示文件被触碰但内容未变。
type ReloadFunc func(f *File, changed bool, err error)

// Watcher 监视配置文件并在变更后重载。
type Watcher struct {
	file     *File
	fs       *fsnotify.Watcher
	onReload ReloadFunc
	debounce time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
	wg      sync.WaitGroup
}

// Watch 为 f 创建监视器。返回后需调用 [Watcher.Run] 开始监视。
// 监视的是文件所在目录，目录不存在时返回错误。
func Watch(f *File, onReload ReloadFunc, opts ...Option) (*Watcher, error) {
	if onReload == nil {
		return nil, ErrNilCallback
	}
	o := f.opts
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xconf: create watcher: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := fw.Add(dir); err != nil {
		return nil, errors.Join(fmt.Errorf("xconf: watch %s: %w", dir, err), fw.Close())
	}
	return &Watcher{file: f, fs: fw, onReload: onReload, debounce: o.debounce}, nil
}

// Run 阻塞处理文件事件直到 ctx 结束，返回 ctx.Err()。
// 返回时已停止防抖定时器并等待进行中的回调完成，之后不会再有回调。
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stop()
	name := filepath.Base(w.file.path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			// Rename 覆盖原子保存：写临时文件后 rename 到目标名。
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				w.schedule()
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.onReload(w.file, false, fmt.Errorf("xconf: watch error: %w", err))
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.wg.Add(1)
	w.mu.Unlock()
	defer w.wg.Done()

	changed, err := w.file.Reload()
	w.onReload(w.file, changed, err)
}

func (w *Watcher) stop() {
	w.mu.Lock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()
	w.wg.Wait()
	_ = w.fs.Close() //nolint:errcheck // 关闭阶段的错误无处上报
}
