package xsink

import (
	"context"
	"errors"
	"log/slog"
	"regexp"

	"github.com/omeyang/xlogkit/pkg/observability/xdrain"
	"github.com/omeyang/xlogkit/pkg/observability/xlog"
	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
)

// ansiColor 匹配 SGR 颜色序列，如 "\x1b[31m"、"\x1b[1;32m"、"\x1b[0m"。
var ansiColor = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// File 写入单个轮转文件的 sink。
type File struct {
	base
	engine      xrotate.Engine
	async       *xrotate.AsyncFile
	removeColor bool
	eol         string
	unregister  func()

	// engineClosed 在引擎关闭完成后关闭
	engineClosed chan struct{}
}

var _ Sink[string] = (*File)(nil)

// NewFile 创建文件 sink。父目录不存在时递归创建。
func NewFile(name, path string, opts ...Option) (*File, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if path == "" {
		return nil, ErrEmptyPath
	}
	o := buildOptions(opts)
	return newFile(name, path, &o)
}

func newFile(name, path string, o *options) (*File, error) {
	f := &File{
		base:        newBase(name, "xsink.file", o),
		removeColor: o.removeColor,
		eol:         o.eol,
		unregister:  func() {},

		engineClosed: make(chan struct{}),
	}

	rotate := o.rotate
	if rotate == nil {
		rotate = []xrotate.Option{
			xrotate.WithMaxSize(DefaultMaxSize),
			xrotate.WithBackups(DefaultBackups),
		}
	}
	all := make([]xrotate.Option, 0, len(rotate)+1)
	all = append(all, rotate...)
	all = append(all, xrotate.WithOnRoll(f.onRoll))

	engine, err := xrotate.Open(o.engine, path, all...)
	if err != nil {
		return nil, err
	}
	f.engine = engine
	f.async, _ = engine.(*xrotate.AsyncFile)

	if o.reloader != nil {
		unregister, err := o.reloader.Register(name, f)
		if err != nil {
			_ = engine.Close()
			return nil, err
		}
		f.unregister = unregister
	}
	return f, nil
}

// onRoll 由引擎在轮转后调用，持有引擎锁，不能回写引擎。
func (f *File) onRoll(ev xrotate.RollEvent) {
	ctx := context.Background()
	f.rec.RecordRoll(ctx, f.name, string(ev.Reason), ev.Err)
	if ev.Err != nil {
		f.report(ctx, "rotation failed", ev.Err, xlog.Path(ev.Path), xlog.Reason(string(ev.Reason)))
		return
	}
	f.logger.LogAttrs(ctx, slog.LevelDebug, "rotated log file",
		xlog.Component(f.component), xlog.Sink(f.name), xlog.Path(ev.Path), xlog.Reason(string(ev.Reason)))
}

func (f *File) format(line string) []byte {
	if f.removeColor {
		line = ansiColor.ReplaceAllString(line, "")
	}
	return []byte(line + f.eol)
}

// Dispatch 写入一行。
func (f *File) Dispatch(ctx context.Context, line string) {
	if err := f.dispatch(ctx, line); errors.Is(err, xdrain.ErrDraining) {
		f.logger.LogAttrs(ctx, slog.LevelDebug, "dropped line after shutdown",
			xlog.Component(f.component), xlog.Sink(f.name))
	}
}

// dispatch 仅在 sink 已开始排空时返回 xdrain.ErrDraining，写入错误在内部记录。
func (f *File) dispatch(ctx context.Context, line string) error {
	op, err := f.tracker.Begin()
	if err != nil {
		return err
	}
	data := f.format(line)

	if f.async != nil {
		// 异步写入完成前操作保持活跃，排空会等待它
		ch := f.async.WriteAsync(data)
		go func() {
			err := <-ch
			n := len(data)
			if err != nil {
				n = 0
			}
			f.afterWrite(ctx, n, err)
			op.Done(err)
		}()
		return nil
	}

	n, err := f.engine.Write(data)
	if err != nil && n == len(data) {
		// 轮转失败但数据已写入，错误已由 onRoll 上报
		err = nil
	}
	op.Done(err)
	f.afterWrite(ctx, n, err)
	return nil
}

func (f *File) afterWrite(ctx context.Context, n int, err error) {
	f.rec.RecordWrite(ctx, f.name, n, err)
	if err != nil {
		f.report(ctx, "file write failed", err, xlog.Path(f.engine.Filename()))
	}
}

// Reopen 重新打开主文件，用于 SIGHUP。
func (f *File) Reopen() error {
	return f.engine.Reopen()
}

// Roll 立即轮转。
func (f *File) Roll() error {
	return f.engine.Roll()
}

// Filename 返回当前主文件路径。
func (f *File) Filename() string {
	return f.engine.Filename()
}

// Shutdown 排空后注销 SIGHUP 并关闭引擎。
//
// 排空上限到达时若仍有写入在途，引擎锁或队列被它占用，
// 此时引擎在后台关闭，Shutdown 不再等待。
func (f *File) Shutdown(ctx context.Context) error {
	return f.drain(ctx, func(error) error {
		f.unregister()
		if f.tracker.Active() == 0 {
			defer close(f.engineClosed)
			return f.engine.Close()
		}
		go func() {
			defer close(f.engineClosed)
			if err := f.engine.Close(); err != nil && !errors.Is(err, xrotate.ErrClosed) {
				f.report(context.Background(), "close after drain ceiling failed", err)
			}
		}()
		return nil
	})
}
