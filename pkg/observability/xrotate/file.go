package xrotate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/omeyang/xlogkit/pkg/util/xfile"

	"golang.org/x/text/encoding"
)

// RollReason 轮转原因
type RollReason string

// 轮转原因取值
const (
	RollBySize   RollReason = "size"
	RollByDate   RollReason = "date"
	RollOnDemand RollReason = "manual"
)

// RollEvent 一次轮转完成后的通知。
type RollEvent struct {
	// Path 轮转前的主文件路径
	Path   string
	Reason RollReason
	Err    error
}

// WithOnRoll 设置轮转完成回调。回调在引擎锁内执行，不得写入同一引擎。
func WithOnRoll(fn func(RollEvent)) Option {
	return func(c *config) {
		c.OnRoll = fn
	}
}

var _ Engine = (*File)(nil)

// File 同步轮转引擎。
type File struct {
	cfg   config
	codec *Codec
	loc   *time.Location

	mu     sync.Mutex
	f      *os.File
	enc    *encoding.Encoder
	size   int64
	bucket string // 当前日期桶，仅按日期轮转时非空

	closed atomic.Bool
}

// NewFile 创建同步轮转引擎。
//
// 路径支持 "~/" 与相对路径；父目录不存在时递归创建。
// 追加模式（默认）下根据已有主文件恢复当前大小和日期桶。
func NewFile(path string, opts ...Option) (*File, error) {
	if path == "" {
		return nil, ErrEmptyFilename
	}
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}
	abs, err := xfile.ResolvePath(path)
	if err != nil {
		return nil, err
	}

	loc := time.UTC
	if cfg.LocalTime {
		loc = time.Local
	}
	codec, err := NewCodec(abs, CodecOptions{
		Separator:         cfg.Separator,
		DateLayout:        cfg.DatePattern,
		KeepFileExt:       cfg.KeepFileExt,
		AlwaysIncludeDate: cfg.AlwaysIncludeDate,
		Compress:          cfg.Compress,
		Location:          loc,
	})
	if err != nil {
		return nil, err
	}

	e := &File{cfg: cfg, codec: codec, loc: loc}
	if cfg.encoder != nil {
		// 目标编码无法表示的字符写成替换字节，不让整行失败
		e.enc = encoding.ReplaceUnsupported(cfg.encoder.NewEncoder())
	}
	if cfg.DatePattern != "" {
		e.bucket = e.bucketAt(cfg.Clock())
		if !cfg.Truncate {
			if info, statErr := os.Stat(e.codec.Format(e.bucket, 0)); statErr == nil {
				e.bucket = e.bucketAt(info.ModTime())
			}
		}
	}
	if err := e.open(cfg.Truncate); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *File) bucketAt(t time.Time) string {
	return t.In(e.loc).Format(e.cfg.DatePattern)
}

// open 打开当前主文件并同步 size。调用方持有 mu 或处于构造阶段。
func (e *File) open(truncate bool) error {
	path := e.codec.Format(e.bucket, 0)
	if err := xfile.EnsureDir(path); err != nil {
		return err
	}
	flag := os.O_WRONLY | os.O_CREATE | os.O_APPEND
	if truncate {
		flag |= os.O_TRUNC
	}
	//#nosec G304 -- 路径已经过 ResolvePath 规范化
	f, err := os.OpenFile(path, flag, e.cfg.FileMode)
	if err != nil {
		return fmt.Errorf("xrotate: open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("xrotate: stat %s: %w", path, err)
	}
	e.f = f
	e.size = info.Size()
	return nil
}

func (e *File) closeFile() error {
	if e.f == nil {
		return nil
	}
	err := e.f.Close()
	e.f = nil
	return err
}

func (e *File) rollReason() (RollReason, bool) {
	if e.cfg.MaxSize > 0 && e.size >= e.cfg.MaxSize {
		return RollBySize, true
	}
	if e.cfg.DatePattern != "" && e.bucketAt(e.cfg.Clock()) != e.bucket {
		return RollByDate, true
	}
	return "", false
}

// Write 写入数据。需要轮转时先完成轮转。
//
// 轮转失败但主文件可用时数据仍会写入，返回 len(p) 和轮转错误。
func (e *File) Write(p []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed.Load() {
		return 0, ErrClosed
	}

	var rollErr error
	if reason, ok := e.rollReason(); ok {
		rollErr = e.roll(reason)
	}
	if e.f == nil {
		if err := e.open(false); err != nil {
			err = errors.Join(rollErr, err)
			reportError(e.cfg.OnError, err)
			return 0, err
		}
	}

	data := p
	if e.enc != nil {
		encoded, err := e.enc.Bytes(p)
		if err != nil {
			err = fmt.Errorf("xrotate: encode to %s: %w", e.cfg.Encoding, err)
			reportError(e.cfg.OnError, err)
			return 0, errors.Join(rollErr, err)
		}
		data = encoded
	}

	n, err := e.f.Write(data)
	e.size += int64(n)
	if err != nil {
		err = fmt.Errorf("xrotate: write %s: %w", e.f.Name(), err)
		reportError(e.cfg.OnError, err)
		if e.enc != nil {
			n = 0
		}
		return n, errors.Join(rollErr, err)
	}
	return len(p), rollErr
}

// Roll 立即轮转。
func (e *File) Roll() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed.Load() {
		return ErrClosed
	}
	return e.roll(RollOnDemand)
}

// roll 关闭句柄、移动备份、重置状态并重新打开主文件。
// 无论中途是否出错，状态都会重置，引擎保持可用。
func (e *File) roll(reason RollReason) error {
	livePath := e.codec.Format(e.bucket, 0)

	var errs []error
	if err := e.closeFile(); err != nil {
		errs = append(errs, fmt.Errorf("xrotate: close %s: %w", livePath, err))
	}
	if err := e.shiftBackups(); err != nil {
		errs = append(errs, err)
	}
	e.size = 0
	if e.cfg.DatePattern != "" {
		e.bucket = e.bucketAt(e.cfg.Clock())
	}
	if err := e.open(false); err != nil {
		errs = append(errs, err)
	}

	err := errors.Join(errs...)
	reportError(e.cfg.OnError, err)
	if e.cfg.OnRoll != nil {
		e.cfg.OnRoll(RollEvent{Path: livePath, Reason: reason, Err: err})
	}
	return err
}

// Reopen 关闭并重新打开主文件，不轮转。
func (e *File) Reopen() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed.Load() {
		return ErrClosed
	}
	var errs []error
	if err := e.closeFile(); err != nil && !errors.Is(err, fs.ErrClosed) {
		errs = append(errs, err)
	}
	if err := e.open(false); err != nil {
		errs = append(errs, err)
	}
	err := errors.Join(errs...)
	reportError(e.cfg.OnError, err)
	return err
}

// Filename 返回当前主文件路径。
func (e *File) Filename() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.codec.Format(e.bucket, 0)
}

// Size 返回当前主文件已写入的字节数。
func (e *File) Size() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.size
}

// Close 关闭引擎。重复调用返回 [ErrClosed]。
func (e *File) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed.Swap(true) {
		return ErrClosed
	}
	return e.closeFile()
}
