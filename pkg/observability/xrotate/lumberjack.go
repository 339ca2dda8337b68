package xrotate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"

	"github.com/omeyang/xlogkit/pkg/util/xfile"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	bytesPerMB = 1 << 20

	// DefaultLumberjackMaxSize lumberjack 引擎未指定 MaxSize 时的默认值
	DefaultLumberjackMaxSize = 100 * bytesPerMB
)

var _ Engine = (*Lumberjack)(nil)

// Lumberjack 基于 lumberjack v2 的按大小轮转引擎。
//
// 与 [File] 的差异：
//   - MaxSize 以 MB 为粒度（向上取整）
//   - 备份名为 "app-2006-01-02T15-04-05.000.log"，不经过 [Codec]
//   - 支持 WithMaxAge 按天数清理；不支持日期轮转与 Backups=0
//   - lumberjack 以 0600 新建文件，其他权限通过 chmod 调整
type Lumberjack struct {
	logger   *lumberjack.Logger
	path     string
	fileMode os.FileMode
	onError  func(error)

	mu          sync.Mutex // 保护 Stat+Chmod
	modeApplied atomic.Bool
	closed      atomic.Bool
}

// NewLumberjack 创建 lumberjack 引擎。
func NewLumberjack(path string, opts ...Option) (*Lumberjack, error) {
	if path == "" {
		return nil, ErrEmptyFilename
	}
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}
	if cfg.DatePattern != "" {
		return nil, fmt.Errorf("%w: lumberjack engine rotates by size only", ErrConflictingPolicy)
	}
	if cfg.Backups == 0 {
		return nil, fmt.Errorf("%w: lumberjack engine requires at least one backup", ErrInvalidBackups)
	}
	abs, err := xfile.ResolvePath(path)
	if err != nil {
		return nil, err
	}
	if err := xfile.EnsureDir(abs); err != nil {
		return nil, err
	}

	maxSize := cfg.MaxSize
	if maxSize == 0 {
		maxSize = DefaultLumberjackMaxSize
	}
	backups := cfg.Backups
	if backups == UnlimitedBackups {
		backups = 0
	}

	return &Lumberjack{
		logger: &lumberjack.Logger{
			Filename:   abs,
			MaxSize:    int((maxSize + bytesPerMB - 1) / bytesPerMB),
			MaxBackups: backups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
			LocalTime:  cfg.LocalTime,
		},
		path:     abs,
		fileMode: cfg.FileMode,
		onError:  cfg.OnError,
	}, nil
}

// Write 实现 io.Writer。
func (l *Lumberjack) Write(p []byte) (int, error) {
	if l.closed.Load() {
		return 0, ErrClosed
	}
	n, err := l.logger.Write(p)
	if err != nil {
		// Close 可能在 logger.Write 期间完成
		if l.closed.Load() {
			return n, ErrClosed
		}
		reportError(l.onError, err)
		return n, err
	}
	if !l.modeApplied.Load() {
		reportError(l.onError, l.ensureFileMode())
	}
	return n, nil
}

// ensureFileMode 权限调整尽力而为，不影响写入结果。
func (l *Lumberjack) ensureFileMode() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	info, err := os.Stat(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if info.Mode().Perm() != l.fileMode {
		//#nosec G302 -- 日志文件权限由调用方配置决定
		if err := os.Chmod(l.path, l.fileMode); err != nil {
			return err
		}
	}
	l.modeApplied.Store(true)
	return nil
}

// Roll 手动触发轮转。
func (l *Lumberjack) Roll() error {
	if l.closed.Load() {
		return ErrClosed
	}
	if err := l.logger.Rotate(); err != nil {
		if l.closed.Load() {
			return ErrClosed
		}
		reportError(l.onError, err)
		return err
	}
	// 轮转后的新文件以 lumberjack 默认权限创建
	l.modeApplied.Store(false)
	reportError(l.onError, l.ensureFileMode())
	return nil
}

// Reopen 关闭当前句柄，下一次写入时 lumberjack 重新打开主文件。
func (l *Lumberjack) Reopen() error {
	if l.closed.Load() {
		return ErrClosed
	}
	l.modeApplied.Store(false)
	return l.logger.Close()
}

// Filename 返回主文件路径。
func (l *Lumberjack) Filename() string { return l.path }

// Close 关闭引擎，重复调用返回 [ErrClosed]。
func (l *Lumberjack) Close() error {
	if l.closed.Swap(true) {
		return ErrClosed
	}
	return l.logger.Close()
}
