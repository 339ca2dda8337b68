package xlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
)

// ReplaceAttrFunc 属性替换函数，返回空 Key 的 Attr 表示移除。
type ReplaceAttrFunc func(groups []string, a slog.Attr) slog.Attr

// Builder 诊断日志构建器。
type Builder struct {
	output      io.Writer
	levelVar    *slog.LevelVar
	format      string
	addSource   bool
	replaceAttr ReplaceAttrFunc
	rotator     xrotate.Engine
	onError     func(error)
	err         error
}

// New 创建构建器：stderr、INFO、text 格式。
func New() *Builder {
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelInfo)
	return &Builder{
		output:   os.Stderr,
		levelVar: levelVar,
		format:   "text",
	}
}

func (b *Builder) setErr(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// SetOutput 设置输出目标。
func (b *Builder) SetOutput(w io.Writer) *Builder {
	if w == nil {
		return b.setErr(ErrNilOutput)
	}
	b.output = w
	return b
}

// SetLevel 设置日志级别。
func (b *Builder) SetLevel(level Level) *Builder {
	b.levelVar.Set(slog.Level(level))
	return b
}

// SetLevelString 通过字符串设置日志级别。
func (b *Builder) SetLevelString(s string) *Builder {
	level, err := ParseLevel(s)
	if err != nil {
		return b.setErr(err)
	}
	return b.SetLevel(level)
}

// SetFormat 设置输出格式 text 或 json，空值视为 text。
func (b *Builder) SetFormat(format string) *Builder {
	normalized := strings.ToLower(strings.TrimSpace(format))
	switch normalized {
	case "":
		b.format = "text"
	case "text", "json":
		b.format = normalized
	default:
		return b.setErr(fmt.Errorf("%w %q", ErrUnknownFormat, format))
	}
	return b
}

// SetAddSource 是否输出源码位置。
func (b *Builder) SetAddSource(enable bool) *Builder {
	b.addSource = enable
	return b
}

// SetReplaceAttr 设置属性替换函数，用于脱敏或字段重命名。
func (b *Builder) SetReplaceAttr(fn ReplaceAttrFunc) *Builder {
	b.replaceAttr = fn
	return b
}

// SetOnError 设置写入失败回调，也会作为轮转引擎的 OnError。
// 回调在写日志的 goroutine 中同步执行，应保持轻量。
func (b *Builder) SetOnError(fn func(error)) *Builder {
	b.onError = fn
	return b
}

// SetRotation 将输出切换到同步轮转引擎。
// 多次调用时先前创建的引擎会被关闭。
func (b *Builder) SetRotation(filename string, opts ...xrotate.Option) *Builder {
	if b.err != nil {
		return b
	}
	// 用户的 OnError 放在最前，显式的 WithOnError 仍可覆盖
	all := make([]xrotate.Option, 0, len(opts)+1)
	all = append(all, xrotate.WithOnError(b.callOnError))
	all = append(all, opts...)
	engine, err := xrotate.NewFile(filename, all...)
	if err != nil {
		return b.setErr(err)
	}
	if b.rotator != nil {
		_ = b.rotator.Close()
	}
	b.rotator = engine
	b.output = engine
	return b
}

// callOnError 延迟读取 onError，允许 SetOnError 在 SetRotation 之后调用。
func (b *Builder) callOnError(err error) {
	if fn := b.onError; fn != nil {
		fn(err)
	}
}

// LevelVar 返回构建出的 logger 共享的级别变量，可用于热更新。
func (b *Builder) LevelVar() *slog.LevelVar {
	return b.levelVar
}

// Build 构建 logger，返回的 cleanup 幂等，用于关闭轮转文件。
func (b *Builder) Build() (*slog.Logger, func() error, error) {
	if b.err != nil {
		if b.rotator != nil {
			_ = b.rotator.Close()
		}
		return nil, nil, b.err
	}

	opts := &slog.HandlerOptions{
		Level:       b.levelVar,
		AddSource:   b.addSource,
		ReplaceAttr: b.replaceAttr,
	}
	var handler slog.Handler
	switch b.format {
	case "json":
		handler = slog.NewJSONHandler(b.output, opts)
	default:
		handler = slog.NewTextHandler(b.output, opts)
	}
	// 轮转引擎自己会上报写入失败
	if b.rotator == nil {
		handler = newErrorHandler(handler, b.onError)
	}

	return slog.New(handler), b.cleanup(), nil
}

func (b *Builder) cleanup() func() error {
	var once sync.Once
	rotator := b.rotator
	return func() error {
		var err error
		once.Do(func() {
			if rotator != nil {
				err = rotator.Close()
			}
		})
		return err
	}
}
