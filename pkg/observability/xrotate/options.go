package xrotate

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// 默认配置值
const (
	// DefaultBackups 默认保留的备份数量
	DefaultBackups = 5

	// DefaultFileMode 默认文件权限
	DefaultFileMode os.FileMode = 0o600

	// DefaultSeparator 默认文件名分隔符
	DefaultSeparator = "."

	// DefaultEncoding 默认文本编码
	DefaultEncoding = "utf-8"

	// DefaultQueueSize 异步引擎默认队列大小
	DefaultQueueSize = 1024

	// UnlimitedBackups 表示不限制备份数量
	UnlimitedBackups = -1
)

// config 引擎配置，构造后不可变。
type config struct {
	// MaxSize 单文件最大字节数，0 表示不按大小轮转
	MaxSize int64

	// Backups 备份数量：0 不保留（轮转时截断主文件），N>0 最多 N 个，
	// UnlimitedBackups 不限
	Backups int

	// DatePattern Go 时间布局，非空时按日期轮转
	DatePattern string

	AlwaysIncludeDate bool
	KeepFileExt       bool
	Compress          bool

	// Truncate 为 true 时启动截断主文件；默认追加并根据现有文件恢复状态
	Truncate bool

	// LocalTime 日期桶按本地时间计算，默认 UTC
	LocalTime bool

	Separator string
	FileMode  os.FileMode
	Encoding  string

	// MaxAgeDays 仅 lumberjack 引擎使用
	MaxAgeDays int

	// QueueSize 仅异步引擎使用
	QueueSize int

	Clock func() time.Time

	// OnError 运行期错误回调。不得向同一引擎写入数据，否则会死锁。
	OnError func(error)

	// OnRoll 轮转完成回调
	OnRoll func(RollEvent)

	encoder encoding.Encoding
}

func defaultConfig() config {
	return config{
		Backups:   DefaultBackups,
		Separator: DefaultSeparator,
		FileMode:  DefaultFileMode,
		Encoding:  DefaultEncoding,
		QueueSize: DefaultQueueSize,
		Clock:     time.Now,
	}
}

// Option 引擎配置选项函数
type Option func(*config)

// WithMaxSize 设置单文件最大字节数，0 关闭按大小轮转。
func WithMaxSize(bytes int64) Option {
	return func(c *config) {
		c.MaxSize = bytes
	}
}

// WithBackups 设置备份数量。n 为 [UnlimitedBackups] 时不限。
func WithBackups(n int) Option {
	return func(c *config) {
		c.Backups = n
	}
}

// WithDatePattern 设置日期轮转模式（Go 时间布局，如 "2006-01-02"）。
// 不能与 WithMaxSize(>0) 同时使用。
func WithDatePattern(layout string) Option {
	return func(c *config) {
		c.DatePattern = layout
	}
}

// WithAlwaysIncludeDate 主文件名也带上当前日期。
func WithAlwaysIncludeDate(v bool) Option {
	return func(c *config) {
		c.AlwaysIncludeDate = v
	}
}

// WithKeepFileExt 备份名把日期和序号放在扩展名之前。
func WithKeepFileExt(v bool) Option {
	return func(c *config) {
		c.KeepFileExt = v
	}
}

// WithSeparator 设置文件名各部分之间的分隔符。
func WithSeparator(sep string) Option {
	return func(c *config) {
		c.Separator = sep
	}
}

// WithFileMode 设置新建文件权限。
func WithFileMode(mode os.FileMode) Option {
	return func(c *config) {
		c.FileMode = mode
	}
}

// WithEncoding 设置写入文件的文本编码：utf-8、latin1（iso-8859-1）、utf-16le、utf-16be。
func WithEncoding(name string) Option {
	return func(c *config) {
		c.Encoding = name
	}
}

// WithCompress 备份使用 gzip 压缩。
func WithCompress(v bool) Option {
	return func(c *config) {
		c.Compress = v
	}
}

// WithTruncate 启动时截断主文件，而不是追加。
func WithTruncate(v bool) Option {
	return func(c *config) {
		c.Truncate = v
	}
}

// WithLocalTime 日期桶使用本地时间。
func WithLocalTime(v bool) Option {
	return func(c *config) {
		c.LocalTime = v
	}
}

// WithMaxAge 设置 lumberjack 引擎保留备份的天数。
func WithMaxAge(days int) Option {
	return func(c *config) {
		c.MaxAgeDays = days
	}
}

// WithQueueSize 设置异步引擎的队列大小。
func WithQueueSize(n int) Option {
	return func(c *config) {
		c.QueueSize = n
	}
}

// WithClock 注入时钟，nil 被忽略。
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.Clock = now
		}
	}
}

// WithOnError 设置运行期错误回调。
//
// 引擎自身从不写日志：它可能就是日志的输出目标。回调 panic 会被 recover。
func WithOnError(fn func(error)) Option {
	return func(c *config) {
		c.OnError = fn
	}
}

func buildConfig(opts []Option) (config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := validateConfig(&cfg); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg *config) error {
	if cfg.MaxSize < 0 {
		return fmt.Errorf("%w: got %d, want >= 0", ErrInvalidMaxSize, cfg.MaxSize)
	}
	if cfg.Backups < UnlimitedBackups {
		return fmt.Errorf("%w: got %d, want >= 0 or UnlimitedBackups", ErrInvalidBackups, cfg.Backups)
	}
	if cfg.DatePattern != "" {
		if cfg.MaxSize > 0 {
			return fmt.Errorf("%w: MaxSize=%d with DatePattern=%q", ErrConflictingPolicy, cfg.MaxSize, cfg.DatePattern)
		}
		if err := validateDatePattern(cfg.DatePattern); err != nil {
			return err
		}
	}
	if cfg.Separator == "" || strings.ContainsAny(cfg.Separator, `/\`) || strings.ContainsRune(cfg.Separator, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidSeparator, cfg.Separator)
	}
	if cfg.FileMode&^os.FileMode(0o777) != 0 {
		return fmt.Errorf("%w: got %04o, only permission bits (0000~0777) allowed", ErrInvalidFileMode, cfg.FileMode)
	}
	if cfg.MaxAgeDays < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxAge, cfg.MaxAgeDays)
	}
	if cfg.QueueSize < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidQueueSize, cfg.QueueSize)
	}
	enc, err := lookupEncoding(cfg.Encoding)
	if err != nil {
		return err
	}
	cfg.encoder = enc
	return nil
}

// validateDatePattern 要求布局至少包含一个随时间变化的元素，且输出不含路径分隔符。
func validateDatePattern(layout string) error {
	a := time.Date(2001, 2, 3, 4, 5, 6, 0, time.UTC)
	b := time.Date(2012, 11, 24, 15, 36, 47, 0, time.UTC)
	fa, fb := a.Format(layout), b.Format(layout)
	if fa == fb {
		return fmt.Errorf("%w: %q has no time element", ErrInvalidDatePattern, layout)
	}
	if strings.ContainsAny(fa, `/\`) || strings.ContainsAny(fb, `/\`) {
		return fmt.Errorf("%w: %q produces path separators", ErrInvalidDatePattern, layout)
	}
	if _, err := time.Parse(layout, fa); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidDatePattern, layout, err)
	}
	return nil
}

// lookupEncoding 返回 nil 表示 UTF-8 直写。
func lookupEncoding(name string) (encoding.Encoding, error) {
	norm := strings.NewReplacer("-", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(name)))
	switch norm {
	case "", "utf8":
		return nil, nil
	case "latin1", "iso88591", "binary":
		return charmap.ISO8859_1, nil
	case "utf16le", "ucs2":
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), nil
	case "utf16be":
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, name)
	}
}

// ParseFileMode 解析配置中的文件权限。
//
// 字符串按八进制解析（"0644"、"644"、"0o644"），整数按数值解析；
// 从 JSON 解码得到的整数值 float64 也被接受。
func ParseFileMode(v any) (os.FileMode, error) {
	var n uint64
	switch x := v.(type) {
	case os.FileMode:
		n = uint64(x)
	case string:
		s := strings.TrimSpace(x)
		s = strings.TrimPrefix(strings.TrimPrefix(s, "0o"), "0O")
		u, err := strconv.ParseUint(s, 8, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidFileMode, x)
		}
		n = u
	case int:
		if x < 0 {
			return 0, fmt.Errorf("%w: %d", ErrInvalidFileMode, x)
		}
		n = uint64(x)
	case int64:
		if x < 0 {
			return 0, fmt.Errorf("%w: %d", ErrInvalidFileMode, x)
		}
		n = uint64(x)
	case uint32:
		n = uint64(x)
	case uint64:
		n = x
	case float64:
		if x < 0 || x != math.Trunc(x) {
			return 0, fmt.Errorf("%w: %v", ErrInvalidFileMode, x)
		}
		n = uint64(x)
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidFileMode, v)
	}
	if n&^0o777 != 0 {
		return 0, fmt.Errorf("%w: got %04o, only permission bits (0000~0777) allowed", ErrInvalidFileMode, n)
	}
	return os.FileMode(n), nil
}
