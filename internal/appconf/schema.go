package appconf

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/omeyang/xlogkit/pkg/config/xconf"
	"github.com/omeyang/xlogkit/pkg/observability/xlog"
	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
)

// Sink 类型。
const (
	KindConsole   = "console"
	KindFile      = "file"
	KindMultiFile = "multifile"
	KindHEC       = "hec"
)

// 行格式。
const (
	LayoutText = "text"
	LayoutJSON = "json"
)

// 默认值。
const (
	DefaultKeyAttr  = "tenant"
	DefaultFallback = "default.log"
)

// Size 字节数，可从 "10MB"、"1MiB" 或纯数字解析。
type Size int64

// UnmarshalText 实现 encoding.TextUnmarshaler。
func (s *Size) UnmarshalText(text []byte) error {
	n, err := humanize.ParseBytes(string(text))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidSize, text)
	}
	if n > 1<<62 {
		return fmt.Errorf("%w: %q overflows", ErrInvalidSize, text)
	}
	*s = Size(n)
	return nil
}

// String 返回 IEC 单位的可读形式。
func (s Size) String() string { return humanize.IBytes(uint64(s)) }

// Mode 文件权限。
type Mode os.FileMode

// UnmarshalText 按八进制解析字符串形式的权限。
func (m *Mode) UnmarshalText(text []byte) error {
	v, err := xrotate.ParseFileMode(string(text))
	if err != nil {
		return err
	}
	*m = Mode(v)
	return nil
}

// Rotation 轮转配置，字段与 xrotate 选项一一对应。
type Rotation struct {
	MaxSize    Size   `koanf:"max_size"`
	Backups    *int   `koanf:"backups"`
	Pattern    string `koanf:"pattern"`
	KeepExt    bool   `koanf:"keep_ext"`
	AlwaysDate bool   `koanf:"always_date"`
	Compress   bool   `koanf:"compress"`
	Separator  string `koanf:"separator"`
	Mode       Mode   `koanf:"mode"`
	Encoding   string `koanf:"encoding"`
	Truncate   bool   `koanf:"truncate"`
	LocalTime  bool   `koanf:"local_time"`
	MaxAge     int    `koanf:"max_age"`
	QueueSize  int    `koanf:"queue_size"`
}

// Diagnostics 进程自身诊断日志的配置。File 为空时写 stderr。
type Diagnostics struct {
	Level    string   `koanf:"level"`
	Format   string   `koanf:"format"`
	File     string   `koanf:"file"`
	Rotation Rotation `koanf:"rotation"`
}

// Sink 单个 sink 的配置。
type Sink struct {
	Name   string `koanf:"name"`
	Kind   string `koanf:"kind"`
	Logger string `koanf:"logger"`
	Level  string `koanf:"level"`
	Layout string `koanf:"layout"`

	// file / multifile
	Engine      string        `koanf:"engine"`
	Path        string        `koanf:"path"`
	BaseDir     string        `koanf:"base_dir"`
	KeyAttr     string        `koanf:"key_attr"`
	Fallback    string        `koanf:"fallback"`
	IdleTimeout time.Duration `koanf:"idle_timeout"`
	RemoveColor *bool         `koanf:"remove_color"`
	EOL         string        `koanf:"eol"`
	Rotation    `koanf:",squash"`

	// hec
	URL     string        `koanf:"url"`
	Token   string        `koanf:"token"`
	Index   string        `koanf:"index"`
	Host    string        `koanf:"host"`
	Timeout time.Duration `koanf:"timeout"`

	DrainTimeout time.Duration `koanf:"drain_timeout"`
	Sample       Sampling      `koanf:"sample"`
}

// Process 进程级设置。
type Process struct {
	// MaxOpenFiles 启动时确保的 RLIMIT_NOFILE soft 值，0 表示不调整。
	MaxOpenFiles uint64 `koanf:"max_open_files"`
}

// Config xlogd 的完整配置。
type Config struct {
	Process     Process     `koanf:"process"`
	Diagnostics Diagnostics `koanf:"diagnostics"`
	Sinks       []Sink      `koanf:"sinks"`
}

// Decode 从配置文件的当前快照解码并校验。
func Decode(f *xconf.File) (Config, error) {
	var c Config
	if err := f.Unmarshal("", &c); err != nil {
		return Config{}, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Parse 解码内存中的配置数据并校验。
func Parse(data []byte, format xconf.Format) (Config, error) {
	k, err := xconf.Parse(data, format)
	if err != nil {
		return Config{}, err
	}
	var c Config
	if err := xconf.Unmarshal(k, "", &c); err != nil {
		return Config{}, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Diagnostics.Level == "" {
		c.Diagnostics.Level = "info"
	}
	if c.Diagnostics.Format == "" {
		c.Diagnostics.Format = "text"
	}
	for i := range c.Sinks {
		s := &c.Sinks[i]
		if s.Level == "" {
			s.Level = "info"
		}
		if s.Layout == "" {
			s.Layout = LayoutText
		}
		if s.Kind == KindMultiFile {
			if s.KeyAttr == "" {
				s.KeyAttr = DefaultKeyAttr
			}
			if s.Fallback == "" {
				s.Fallback = DefaultFallback
			}
		}
	}
}

// Validate 检查配置，返回所有问题的合并错误。
func (c Config) Validate() error {
	var errs []error
	if _, err := xlog.ParseLevel(c.Diagnostics.Level); err != nil {
		errs = append(errs, fmt.Errorf("diagnostics.level: %w", err))
	}
	seen := make(map[string]int, len(c.Sinks))
	for i, s := range c.Sinks {
		prefix := fmt.Sprintf("sinks[%d]", i)
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("%s: name is required", prefix))
		} else if j, dup := seen[s.Name]; dup {
			errs = append(errs, fmt.Errorf("%s: name %q already used by sinks[%d]", prefix, s.Name, j))
		} else {
			seen[s.Name] = i
		}
		if err := s.validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", prefix, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (s Sink) validate() error {
	var errs []error
	if _, err := xlog.ParseLevel(s.Level); err != nil {
		errs = append(errs, err)
	}
	switch s.Layout {
	case LayoutText, LayoutJSON:
	default:
		errs = append(errs, fmt.Errorf("unknown layout %q", s.Layout))
	}
	switch s.Engine {
	case "", string(xrotate.KindSync), string(xrotate.KindAsync), string(xrotate.KindLumberjack):
	default:
		errs = append(errs, fmt.Errorf("%w: %q", xrotate.ErrUnknownKind, s.Engine))
	}
	if _, err := s.Sample.Sampler(); err != nil {
		errs = append(errs, err)
	}
	switch s.Kind {
	case KindConsole:
	case KindFile:
		if s.Path == "" {
			errs = append(errs, errors.New("path is required for file sinks"))
		}
	case KindMultiFile:
		if s.BaseDir == "" {
			errs = append(errs, errors.New("base_dir is required for multifile sinks"))
		}
		if s.IdleTimeout < 0 {
			errs = append(errs, errors.New("idle_timeout must not be negative"))
		}
	case KindHEC:
		if s.URL == "" || s.Token == "" {
			errs = append(errs, errors.New("url and token are required for hec sinks"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown kind %q", s.Kind))
	}
	return errors.Join(errs...)
}
