package xconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format 配置格式。
type Format string

// 支持的格式。
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// DetectFormat 根据扩展名判断格式。
func DetectFormat(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, ext)
	}
}

type snapshot struct {
	k      *koanf.Koanf
	digest uint64
}

// File 从磁盘加载的配置。并发安全。
type File struct {
	path   string
	format Format
	opts   options

	reloadMu sync.Mutex
	cur      atomic.Pointer[snapshot]
}

// Load 读取并解析 path 指向的配置文件，格式由扩展名决定。
// 空文件得到空配置。
func Load(path string, opts ...Option) (*File, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	f := &File{path: path, format: format, opts: buildOptions(opts)}
	snap, err := f.read()
	if err != nil {
		return nil, err
	}
	f.cur.Store(snap)
	return f, nil
}

// Parse 解析内存中的配置数据，适用于测试与内嵌默认配置。
func Parse(data []byte, format Format, opts ...Option) (*koanf.Koanf, error) {
	o := buildOptions(opts)
	k := koanf.New(o.delim)
	if len(data) == 0 {
		return k, nil
	}
	if err := loadInto(k, data, format); err != nil {
		return nil, err
	}
	return k, nil
}

func (f *File) read() (*snapshot, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	k, err := Parse(data, f.format, WithDelim(f.opts.delim))
	if err != nil {
		return nil, err
	}
	return &snapshot{k: k, digest: xxhash.Sum64(data)}, nil
}

// Reload 重新读取文件。changed 表示内容摘要是否变化；
// 失败时保留旧快照。
func (f *File) Reload() (changed bool, err error) {
	f.reloadMu.Lock()
	defer f.reloadMu.Unlock()

	snap, err := f.read()
	if err != nil {
		return false, err
	}
	if snap.digest == f.cur.Load().digest {
		return false, nil
	}
	f.cur.Store(snap)
	return true, nil
}

// Koanf 返回当前快照的 koanf 实例。
func (f *File) Koanf() *koanf.Koanf { return f.cur.Load().k }

// Digest 返回当前快照内容的 xxhash 摘要。
func (f *File) Digest() uint64 { return f.cur.Load().digest }

// Path 返回配置文件路径。
func (f *File) Path() string { return f.path }

// Format 返回配置格式。
func (f *File) Format() Format { return f.format }

// Unmarshal 将 path 处的配置反序列化到 target，path 为空表示整个配置。
// 字符串时长（"30s"）与实现 encoding.TextUnmarshaler 的类型会被自动转换。
func (f *File) Unmarshal(path string, target any) error {
	return Unmarshal(f.Koanf(), path, target, WithTag(f.opts.tag))
}

// Unmarshal 对任意 koanf 实例执行与 [File.Unmarshal] 相同的反序列化。
func Unmarshal(k *koanf.Koanf, path string, target any, opts ...Option) error {
	o := buildOptions(opts)
	if err := k.UnmarshalWithConf(path, target, koanf.UnmarshalConf{Tag: o.tag}); err != nil {
		return fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	return nil
}

func loadInto(k *koanf.Koanf, data []byte, format Format) error {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return nil
}
