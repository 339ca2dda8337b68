package xrotate

import (
	"cmp"
	"math"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

const gzExt = ".gz"

// CodecOptions 文件名编解码选项，须与引擎配置一致。
type CodecOptions struct {
	// Separator 各部分之间的分隔符，空值使用 DefaultSeparator
	Separator string

	// DateLayout Go 时间布局，空表示不带日期
	DateLayout string

	KeepFileExt       bool
	AlwaysIncludeDate bool
	Compress          bool

	// Location 解析日期使用的时区，nil 为 UTC
	Location *time.Location
}

// ParsedName 解析后的文件名。
type ParsedName struct {
	// Name 原始 base name
	Name       string
	Index      int
	Compressed bool
	Date       string

	// Timestamp 日期对应的毫秒时间戳，仅 HasTimestamp 时有效
	Timestamp    int64
	HasTimestamp bool
}

// SortKey 排序键：有日期时为时间戳，否则为 -Index（序号越大越旧）。
func (p ParsedName) SortKey() int64 {
	if p.HasTimestamp {
		return p.Timestamp
	}
	return -int64(p.Index)
}

// Codec 主文件与备份文件名的双向映射。
//
// Format 与 Parse 互逆：Format 能产生的每个名字都能被 Parse 还原为相同的
// (Index, Date)；其余输入 Parse 一律返回 false。
type Codec struct {
	dir  string
	name string // 不含扩展名
	ext  string // 含前导 "."
	opts CodecOptions
}

// NewCodec 为 path 创建编解码器。path 应为已解析的绝对路径。
func NewCodec(path string, opts CodecOptions) (*Codec, error) {
	if path == "" {
		return nil, ErrEmptyFilename
	}
	if opts.Separator == "" {
		opts.Separator = DefaultSeparator
	}
	if strings.ContainsAny(opts.Separator, `/\`) {
		return nil, ErrInvalidSeparator
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	// ".env" 这类以点开头且无其他点的文件名整体作为 name
	if name == "" {
		name, ext = base, ""
	}
	return &Codec{dir: filepath.Dir(path), name: name, ext: ext, opts: opts}, nil
}

// Dir 返回文件所在目录。
func (c *Codec) Dir() string { return c.dir }

// Format 返回 (date, index) 对应的绝对路径。
func (c *Codec) Format(date string, index int) string {
	return filepath.Join(c.dir, c.FormatBase(date, index))
}

// FormatBase 返回 (date, index) 对应的 base name。
//
//   - 序号仅在 index > 0 时出现
//   - 日期在 date 非空且 (index > 0 或 AlwaysIncludeDate) 时出现
//   - ".gz" 在 index > 0 且 Compress 时出现，始终位于末尾
func (c *Codec) FormatBase(date string, index int) string {
	var b strings.Builder
	b.WriteString(c.name)
	if !c.opts.KeepFileExt {
		b.WriteString(c.ext)
	}
	if date != "" && (index > 0 || c.opts.AlwaysIncludeDate) {
		b.WriteString(c.opts.Separator)
		b.WriteString(date)
	}
	if index > 0 {
		b.WriteString(c.opts.Separator)
		b.WriteString(strconv.Itoa(index))
	}
	if c.opts.KeepFileExt {
		b.WriteString(c.ext)
	}
	if index > 0 && c.opts.Compress {
		b.WriteString(gzExt)
	}
	return b.String()
}

// Parse 解析目录项 base name。不属于本配置的文件返回 false。
func (c *Codec) Parse(base string) (ParsedName, bool) {
	p := ParsedName{Name: base}
	rest := base

	if strings.HasSuffix(rest, gzExt) {
		if !c.opts.Compress {
			return ParsedName{}, false
		}
		rest = rest[:len(rest)-len(gzExt)]
		p.Compressed = true
	}

	var middle string
	if c.opts.KeepFileExt {
		if len(rest) < len(c.name)+len(c.ext) ||
			!strings.HasPrefix(rest, c.name) || !strings.HasSuffix(rest, c.ext) {
			return ParsedName{}, false
		}
		middle = rest[len(c.name) : len(rest)-len(c.ext)]
	} else {
		head := c.name + c.ext
		if !strings.HasPrefix(rest, head) {
			return ParsedName{}, false
		}
		middle = rest[len(head):]
	}

	if middle == "" {
		// 不带日期的主文件
		if p.Compressed || (c.opts.DateLayout != "" && c.opts.AlwaysIncludeDate) {
			return ParsedName{}, false
		}
		return p, true
	}

	sep := c.opts.Separator
	if !strings.HasPrefix(middle, sep) {
		return ParsedName{}, false
	}
	middle = middle[len(sep):]

	if c.opts.DateLayout == "" {
		idx, ok := parseIndex(middle)
		if !ok {
			return ParsedName{}, false
		}
		p.Index = idx
	} else if !c.parseDated(middle, &p) {
		return ParsedName{}, false
	}

	if p.Compressed != (p.Index > 0 && c.opts.Compress) {
		return ParsedName{}, false
	}
	return p, true
}

// parseDated 解析 "date[sep index]"。带序号的形式优先。
func (c *Codec) parseDated(s string, p *ParsedName) bool {
	sep := c.opts.Separator
	if i := strings.LastIndex(s, sep); i >= 0 {
		if idx, ok := parseIndex(s[i+len(sep):]); ok {
			if ts, ok := c.parseDate(s[:i]); ok {
				p.Index = idx
				p.Date = s[:i]
				p.Timestamp, p.HasTimestamp = ts, true
				return true
			}
		}
	}
	// 带日期的主文件只在 AlwaysIncludeDate 下出现
	if !c.opts.AlwaysIncludeDate {
		return false
	}
	ts, ok := c.parseDate(s)
	if !ok {
		return false
	}
	p.Index = 0
	p.Date = s
	p.Timestamp, p.HasTimestamp = ts, true
	return true
}

// parseDate 要求重新格式化后与原串完全一致。
func (c *Codec) parseDate(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	t, err := time.ParseInLocation(c.opts.DateLayout, s, c.opts.Location)
	if err != nil {
		return 0, false
	}
	if t.In(c.opts.Location).Format(c.opts.DateLayout) != s {
		return 0, false
	}
	return t.UnixMilli(), true
}

// parseIndex 只接受无前导零的正整数。
func parseIndex(s string) (int, bool) {
	if s == "" || len(s) > 9 || s[0] == '0' {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SortOldestFirst 按从旧到新排序。
//
// 有日期的按时间戳升序；同一时间戳内序号越大越旧；
// 不带日期的条目（按大小轮转的备份或主文件）视为最新的一组，组内同样按序号降序。
func SortOldestFirst(names []ParsedName) {
	key := func(p ParsedName) int64 {
		if p.HasTimestamp {
			return p.Timestamp
		}
		return math.MaxInt64
	}
	slices.SortStableFunc(names, func(a, b ParsedName) int {
		if c := cmp.Compare(key(a), key(b)); c != 0 {
			return c
		}
		return cmp.Compare(b.Index, a.Index)
	})
}
