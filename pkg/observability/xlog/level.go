package xlog

import (
	"fmt"
	"log/slog"
	"strings"
)

// Level 日志级别，数值与 slog.Level 一致。
type Level slog.Level

// 日志级别常量
const (
	LevelDebug = Level(slog.LevelDebug)
	LevelInfo  = Level(slog.LevelInfo)
	LevelWarn  = Level(slog.LevelWarn)
	LevelError = Level(slog.LevelError)
)

var _ slog.Leveler = LevelInfo

// Level 实现 slog.Leveler。
func (l Level) Level() slog.Level { return slog.Level(l) }

// String 标准级别返回大写名称，其余委托给 slog（如 "INFO+2"）。
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return slog.Level(l).String()
	}
}

// Enabled 报告 l 是否达到阈值 min。
func (l Level) Enabled(minLevel Level) bool {
	return l >= minLevel
}

// MarshalText 实现 encoding.TextMarshaler。
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler。
func (l *Level) UnmarshalText(data []byte) error {
	parsed, err := ParseLevel(string(data))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel 解析 debug/info/warn/warning/error，大小写不敏感，忽略首尾空白。
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("%w %q", ErrUnknownLevel, s)
	}
}
