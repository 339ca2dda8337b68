package xlog

import (
	"log/slog"
	"time"
)

// Event 一条业务日志事件，由生产者发布、经总线路由到各 sink。
type Event struct {
	Time    time.Time
	Level   Level
	Logger  string // 生产者名称，用于路由
	Message string
	Attrs   []slog.Attr
}

// AttrMap 将属性展开为 map，分组展开为嵌套 map，LogValuer 会被解析。
// 空 key 的属性被忽略，与 slog 一致。
func (e Event) AttrMap() map[string]any {
	return attrsToMap(e.Attrs)
}

func attrsToMap(attrs []slog.Attr) map[string]any {
	m := make(map[string]any, len(attrs))
	for _, a := range attrs {
		v := a.Value.Resolve()
		if v.Kind() == slog.KindGroup {
			sub := attrsToMap(v.Group())
			if len(sub) == 0 {
				continue
			}
			// 空 key 的分组内联到上层
			if a.Key == "" {
				for k, sv := range sub {
					m[k] = sv
				}
				continue
			}
			// 同名分组合并，slog handler 的 WithGroup 与记录属性会产生这种情况
			if prev, ok := m[a.Key].(map[string]any); ok {
				for k, sv := range sub {
					prev[k] = sv
				}
				continue
			}
			m[a.Key] = sub
			continue
		}
		if a.Key == "" {
			continue
		}
		switch v.Kind() {
		case slog.KindTime:
			m[a.Key] = v.Time().Format(time.RFC3339Nano)
		case slog.KindDuration:
			m[a.Key] = v.Duration().String()
		case slog.KindAny:
			if err, ok := v.Any().(error); ok {
				m[a.Key] = err.Error()
				continue
			}
			m[a.Key] = v.Any()
		default:
			m[a.Key] = v.Any()
		}
	}
	return m
}
