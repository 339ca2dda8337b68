package xsink

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
)

// textTimeLayout 文本行的时间格式，固定毫秒位数便于对齐。
const textTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// TextLine 将事件格式化为单行文本：
//
//	[2026-01-02T03:04:05.000Z] [INFO] app - started port=8080
func TextLine(ev xlog.Event) string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(ev.Time.Format(textTimeLayout))
	b.WriteString("] [")
	b.WriteString(ev.Level.String())
	b.WriteString("] ")
	b.WriteString(ev.Logger)
	b.WriteString(" - ")
	b.WriteString(ev.Message)
	for _, a := range ev.Attrs {
		writeTextAttr(&b, "", a)
	}
	return b.String()
}

func writeTextAttr(b *strings.Builder, prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	key := a.Key
	if prefix != "" && key != "" {
		key = prefix + "." + key
	} else if key == "" {
		key = prefix
	}
	if v.Kind() == slog.KindGroup {
		for _, ga := range v.Group() {
			writeTextAttr(b, key, ga)
		}
		return
	}
	if key == "" {
		return
	}
	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteByte('=')
	s := v.String()
	if strings.ContainsAny(s, " \t\n\"=") || s == "" {
		s = fmt.Sprintf("%q", s)
	}
	b.WriteString(s)
}

type jsonLine struct {
	Time    string         `json:"time"`
	Level   string         `json:"level"`
	Logger  string         `json:"logger"`
	Message string         `json:"msg"`
	Attrs   map[string]any `json:"attrs,omitempty"`
}

// JSONLine 将事件编码为单行 JSON。属性值无法编码时退化为字符串形式。
func JSONLine(ev xlog.Event) string {
	line := jsonLine{
		Time:    ev.Time.Format(time.RFC3339Nano),
		Level:   ev.Level.String(),
		Logger:  ev.Logger,
		Message: ev.Message,
	}
	if len(ev.Attrs) > 0 {
		line.Attrs = ev.AttrMap()
	}
	out, err := json.Marshal(line)
	if err != nil {
		line.Attrs = map[string]any{"!BADATTRS": fmt.Sprint(line.Attrs)}
		out, _ = json.Marshal(line)
	}
	return string(out)
}

// HECTransform 返回把事件转换为 HECEvent 的函数，source 取生产者名称。
func HECTransform(host, index string) func(xlog.Event) HECEvent {
	return func(ev xlog.Event) HECEvent {
		payload := map[string]any{
			"level":   ev.Level.String(),
			"message": ev.Message,
		}
		if len(ev.Attrs) > 0 {
			payload["attrs"] = ev.AttrMap()
		}
		return HECEvent{
			Time:       float64(ev.Time.UnixMilli()) / 1000,
			Host:       host,
			Source:     ev.Logger,
			SourceType: "_json",
			Index:      index,
			Event:      payload,
		}
	}
}

// EntryTransform 返回把事件路由到 MultiFile 的转换函数。
// 文件 key 取顶层属性 keyAttr 的值加 ".log"，属性缺失或为空时使用 fallback；
// 行内容由 layout 生成。
func EntryTransform(keyAttr, fallback string, layout func(xlog.Event) string) func(xlog.Event) Entry {
	return func(ev xlog.Event) Entry {
		key := fallback
		for _, a := range ev.Attrs {
			if a.Key == keyAttr {
				if v := a.Value.Resolve().String(); v != "" {
					key = v + ".log"
				}
				break
			}
		}
		return Entry{Key: key, Data: layout(ev)}
	}
}
