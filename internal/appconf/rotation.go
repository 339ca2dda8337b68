package appconf

import (
	"os"

	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
	"github.com/omeyang/xlogkit/pkg/observability/xsink"
)

// Options 把轮转配置转换为 xrotate 选项。
// MaxSize 为 0 时使用 xsink.DefaultMaxSize，Backups 省略时使用 xsink.DefaultBackups；
// 未设置的其余字段保持 xrotate 的默认值。
func (r Rotation) Options() []xrotate.Option {
	maxSize := int64(r.MaxSize)
	if maxSize == 0 {
		maxSize = xsink.DefaultMaxSize
	}
	backups := xsink.DefaultBackups
	if r.Backups != nil {
		backups = *r.Backups
	}
	opts := []xrotate.Option{
		xrotate.WithMaxSize(maxSize),
		xrotate.WithBackups(backups),
		xrotate.WithKeepFileExt(r.KeepExt),
		xrotate.WithAlwaysIncludeDate(r.AlwaysDate),
		xrotate.WithCompress(r.Compress),
		xrotate.WithTruncate(r.Truncate),
		xrotate.WithLocalTime(r.LocalTime),
	}
	if r.Pattern != "" {
		opts = append(opts, xrotate.WithDatePattern(r.Pattern))
	}
	if r.Separator != "" {
		opts = append(opts, xrotate.WithSeparator(r.Separator))
	}
	if r.Mode != 0 {
		opts = append(opts, xrotate.WithFileMode(os.FileMode(r.Mode)))
	}
	if r.Encoding != "" {
		opts = append(opts, xrotate.WithEncoding(r.Encoding))
	}
	if r.MaxAge > 0 {
		opts = append(opts, xrotate.WithMaxAge(r.MaxAge))
	}
	if r.QueueSize > 0 {
		opts = append(opts, xrotate.WithQueueSize(r.QueueSize))
	}
	return opts
}
