package xrotate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildConfig_Defaults(t *testing.T) {
	cfg, err := buildConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), cfg.MaxSize)
	assert.Equal(t, DefaultBackups, cfg.Backups)
	assert.Equal(t, DefaultFileMode, cfg.FileMode)
	assert.Equal(t, DefaultSeparator, cfg.Separator)
	assert.Equal(t, DefaultQueueSize, cfg.QueueSize)
	assert.NotNil(t, cfg.Clock)
	assert.Nil(t, cfg.encoder)
}

func TestBuildConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr error
	}{
		{name: "负 MaxSize", opts: []Option{WithMaxSize(-1)}, wantErr: ErrInvalidMaxSize},
		{name: "Backups 小于 -1", opts: []Option{WithBackups(-2)}, wantErr: ErrInvalidBackups},
		{name: "大小与日期冲突", opts: []Option{WithMaxSize(10), WithDatePattern("2006-01-02")}, wantErr: ErrConflictingPolicy},
		{name: "日期模式无时间元素", opts: []Option{WithDatePattern("daily")}, wantErr: ErrInvalidDatePattern},
		{name: "日期模式含路径分隔符", opts: []Option{WithDatePattern("2006/01/02")}, wantErr: ErrInvalidDatePattern},
		{name: "空分隔符", opts: []Option{WithSeparator("")}, wantErr: ErrInvalidSeparator},
		{name: "路径分隔符", opts: []Option{WithSeparator("/")}, wantErr: ErrInvalidSeparator},
		{name: "非权限位", opts: []Option{WithFileMode(os.ModeDir | 0o644)}, wantErr: ErrInvalidFileMode},
		{name: "未知编码", opts: []Option{WithEncoding("ebcdic")}, wantErr: ErrUnsupportedEncoding},
		{name: "队列大小为 0", opts: []Option{WithQueueSize(0)}, wantErr: ErrInvalidQueueSize},
		{name: "负 MaxAge", opts: []Option{WithMaxAge(-1)}, wantErr: ErrInvalidMaxAge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildConfig(tt.opts)
			assert.ErrorIs(t, err, tt.wantErr)

			_, err = NewFile(filepath.Join(t.TempDir(), "app.log"), tt.opts...)
			assert.ErrorIs(t, err, tt.wantErr, "构造时返回配置错误")
		})
	}
}

func TestBuildConfig_Accepts(t *testing.T) {
	_, err := buildConfig([]Option{
		nil,
		WithBackups(UnlimitedBackups),
		WithDatePattern("2006-01-02T15"),
		WithEncoding("ISO-8859-1"),
		WithClock(nil),
	})
	assert.NoError(t, err)
}

func TestParseFileMode(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    os.FileMode
		wantErr bool
	}{
		{name: "八进制字符串", in: "0644", want: 0o644},
		{name: "无前导零", in: "640", want: 0o640},
		{name: "0o 前缀", in: "0o600", want: 0o600},
		{name: "整数", in: 0o600, want: 0o600},
		{name: "int64", in: int64(420), want: 0o644},
		{name: "JSON 数值", in: float64(384), want: 0o600},
		{name: "FileMode", in: os.FileMode(0o755), want: 0o755},
		{name: "非八进制字符", in: "0689", wantErr: true},
		{name: "超出权限位", in: "1777", wantErr: true},
		{name: "负数", in: -1, wantErr: true},
		{name: "小数", in: 1.5, wantErr: true},
		{name: "不支持的类型", in: true, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFileMode(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFileMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	for _, kind := range []Kind{"", KindSync, KindAsync, KindLumberjack} {
		e, err := Open(kind, filepath.Join(dir, string(kind)+"x.log"))
		require.NoError(t, err, kind)
		require.NoError(t, e.Close())
	}
	_, err := Open("ftp", filepath.Join(dir, "x.log"))
	assert.ErrorIs(t, err, ErrUnknownKind)
}
