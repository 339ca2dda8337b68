package xconf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sinkConf struct {
	Name        string        `koanf:"name"`
	Kind        string        `koanf:"kind"`
	IdleTimeout time.Duration `koanf:"idle_timeout"`
	Backups     int           `koanf:"backups"`
}

const yamlDoc = `
diagnostics:
  level: warn
sinks:
  - name: app
    kind: file
    backups: "3"
  - name: tenants
    kind: multifile
    idle_timeout: 30s
`

const jsonDoc = `{"diagnostics":{"level":"warn"},"sinks":[{"name":"app","kind":"file","backups":3}]}`

func writeConf(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		want    Format
		wantErr bool
	}{
		{"yaml", "a/b.yaml", FormatYAML, false},
		{"yml 大写", "B.YML", FormatYAML, false},
		{"json", "c.json", FormatJSON, false},
		{"toml 不支持", "d.toml", "", true},
		{"无扩展名", "conf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.path)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeConf(t, "xlogd.yaml", yamlDoc)

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, f.Path())
	assert.Equal(t, FormatYAML, f.Format())
	assert.Equal(t, "warn", f.Koanf().String("diagnostics.level"))

	var sinks []sinkConf
	require.NoError(t, f.Unmarshal("sinks", &sinks))
	require.Len(t, sinks, 2)
	assert.Equal(t, 3, sinks[0].Backups, "弱类型转换")
	assert.Equal(t, 30*time.Second, sinks[1].IdleTimeout)
}

func TestLoad_JSON(t *testing.T) {
	f, err := Load(writeConf(t, "xlogd.json", jsonDoc))
	require.NoError(t, err)

	var sinks []sinkConf
	require.NoError(t, f.Unmarshal("sinks", &sinks))
	require.Len(t, sinks, 1)
	assert.Equal(t, "file", sinks[0].Kind)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("空路径", func(t *testing.T) {
		_, err := Load("")
		require.ErrorIs(t, err, ErrEmptyPath)
	})
	t.Run("文件不存在", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.ErrorIs(t, err, ErrLoadFailed)
	})
	t.Run("内容非法", func(t *testing.T) {
		_, err := Load(writeConf(t, "bad.json", "{not json"))
		require.ErrorIs(t, err, ErrParseFailed)
	})
	t.Run("空文件", func(t *testing.T) {
		f, err := Load(writeConf(t, "empty.yaml", ""))
		require.NoError(t, err)
		assert.Empty(t, f.Koanf().Keys())
	})
}

func TestUnmarshal_TypeMismatch(t *testing.T) {
	// 弱类型解码会把 "3" 转成整数，但 "abc" 无法转换
	k, err := Parse([]byte(`{"sinks":[{"name":"x","backups":"abc"}]}`), FormatJSON)
	require.NoError(t, err)

	var sinks []sinkConf
	err = Unmarshal(k, "sinks", &sinks)
	require.ErrorIs(t, err, ErrUnmarshalFailed)
	assert.Contains(t, err.Error(), "backups")
}

func TestParse_UnknownFormat(t *testing.T) {
	_, err := Parse([]byte("a=1"), Format("ini"))
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestWithTag(t *testing.T) {
	type tagged struct {
		Level string `json:"level"`
	}
	k, err := Parse([]byte(jsonDoc), FormatJSON)
	require.NoError(t, err)

	var got tagged
	require.NoError(t, Unmarshal(k, "diagnostics", &got, WithTag("json")))
	assert.Equal(t, "warn", got.Level)
}

func TestWithDelim(t *testing.T) {
	k, err := Parse([]byte(jsonDoc), FormatJSON, WithDelim("/"))
	require.NoError(t, err)
	assert.Equal(t, "warn", k.String("diagnostics/level"))
}

func TestReload(t *testing.T) {
	path := writeConf(t, "xlogd.yaml", "diagnostics:\n  level: info\n")
	f, err := Load(path)
	require.NoError(t, err)
	before := f.Digest()
	old := f.Koanf()

	changed, err := f.Reload()
	require.NoError(t, err)
	assert.False(t, changed, "内容未变")
	assert.Same(t, old, f.Koanf())

	require.NoError(t, os.WriteFile(path, []byte("diagnostics:\n  level: debug\n"), 0o600))
	changed, err = f.Reload()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NotEqual(t, before, f.Digest())
	assert.Equal(t, "debug", f.Koanf().String("diagnostics.level"))
	assert.Equal(t, "info", old.String("diagnostics.level"), "旧快照保持不变")

	require.NoError(t, os.WriteFile(path, []byte("diagnostics: [\n"), 0o600))
	_, err = f.Reload()
	require.ErrorIs(t, err, ErrParseFailed)
	assert.Equal(t, "debug", f.Koanf().String("diagnostics.level"), "失败保留旧快照")
}
