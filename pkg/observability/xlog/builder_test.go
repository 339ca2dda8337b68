package xlog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
)

func TestBuilder_Defaults(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := New().SetOutput(&buf).Build()
	require.NoError(t, err)
	defer func() { _ = cleanup() }()

	logger.Debug("hidden")
	logger.Info("shown", Sink("app"))
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "sink=app")
}

func TestBuilder_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New().SetOutput(&buf).SetFormat(" JSON ").SetLevelString("debug").Build()
	require.NoError(t, err)

	logger.Debug("roll failed", Err(errors.New("rename")), Path("/tmp/a.log"))
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "DEBUG", rec["level"])
	assert.Equal(t, "rename", rec[KeyError])
	assert.Equal(t, "/tmp/a.log", rec[KeyPath])
}

func TestBuilder_FirstErrorWins(t *testing.T) {
	tests := []struct {
		name string
		b    *Builder
		want error
	}{
		{"未知级别", New().SetLevelString("loud").SetFormat("xml"), ErrUnknownLevel},
		{"未知格式", New().SetFormat("xml").SetLevelString("loud"), ErrUnknownFormat},
		{"nil输出", New().SetOutput(nil), ErrNilOutput},
		{"轮转配置错误", New().SetRotation("", xrotate.WithMaxSize(1)), xrotate.ErrEmptyFilename},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, cleanup, err := tt.b.Build()
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, logger)
			assert.Nil(t, cleanup)
		})
	}
}

func TestBuilder_LevelVar(t *testing.T) {
	var buf bytes.Buffer
	b := New().SetOutput(&buf)
	logger, _, err := b.Build()
	require.NoError(t, err)

	logger.Debug("before")
	b.LevelVar().Set(slog.LevelDebug)
	logger.Debug("after")
	assert.NotContains(t, buf.String(), "before")
	assert.Contains(t, buf.String(), "after")
}

func TestBuilder_ReplaceAttr(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New().SetOutput(&buf).SetReplaceAttr(func(_ []string, a slog.Attr) slog.Attr {
		if a.Key == "token" {
			return slog.String("token", "***")
		}
		return a
	}).Build()
	require.NoError(t, err)

	logger.Info("post", slog.String("token", "secret"))
	assert.Contains(t, buf.String(), "token=***")
	assert.NotContains(t, buf.String(), "secret")
}

func TestBuilder_Rotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "diag.log")

	logger, cleanup, err := New().
		SetAddSource(true).
		SetRotation(path, xrotate.WithMaxSize(200), xrotate.WithBackups(1)).
		Build()
	require.NoError(t, err)

	for range 10 {
		logger.Info("diagnostic line", Component("test"))
	}
	require.NoError(t, cleanup())
	require.NoError(t, cleanup())

	live, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(live), "diagnostic line")
	_, err = os.Stat(path + ".1")
	assert.NoError(t, err)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestBuilder_OnError(t *testing.T) {
	var got []error
	var logger *slog.Logger
	var err error
	logger, _, err = New().SetOutput(failingWriter{}).SetOnError(func(e error) {
		got = append(got, e)
		// 回调内再次记日志不会递归
		logger.Error("nested")
	}).Build()
	require.NoError(t, err)

	logger.Info("first")
	logger.WithGroup("g").With("k", "v").Info("second")
	require.Len(t, got, 2)
	assert.True(t, strings.Contains(got[0].Error(), "disk full"))
}

func TestErrorHandler_PanicIsolated(t *testing.T) {
	logger, _, err := New().SetOutput(failingWriter{}).SetOnError(func(error) { panic("boom") }).Build()
	require.NoError(t, err)
	assert.NotPanics(t, func() { logger.InfoContext(context.Background(), "x") })
	assert.NotPanics(t, func() { logger.InfoContext(context.Background(), "y") })
}

func TestErr_Nil(t *testing.T) {
	assert.True(t, Err(nil).Equal(slog.Attr{}))
	assert.Equal(t, KeyDuration, Duration(0).Key)
	assert.Equal(t, "app:/x", PoolKey("app:/x").Value.String())
	assert.Equal(t, KeyReason, Reason("size").Key)
}
