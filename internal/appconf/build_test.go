package appconf

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xlogkit/pkg/config/xconf"
	"github.com/omeyang/xlogkit/pkg/lifecycle/xrun"
	"github.com/omeyang/xlogkit/pkg/observability/xbus"
	"github.com/omeyang/xlogkit/pkg/observability/xlog"
	"github.com/omeyang/xlogkit/pkg/observability/xsink"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func fixedClock() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }

func mustParse(t *testing.T, doc string) Config {
	t.Helper()
	cfg, err := Parse([]byte(doc), xconf.FormatYAML)
	require.NoError(t, err)
	return cfg
}

func TestBuild_NilBus(t *testing.T) {
	require.ErrorIs(t, Build(Config{}, nil, Deps{}), ErrNilBus)
}

func TestBuild_RoutesEvents(t *testing.T) {
	dir := t.TempDir()
	cfg := mustParse(t, `
sinks:
  - name: out
    kind: console
    level: warn
  - name: app
    kind: file
    logger: app
    level: debug
    layout: json
    path: `+filepath.Join(dir, "app.log")+`
  - name: tenants
    kind: multifile
    base_dir: `+filepath.Join(dir, "tenants")+`
`)
	console := &lockedBuffer{}
	bus := xbus.New(xbus.WithClock(fixedClock))
	require.NoError(t, Build(cfg, bus, Deps{Console: console}))
	assert.Equal(t, []string{"out", "app", "tenants"}, bus.Sinks())

	ctx := context.Background()
	app := bus.Logger("app")
	app.Debug(ctx, "cache warm")
	app.Warn(ctx, "slow disk", slog.String("tenant", "acme"))
	bus.Logger("worker").Info(ctx, "job done")
	require.NoError(t, bus.Shutdown(ctx))

	assert.Equal(t, "[2026-03-04T05:06:07.000Z] [WARN] app - slow disk tenant=acme\n", console.String())

	appLines := strings.Split(strings.TrimSpace(readFile(t, filepath.Join(dir, "app.log"))), "\n")
	require.Len(t, appLines, 2, "app sink 只接收 app 的事件")
	assert.Contains(t, appLines[0], `"msg":"cache warm"`)

	assert.Contains(t, readFile(t, filepath.Join(dir, "tenants", "acme.log")), "slow disk")
	assert.Contains(t, readFile(t, filepath.Join(dir, "tenants", DefaultFallback)), "job done")
}

func TestBuild_RotationApplied(t *testing.T) {
	dir := t.TempDir()
	cfg := mustParse(t, `
sinks:
  - name: app
    kind: file
    path: `+filepath.Join(dir, "app.log")+`
    max_size: 40
    backups: 1
    mode: "0640"
`)
	bus := xbus.New(xbus.WithClock(fixedClock))
	require.NoError(t, Build(cfg, bus, Deps{}))
	for range 4 {
		bus.Logger("app").Info(context.Background(), "0123456789")
	}
	require.NoError(t, bus.Shutdown(context.Background()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"app.log", "app.log.1"}, names, "backups=1 只保留一个备份")

	info, err := os.Stat(filepath.Join(dir, "app.log"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestBuild_RegistersReloader(t *testing.T) {
	dir := t.TempDir()
	cfg := mustParse(t, "sinks:\n  - {name: app, kind: file, path: "+filepath.Join(dir, "app.log")+"}\n")
	reloader := xrun.NewReloader(nil)
	bus := xbus.New()
	require.NoError(t, Build(cfg, bus, Deps{Reloader: reloader}))
	assert.Equal(t, 1, reloader.Len())

	require.NoError(t, bus.Shutdown(context.Background()))
	assert.Zero(t, reloader.Len(), "关闭时注销")
}

func TestBuild_FailureLeavesAttachedSinksOnBus(t *testing.T) {
	cfg := mustParse(t, `
sinks:
  - {name: out, kind: console}
  - {name: splunk, kind: hec, url: "ftp://collector", token: t}
`)
	bus := xbus.New()
	err := Build(cfg, bus, Deps{Console: &lockedBuffer{}})
	require.ErrorIs(t, err, xsink.ErrInvalidURL)
	assert.Contains(t, err.Error(), `sink "splunk"`)
	assert.Equal(t, []string{"out"}, bus.Sinks())
	require.NoError(t, bus.Shutdown(context.Background()))
}

func TestBuild_ExpandsHECEnv(t *testing.T) {
	t.Setenv("XLOGD_TEST_HEC_TOKEN", "secret")
	cfg := mustParse(t, `
sinks:
  - {name: splunk, kind: hec, url: "http://127.0.0.1:1", token: "${XLOGD_TEST_HEC_TOKEN}", host: h1}
`)
	bus := xbus.New()
	require.NoError(t, Build(cfg, bus, Deps{}))
	require.NoError(t, bus.Shutdown(context.Background()))
}

func TestApplyLevels(t *testing.T) {
	console := &lockedBuffer{}
	bus := xbus.New(xbus.WithClock(fixedClock))
	require.NoError(t, Build(mustParse(t, "sinks:\n  - {name: out, kind: console, level: error}\n"), bus, Deps{Console: console}))
	defer func() { require.NoError(t, bus.Shutdown(context.Background())) }()

	assert.False(t, bus.Enabled("app", xlog.LevelInfo))

	next := mustParse(t, "sinks:\n  - {name: out, kind: console, level: debug}\n  - {name: extra, kind: console}\n")
	err := ApplyLevels(next, bus)
	require.ErrorIs(t, err, xbus.ErrUnknownSink)
	assert.Contains(t, err.Error(), `sink "extra"`)
	assert.True(t, bus.Enabled("app", xlog.LevelDebug), "已有 sink 的级别仍然生效")
}

func TestDiagnostics_Builder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diag.log")
	cfg := mustParse(t, "diagnostics:\n  level: warn\n  format: json\n  file: "+path+"\n")

	logger, cleanup, err := cfg.Diagnostics.Builder().Build()
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("drain ceiling reached")
	require.NoError(t, cleanup())

	got := readFile(t, path)
	assert.NotContains(t, got, "hidden")
	assert.Contains(t, got, `"msg":"drain ceiling reached"`)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}
