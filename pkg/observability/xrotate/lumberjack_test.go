package xrotate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLumberjack_WriteAndRoll(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	l, err := NewLumberjack(path, WithMaxSize(1), WithBackups(2), WithFileMode(0o640))
	require.NoError(t, err)
	defer l.Close()

	_, err = l.Write([]byte("hello\n"))
	require.NoError(t, err)
	require.NoError(t, l.Roll())
	_, err = l.Write([]byte("world\n"))
	require.NoError(t, err)

	assert.Equal(t, path, l.Filename())
	assert.Equal(t, "world\n", readFile(t, path))

	var backups int
	for _, name := range listDir(t, dir) {
		if strings.HasPrefix(name, "app-") && strings.HasSuffix(name, ".log") {
			backups++
		}
	}
	assert.Equal(t, 1, backups)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Mode().Perm()&^0o640)
}

func TestLumberjack_Reopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	l, err := NewLumberjack(path)
	require.NoError(t, err)
	defer l.Close()

	_, err = l.Write([]byte("a"))
	require.NoError(t, err)
	require.NoError(t, os.Rename(path, filepath.Join(dir, "moved.log")))
	require.NoError(t, l.Reopen())
	_, err = l.Write([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, "b", readFile(t, path))
}

func TestLumberjack_Invalid(t *testing.T) {
	dir := t.TempDir()
	_, err := NewLumberjack("")
	assert.ErrorIs(t, err, ErrEmptyFilename)
	_, err = NewLumberjack(filepath.Join(dir, "a.log"), WithDatePattern("2006-01-02"))
	assert.ErrorIs(t, err, ErrConflictingPolicy)
	_, err = NewLumberjack(filepath.Join(dir, "a.log"), WithBackups(0))
	assert.ErrorIs(t, err, ErrInvalidBackups)
}

func TestLumberjack_Closed(t *testing.T) {
	l, err := NewLumberjack(filepath.Join(t.TempDir(), "a.log"))
	require.NoError(t, err)
	require.NoError(t, l.Close())
	assert.ErrorIs(t, l.Close(), ErrClosed)
	_, err = l.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, l.Roll(), ErrClosed)
	assert.ErrorIs(t, l.Reopen(), ErrClosed)
}
