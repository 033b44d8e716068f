package datapath

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvDataDir, dir)

	assert.Equal(t, filepath.Clean(dir), Get())
	assert.Equal(t, filepath.Join(dir, "hello.mp4"), Get("hello.mp4"))
	assert.Equal(t, filepath.Join(dir, "a", "b.jpg"), Get("a", "b.jpg"))
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvDataDir, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.jpg"), []byte("x"), 0o644))

	assert.True(t, Exists("hello.jpg"))
	assert.False(t, Exists("hello.mp4"))
}

func TestGetIsAbsolute(t *testing.T) {
	t.Setenv(EnvDataDir, "")
	assert.True(t, filepath.IsAbs(Get("hello.jpg")))
}
