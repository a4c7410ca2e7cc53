package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())
	return home
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.Equal(t, 5, c.PreviewRows)
	assert.Equal(t, 1_000_000, c.MaxRows)
	assert.Equal(t, 500, c.MaxColumns)
	assert.Equal(t, 0.5, c.CategoryRatio)
	assert.Equal(t, 20, c.MinCategoryLimit)
	assert.Equal(t, 4, c.RenderWorkers)
	assert.Equal(t, ":8080", c.ServerAddr)
	assert.Equal(t, 32, c.MaxRuns)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, ".", c.OutputDir)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("preview_rows: 7\nlog_level: debug\nmax_runs: 10\n"), 0o644))
	t.Setenv("EDAREPORT_MAX_RUNS", "3")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, c.PreviewRows)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, 3, c.MaxRuns, "env beats file")
}

func TestLoad_DotEnv(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile(".env", []byte("EDAREPORT_RENDER_WORKERS=9\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("EDAREPORT_RENDER_WORKERS") })

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9, c.RenderWorkers)
}

func TestLoad_Invalid(t *testing.T) {
	dir := isolate(t)
	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("category_ratio: 4\n"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "category_ratio")
}

func TestSaveRoundTrip(t *testing.T) {
	home := isolate(t)
	c := Default()
	require.NoError(t, c.Set("preview_rows", "12"))
	require.NoError(t, c.Set("server_addr", "127.0.0.1:9000"))
	require.NoError(t, Save(c, ""))

	_, err := os.Stat(filepath.Join(home, ".edareport", "config.yaml"))
	require.NoError(t, err)

	got, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 12, got.PreviewRows)
	assert.Equal(t, "127.0.0.1:9000", got.ServerAddr)
}

func TestSetGet(t *testing.T) {
	c := Default()
	for _, k := range Keys {
		v, ok := c.Get(k)
		require.True(t, ok, k)
		require.NoError(t, c.Set(k, v), k)
	}
	assert.Error(t, c.Set("nope", "1"))
	assert.Error(t, c.Set("max_rows", "many"))
	assert.Error(t, c.Set("render_workers", "0"))
	assert.Error(t, c.Set("log_level", "loud"))
	_, ok := c.Get("nope")
	assert.False(t, ok)
}
