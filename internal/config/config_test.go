package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stencil.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
device: webgpu
parallel:
  workers: 4
  min_chunk: 128
buffer_pool:
  max_per_class: 32
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "webgpu", cfg.Device)
	assert.Equal(t, 4, cfg.Parallel.Workers)
	assert.Equal(t, 128, cfg.Parallel.MinChunk)
	assert.Equal(t, 32, cfg.BufferPool.MaxPerClass)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParallelConfig(t *testing.T) {
	cfg := Config{Parallel: Parallel{Workers: 2, MinChunk: 16}}
	par := cfg.ParallelConfig()
	assert.Equal(t, 2, par.NumWorkers)
	assert.Equal(t, 16, par.MinChunkSize)

	cfg.Parallel.Disabled = true
	assert.False(t, cfg.ParallelConfig().Enabled)
}

func TestFromEnv_Default(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
