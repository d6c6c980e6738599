// Package config loads runtime tuning for the Stencil devices from a YAML
// file, with environment-variable override for the file location.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/stencil-ml/stencil/internal/parallel"
)

// EnvConfigPath names the environment variable that points at a config file.
const EnvConfigPath = "STENCIL_CONFIG"

// Config is the runtime configuration for kernel dispatch and device
// selection.
type Config struct {
	// Device is the preferred device: "cpu" or "webgpu". Empty means cpu
	// with webgpu opportunistically when available.
	Device string `yaml:"device"`

	Parallel   Parallel   `yaml:"parallel"`
	BufferPool BufferPool `yaml:"buffer_pool"`
}

// Parallel tunes the CPU device's chunked dispatch.
type Parallel struct {
	Disabled bool `yaml:"disabled"`
	Workers  int  `yaml:"workers"`   // 0 means GOMAXPROCS-sized default
	MinChunk int  `yaml:"min_chunk"` // 0 means library default
}

// BufferPool tunes the GPU device's buffer pool.
type BufferPool struct {
	MaxPerClass int `yaml:"max_per_class"` // 0 means library default
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{}
}

// Load reads a YAML config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv loads the file named by STENCIL_CONFIG, or the defaults when the
// variable is unset.
func FromEnv() (Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// ParallelConfig translates the YAML section into the dispatcher's config.
func (c Config) ParallelConfig() parallel.Config {
	cfg := parallel.DefaultConfig()
	if c.Parallel.Disabled {
		cfg.Enabled = false
	}
	if c.Parallel.Workers > 0 {
		cfg.NumWorkers = c.Parallel.Workers
	}
	if c.Parallel.MinChunk > 0 {
		cfg.MinChunkSize = c.Parallel.MinChunk
	}
	return cfg
}
