// Package config loads the flowctl runtime configuration: which sandbox
// image Jobs use by default, where the snapshot cache lives, and any
// remote executor targets. The engine itself never reads files or
// environment variables (see flow.Root); only the CLI layer does.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RemoteTarget describes a host a Remote cmdexec.Executor can dispatch to.
type RemoteTarget struct {
	Name        string `yaml:"name"`
	Host        string `yaml:"host"`
	User        string `yaml:"user"`
	KeyFilename string `yaml:"key_filename"`
	Port        int    `yaml:"port"`
}

// Config is the top-level flowctl configuration file shape.
type Config struct {
	// DefaultSandboxImage corresponds to flow.WithDefaultSandboxImage.
	DefaultSandboxImage string `yaml:"default_sandbox_image"`
	// MaxParallelJobs corresponds to flow.WithMaxParallelJobs.
	MaxParallelJobs int `yaml:"max_parallel_jobs"`
	// Cache selects the snapshot cache backend: "memory", "sqlite", or "mysql".
	Cache CacheConfig `yaml:"cache"`
	// Remotes are the hosts available to a Job's Remote executor by name.
	Remotes []RemoteTarget `yaml:"remotes"`
}

// CacheConfig selects and configures the snapshot cache backend.
type CacheConfig struct {
	Driver string `yaml:"driver"` // "memory" | "sqlite" | "mysql"
	DSN    string `yaml:"dsn"`    // sqlite path or mysql DSN; unused for memory
}

// Default returns a Config with the in-memory cache and no remotes,
// suitable for local development.
func Default() Config {
	return Config{
		DefaultSandboxImage: "alpine:3",
		MaxParallelJobs:     1,
		Cache:               CacheConfig{Driver: "memory"},
	}
}

// Load reads and parses the YAML configuration file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
