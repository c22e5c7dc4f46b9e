// Package config provides unified configuration for the Brewline server
// and export tooling.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the unified configuration for Brewline.
type Config struct {
	// DataDir is the base directory for all data files
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Snapshot describes where the transaction snapshot is loaded from
	Snapshot SnapshotConfig `json:"snapshot" yaml:"snapshot"`

	// Cache configuration for the decoded dataset
	Cache CacheConfig `json:"cache" yaml:"cache"`

	// Mart configuration for SQLite star-schema exports
	Mart MartConfig `json:"mart" yaml:"mart"`

	// HTTP configuration
	HTTP HTTPConfig `json:"http" yaml:"http"`

	// Stats configuration for query usage tracking
	Stats StatsConfig `json:"stats" yaml:"stats"`
}

// SnapshotConfig holds snapshot source configuration.
type SnapshotConfig struct {
	// Source is the snapshot source: local, s3
	Source string `json:"source" yaml:"source"`

	// Path is the local CSV path (for local source)
	Path string `json:"path" yaml:"path"`

	// Key is the object key of the CSV (for s3 source)
	Key string `json:"key" yaml:"key"`

	// S3 configuration (for s3 source)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 storage configuration.
type S3Config struct {
	// Bucket is the S3 bucket name
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// CacheConfig holds dataset cache configuration.
type CacheConfig struct {
	// Enabled controls whether the decoded dataset is cached on disk
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Dir is the directory for cache files
	Dir string `json:"dir" yaml:"dir"`
}

// MartConfig holds SQLite export configuration.
type MartConfig struct {
	// Dir is the directory star-schema export databases are written to
	Dir string `json:"dir" yaml:"dir"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	// Addr is the HTTP address for the query API
	Addr string `json:"addr" yaml:"addr"`

	// ReadTimeout is the HTTP read timeout
	ReadTimeout time.Duration `json:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout is the HTTP write timeout
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout is the HTTP idle timeout
	IdleTimeout time.Duration `json:"idle_timeout" yaml:"idle_timeout"`
}

// StatsConfig holds query statistics configuration.
type StatsConfig struct {
	// Window is how long an operation or attribute stays in the stats
	// after it was last seen
	Window time.Duration `json:"window" yaml:"window"`

	// PruneInterval is the interval between stats pruning passes
	PruneInterval time.Duration `json:"prune_interval" yaml:"prune_interval"`
}

// DefaultConfig returns the default configuration for local development.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data/brewline",
		Snapshot: SnapshotConfig{
			Source: "local",
			Path:   "",
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     "",
		},
		Mart: MartConfig{
			Dir: "",
		},
		HTTP: HTTPConfig{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Stats: StatsConfig{
			Window:        time.Hour,
			PruneInterval: 5 * time.Minute,
		},
	}
}

// Resolve resolves relative paths and sets defaults based on DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/brewline"
	}

	if c.Snapshot.Source == "local" && c.Snapshot.Path == "" {
		c.Snapshot.Path = filepath.Join(c.DataDir, "snapshot.csv")
	}

	if c.Cache.Dir == "" {
		c.Cache.Dir = filepath.Join(c.DataDir, "cache")
	}

	if c.Mart.Dir == "" {
		c.Mart.Dir = filepath.Join(c.DataDir, "mart")
	}
}

// CachePath returns the path of the decoded dataset cache file.
func (c *Config) CachePath() string {
	return filepath.Join(c.Cache.Dir, "dataset.bin")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.Snapshot.Source != "local" && c.Snapshot.Source != "s3" {
		return fmt.Errorf("invalid snapshot source: %s (must be local or s3)", c.Snapshot.Source)
	}

	if c.Snapshot.Source == "s3" {
		if c.Snapshot.S3.Bucket == "" {
			return fmt.Errorf("snapshot.s3.bucket is required when snapshot source is s3")
		}
		if c.Snapshot.Key == "" {
			return fmt.Errorf("snapshot.key is required when snapshot source is s3")
		}
	}

	if c.Stats.Window <= 0 {
		return fmt.Errorf("stats.window must be positive, got %s", c.Stats.Window)
	}
	if c.Stats.PruneInterval <= 0 {
		return fmt.Errorf("stats.prune_interval must be positive, got %s", c.Stats.PruneInterval)
	}

	return nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the BREWLINE_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("BREWLINE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	// Snapshot configuration
	if v := os.Getenv("BREWLINE_SNAPSHOT_SOURCE"); v != "" {
		cfg.Snapshot.Source = v
	}
	if v := os.Getenv("BREWLINE_SNAPSHOT_PATH"); v != "" {
		cfg.Snapshot.Path = v
	}
	if v := os.Getenv("BREWLINE_SNAPSHOT_KEY"); v != "" {
		cfg.Snapshot.Key = v
	}
	if v := os.Getenv("BREWLINE_S3_BUCKET"); v != "" {
		cfg.Snapshot.S3.Bucket = v
	}
	if v := os.Getenv("BREWLINE_S3_REGION"); v != "" {
		cfg.Snapshot.S3.Region = v
	}
	if v := os.Getenv("BREWLINE_S3_ENDPOINT"); v != "" {
		cfg.Snapshot.S3.Endpoint = v
	}

	// Cache configuration
	if v := os.Getenv("BREWLINE_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("BREWLINE_CACHE_DIR"); v != "" {
		cfg.Cache.Dir = v
	}

	// Mart configuration
	if v := os.Getenv("BREWLINE_MART_DIR"); v != "" {
		cfg.Mart.Dir = v
	}

	// HTTP configuration
	if v := os.Getenv("BREWLINE_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}

	// Stats configuration
	if v := os.Getenv("BREWLINE_STATS_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Stats.Window = d
		}
	}
	if v := os.Getenv("BREWLINE_STATS_PRUNE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Stats.PruneInterval = d
		}
	}
}

// EnsureDirectories creates all required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.DataDir,
		c.Cache.Dir,
		c.Mart.Dir,
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
