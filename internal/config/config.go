// Eventry - City Event Catalog Ingestion & Lifecycle Pipeline
// Copyright 2026 The Eventry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventry/eventry

// Package config provides layered configuration for Eventry.
//
// Configuration is loaded with Koanf v2 in three layers, later layers
// overriding earlier ones: built-in defaults, an optional YAML config
// file, and EVENTRY_-prefixed environment variables. The resulting Config
// struct is built once in main and passed by reference into each
// component; no component reads environment state directly.
package config

import (
	"fmt"
	"time"

	"github.com/eventry/eventry/internal/logging"
)

// Floors applied during validation. Values below a floor are clamped, not
// rejected, so a misconfigured deployment degrades to a safe cadence.
const (
	// MinPollInterval is the floor for the forwarder's poll interval.
	MinPollInterval = 30 * time.Second

	// MinSweepInterval is the floor for the lifecycle sweeper's wake interval.
	MinSweepInterval = time.Minute

	// MinCacheTTL is the floor for read-cache entry time-to-live.
	MinCacheTTL = 5 * time.Second
)

// Config is the root configuration for the Eventry process.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Ledger    LedgerConfig    `koanf:"ledger"`
	Cache     CacheConfig     `koanf:"cache"`
	Forwarder ForwarderConfig `koanf:"forwarder"`
	Sweeper   SweeperConfig   `koanf:"sweeper"`
	Images    ImagesConfig    `koanf:"images"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// DatabaseConfig holds durable-store (DuckDB) settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// LedgerConfig holds dedup-ledger (Badger) settings.
type LedgerConfig struct {
	Path string `koanf:"path"`
}

// CacheConfig holds read-cache (Badger) settings.
type CacheConfig struct {
	Path      string        `koanf:"path"`
	KeyPrefix string        `koanf:"key_prefix"`
	TTL       time.Duration `koanf:"ttl"`
}

// ForwarderConfig holds batch-forwarder settings.
type ForwarderConfig struct {
	// Enabled controls whether the periodic forwarder loop runs. The
	// /scraper intake endpoints work either way.
	Enabled bool `koanf:"enabled"`

	// IngestURL is the base URL of the ingestion boundary.
	IngestURL string `koanf:"ingest_url"`

	// BatchSize is the fixed chunk size for batch submits.
	BatchSize int `koanf:"batch_size"`

	// PollInterval is the loop cadence, floored at MinPollInterval.
	PollInterval time.Duration `koanf:"poll_interval"`

	// Timeout bounds each network call to the ingestion boundary.
	Timeout time.Duration `koanf:"timeout"`
}

// SweeperConfig holds lifecycle-sweeper settings.
type SweeperConfig struct {
	Enabled bool `koanf:"enabled"`

	// Interval is the wake cadence, floored at MinSweepInterval.
	Interval time.Duration `koanf:"interval"`
}

// ImagesConfig holds image-pipeline settings.
type ImagesConfig struct {
	// Dir is the directory stored images are written to.
	Dir string `koanf:"dir"`

	// BaseURL is the public path prefix of stored images.
	BaseURL string `koanf:"base_url"`

	// Timeout bounds each image download.
	Timeout time.Duration `koanf:"timeout"`

	// RatePerSecond limits outbound image downloads. 0 = unlimited.
	RatePerSecond float64 `koanf:"rate_per_second"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8080,
			Timeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:      "/data/eventry.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Ledger: LedgerConfig{
			Path: "/data/ledger",
		},
		Cache: CacheConfig{
			Path:      "/data/cache",
			KeyPrefix: "catalog:events",
			TTL:       5 * time.Minute,
		},
		Forwarder: ForwarderConfig{
			Enabled:      true,
			IngestURL:    "http://127.0.0.1:8080",
			BatchSize:    50,
			PollInterval: 15 * time.Minute,
			Timeout:      10 * time.Second,
		},
		Sweeper: SweeperConfig{
			Enabled:  true,
			Interval: time.Hour,
		},
		Images: ImagesConfig{
			Dir:           "/data/photos",
			BaseURL:       "/catalog/photos",
			Timeout:       15 * time.Second,
			RatePerSecond: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks invariants and clamps floored values. It returns an
// error only for settings that cannot be corrected in place.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Ledger.Path == "" {
		return fmt.Errorf("ledger.path must not be empty")
	}
	if c.Cache.Path == "" {
		return fmt.Errorf("cache.path must not be empty")
	}
	if c.Forwarder.BatchSize <= 0 {
		return fmt.Errorf("forwarder.batch_size must be positive, got %d", c.Forwarder.BatchSize)
	}

	if c.Forwarder.PollInterval < MinPollInterval {
		logging.Warn().
			Dur("configured", c.Forwarder.PollInterval).
			Dur("floor", MinPollInterval).
			Msg("forwarder.poll_interval below floor, clamping")
		c.Forwarder.PollInterval = MinPollInterval
	}
	if c.Sweeper.Interval < MinSweepInterval {
		logging.Warn().
			Dur("configured", c.Sweeper.Interval).
			Dur("floor", MinSweepInterval).
			Msg("sweeper.interval below floor, clamping")
		c.Sweeper.Interval = MinSweepInterval
	}
	if c.Cache.TTL < MinCacheTTL {
		logging.Warn().
			Dur("configured", c.Cache.TTL).
			Dur("floor", MinCacheTTL).
			Msg("cache.ttl below floor, clamping")
		c.Cache.TTL = MinCacheTTL
	}
	if c.Forwarder.Timeout <= 0 {
		c.Forwarder.Timeout = 10 * time.Second
	}
	if c.Images.Timeout <= 0 {
		c.Images.Timeout = 15 * time.Second
	}
	return nil
}

// Addr returns the host:port the HTTP server binds to.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
