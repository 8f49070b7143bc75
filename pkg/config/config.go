// Package config holds engine-wide defaults shared by cmd/ordo and the
// library packages, plus a YAML overlay loader (spec.md §10.3 ambient
// stack), mirroring how the reference CLI keeps shared constants in one
// small package imported by both cmd and library code.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults applied when a ruleset's config.* fields are left unset.
const (
	DefaultMaxDepth        = 10_000
	DefaultTimeoutMillis   = 5_000
	DefaultFieldMissing    = "lenient"
	DefaultTraceBufferCap  = 256
	DefaultCachePrefix     = "ordo:ruleset:"
	DefaultMetricsPath     = "/metrics"
	DefaultSignatureScheme = "ed25519"
)

// Config is the engine-wide configuration a host process loads once at
// startup and threads through executor/cache/metrics/tracing setup.
type Config struct {
	MaxDepth       int    `yaml:"max_depth"`
	TimeoutMillis  int    `yaml:"timeout_ms"`
	FieldMissing   string `yaml:"field_missing"`
	TraceBufferCap int    `yaml:"trace_buffer_cap"`

	Redis struct {
		Addr   string `yaml:"addr"`
		Prefix string `yaml:"prefix"`
	} `yaml:"redis"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`

	Tracing struct {
		Enabled  bool   `yaml:"enabled"`
		Exporter string `yaml:"exporter"` // "stdout" | "otlp"
		Endpoint string `yaml:"endpoint"`
	} `yaml:"tracing"`

	Store struct {
		Driver string `yaml:"driver"` // "sqlite" | "postgres" | "mysql" | "mongo"
		DSN    string `yaml:"dsn"`
	} `yaml:"store"`
}

// Default returns the built-in defaults.
func Default() Config {
	c := Config{
		MaxDepth:       DefaultMaxDepth,
		TimeoutMillis:  DefaultTimeoutMillis,
		FieldMissing:   DefaultFieldMissing,
		TraceBufferCap: DefaultTraceBufferCap,
	}
	c.Redis.Prefix = DefaultCachePrefix
	c.Metrics.Path = DefaultMetricsPath
	c.Tracing.Exporter = "stdout"
	c.Store.Driver = "sqlite"
	return c
}

// Load overlays a YAML config file onto Default(); a missing file is not
// an error — the defaults apply unchanged, matching a host that hasn't
// opted into any overrides yet.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}
