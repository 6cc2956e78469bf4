// Package config provides configuration for the jobgraph server and CLI.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hanpama/jobgraph/internal/store"
)

// Config holds the full configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	OTel     OTelConfig     `yaml:"otel"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	// Addr is the listen address
	Addr string `yaml:"addr"`

	// Timeout is the per-request execution timeout
	Timeout time.Duration `yaml:"timeout"`

	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Pretty enables indented JSON responses
	Pretty bool `yaml:"pretty"`

	// MaxBodyBytes limits request bodies; 0 means unlimited
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// CORSOrigins lists allowed origins; empty disables CORS
	CORSOrigins []string `yaml:"cors_origins"`

	// Introspection enables __schema and __type queries
	Introspection bool `yaml:"introspection"`
}

// DatabaseConfig holds persistence configuration.
type DatabaseConfig struct {
	// Driver is sqlite or postgres
	Driver string `yaml:"driver"`

	// DSN is the driver-specific data source name
	DSN string `yaml:"dsn"`

	// AutoMigrate creates tables when the server starts
	AutoMigrate bool `yaml:"auto_migrate"`

	// LogQueries enables SQL logging
	LogQueries bool `yaml:"log_queries"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	// Level is debug, info, warn or error
	Level string `yaml:"level"`

	// Format is text or json
	Format string `yaml:"format"`
}

// OTelConfig holds tracing configuration. Tracing is off without an endpoint.
type OTelConfig struct {
	Endpoint string `yaml:"endpoint"`
	Service  string `yaml:"service"`
}

// Default returns the configuration for local development.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			Timeout:         10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxBodyBytes:    1 << 20,
			Introspection:   true,
		},
		Database: DatabaseConfig{
			Driver:      store.DriverSQLite,
			DSN:         "jobgraph.db",
			AutoMigrate: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		OTel: OTelConfig{
			Service: "jobgraph",
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required")
	}
	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("http.timeout must not be negative, got %s", c.HTTP.Timeout)
	}
	if c.HTTP.MaxBodyBytes < 0 {
		return fmt.Errorf("http.max_body_bytes must not be negative, got %d", c.HTTP.MaxBodyBytes)
	}
	switch c.Database.Driver {
	case store.DriverSQLite, store.DriverPostgres:
	default:
		return fmt.Errorf("invalid database driver: %s (must be sqlite or postgres)", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Log.Format)
	}
	if c.OTel.Endpoint != "" && c.OTel.Service == "" {
		return fmt.Errorf("otel.service is required when otel.endpoint is set")
	}
	return nil
}

// LoadFromFile reads a YAML file on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return cfg, nil
}

// LoadFromEnv applies environment overrides. Variables use the JOBGRAPH_
// prefix. Malformed values are reported rather than ignored.
func LoadFromEnv(cfg *Config) error {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(name); ok {
			*dst = v
		}
	}
	var errs []string
	parse := func(name string, fn func(string) error) {
		if v, ok := os.LookupEnv(name); ok {
			if err := fn(v); err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", name, err))
			}
		}
	}
	boolean := func(dst *bool) func(string) error {
		return func(v string) error {
			b, err := strconv.ParseBool(v)
			if err == nil {
				*dst = b
			}
			return err
		}
	}
	duration := func(dst *time.Duration) func(string) error {
		return func(v string) error {
			d, err := time.ParseDuration(v)
			if err == nil {
				*dst = d
			}
			return err
		}
	}

	str("JOBGRAPH_HTTP_ADDR", &cfg.HTTP.Addr)
	parse("JOBGRAPH_HTTP_TIMEOUT", duration(&cfg.HTTP.Timeout))
	parse("JOBGRAPH_HTTP_SHUTDOWN_TIMEOUT", duration(&cfg.HTTP.ShutdownTimeout))
	parse("JOBGRAPH_HTTP_PRETTY", boolean(&cfg.HTTP.Pretty))
	parse("JOBGRAPH_HTTP_INTROSPECTION", boolean(&cfg.HTTP.Introspection))
	parse("JOBGRAPH_HTTP_MAX_BODY_BYTES", func(v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			cfg.HTTP.MaxBodyBytes = n
		}
		return err
	})
	if v, ok := os.LookupEnv("JOBGRAPH_HTTP_CORS_ORIGINS"); ok {
		cfg.HTTP.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.HTTP.CORSOrigins = append(cfg.HTTP.CORSOrigins, o)
			}
		}
	}

	str("JOBGRAPH_DATABASE_DRIVER", &cfg.Database.Driver)
	str("JOBGRAPH_DATABASE_DSN", &cfg.Database.DSN)
	parse("JOBGRAPH_DATABASE_AUTO_MIGRATE", boolean(&cfg.Database.AutoMigrate))
	parse("JOBGRAPH_DATABASE_LOG_QUERIES", boolean(&cfg.Database.LogQueries))

	str("JOBGRAPH_LOG_LEVEL", &cfg.Log.Level)
	str("JOBGRAPH_LOG_FORMAT", &cfg.Log.Format)

	str("JOBGRAPH_OTEL_ENDPOINT", &cfg.OTel.Endpoint)
	str("JOBGRAPH_OTEL_SERVICE", &cfg.OTel.Service)

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Load builds the effective configuration: defaults, then the YAML file at
// path when non-empty, then the environment. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	if err := LoadFromEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// StoreOptions converts the database section into store.OpenOptions. SQL
// logging, when enabled, goes to logger.
func (c *Config) StoreOptions(logger *slog.Logger) store.OpenOptions {
	return store.OpenOptions{
		Driver:     c.Database.Driver,
		DSN:        c.Database.DSN,
		LogQueries: c.Database.LogQueries,
		Logger:     logger,
	}
}
