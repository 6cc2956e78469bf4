package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/jobgraph/internal/store"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := writeFile(t, `
http:
  addr: ":9000"
  timeout: 3s
  cors_origins: ["https://example.com"]
database:
  driver: postgres
  dsn: "host=localhost dbname=jobs"
log:
  format: json
`)
	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, 3*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, []string{"https://example.com"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, store.DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "json", cfg.Log.Format)
	// untouched keys keep their defaults
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, int64(1<<20), cfg.HTTP.MaxBodyBytes)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.True(t, cfg.HTTP.Introspection)
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = LoadFromFile(writeFile(t, "http: [not, a, map]"))
	require.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("JOBGRAPH_HTTP_ADDR", ":7000")
	t.Setenv("JOBGRAPH_HTTP_PRETTY", "true")
	t.Setenv("JOBGRAPH_HTTP_INTROSPECTION", "false")
	t.Setenv("JOBGRAPH_HTTP_CORS_ORIGINS", "https://a.io, https://b.io")
	t.Setenv("JOBGRAPH_DATABASE_DSN", "file::memory:")
	t.Setenv("JOBGRAPH_LOG_LEVEL", "debug")

	cfg := Default()
	require.NoError(t, LoadFromEnv(cfg))
	assert.Equal(t, ":7000", cfg.HTTP.Addr)
	assert.True(t, cfg.HTTP.Pretty)
	assert.False(t, cfg.HTTP.Introspection)
	assert.Equal(t, []string{"https://a.io", "https://b.io"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, "file::memory:", cfg.Database.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFromEnvRejectsMalformedValues(t *testing.T) {
	t.Setenv("JOBGRAPH_HTTP_TIMEOUT", "soon")
	t.Setenv("JOBGRAPH_DATABASE_AUTO_MIGRATE", "maybe")

	err := LoadFromEnv(Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JOBGRAPH_HTTP_TIMEOUT")
	assert.Contains(t, err.Error(), "JOBGRAPH_DATABASE_AUTO_MIGRATE")
}

func TestLoadLayersFileThenEnv(t *testing.T) {
	path := writeFile(t, "http:\n  addr: \":9000\"\n")
	t.Setenv("JOBGRAPH_HTTP_ADDR", ":9100")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.HTTP.Addr)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.HTTP.Addr = "" }},
		{"negative timeout", func(c *Config) { c.HTTP.Timeout = -time.Second }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"empty dsn", func(c *Config) { c.Database.DSN = "" }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
		{"otel without service", func(c *Config) { c.OTel.Endpoint = "localhost:4317"; c.OTel.Service = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
