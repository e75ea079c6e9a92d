package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "auto", cfg.Ingest.Format)
	assert.Equal(t, ",", cfg.Ingest.Delimiter)
	assert.Equal(t, 200, cfg.Schema.SampleSize)
	assert.InDelta(t, 0.6, cfg.Schema.NumericThreshold, 0.001)
	assert.InDelta(t, 0.5, cfg.Schema.TemporalThreshold, 0.001)
	assert.Equal(t, 10, cfg.Aggregate.TopN)
	assert.Equal(t, 500, cfg.Aggregate.ScatterCap)
	assert.Equal(t, 20, cfg.Aggregate.HistogramBins)
	assert.InDelta(t, 2, cfg.Aggregate.RadiusMin, 0.001)
	assert.InDelta(t, 40, cfg.Aggregate.RadiusMax, 0.001)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "insight.db", cfg.Store.Path)
	assert.Equal(t, "https://geocoding.geo.census.gov/geocoder", cfg.Geocode.BaseURL)
	assert.InDelta(t, 2, cfg.Geocode.RequestsPerSec, 0.001)
	assert.Equal(t, 10, cfg.Geocode.TimeoutSecs)
	assert.Equal(t, 1024, cfg.Anthropic.MaxTokens)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/insight
log:
  level: debug
  format: console
server:
  port: 9090
aggregate:
  top_n: 15
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 15, cfg.Aggregate.TopN)
	// Defaults still apply for unset values
	assert.Equal(t, 500, cfg.Aggregate.ScatterCap)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("INSIGHT_STORE_DRIVER", "postgres")
	t.Setenv("INSIGHT_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("INSIGHT_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Schema.SampleSize = 200
	cfg.Schema.NumericThreshold = 0.6
	cfg.Schema.TemporalThreshold = 0.5
	cfg.Aggregate.TopN = 10
	cfg.Store.Driver = "sqlite"
	cfg.Store.Path = "insight.db"
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateLoad_SqlitePathRequired(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("load"))

	cfg.Store.Path = ""
	err := cfg.Validate("load")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.path is required")
}

func TestValidateLoad_PostgresURLRequired(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"

	err := cfg.Validate("load")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.DatabaseURL = "postgres://localhost/insight"
	assert.NoError(t, cfg.Validate("load"))
}

func TestValidateLoad_UnknownDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"

	err := cfg.Validate("load")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
}

func TestValidateInsight_KeyRequired(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("insight")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")

	cfg.Anthropic.Key = "sk-ant-key"
	assert.NoError(t, cfg.Validate("insight"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateThresholdBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Schema.NumericThreshold = 1.1
	err := cfg.Validate("load")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "numeric_threshold")

	cfg.Schema.NumericThreshold = 0.6
	cfg.Schema.TemporalThreshold = -0.1
	err = cfg.Validate("load")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "temporal_threshold")

	cfg.Schema.TemporalThreshold = 0.5
	cfg.Schema.SampleSize = 0
	err = cfg.Validate("load")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sample_size")
}
