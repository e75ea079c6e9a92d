package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Ingest    IngestConfig    `yaml:"ingest" mapstructure:"ingest"`
	Schema    SchemaConfig    `yaml:"schema" mapstructure:"schema"`
	Aggregate AggregateConfig `yaml:"aggregate" mapstructure:"aggregate"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Geocode   GeocodeConfig   `yaml:"geocode" mapstructure:"geocode"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Export    ExportConfig    `yaml:"export" mapstructure:"export"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// IngestConfig configures dataset parsing.
type IngestConfig struct {
	// Format forces a parser ("csv", "xlsx", "json"); "auto" sniffs.
	Format    string `yaml:"format" mapstructure:"format"`
	Delimiter string `yaml:"delimiter" mapstructure:"delimiter"`
	// Encoding is an IANA charset name for CSV input; empty means UTF-8.
	Encoding string `yaml:"encoding" mapstructure:"encoding"`
	Sheet    string `yaml:"sheet" mapstructure:"sheet"`
}

// SchemaConfig configures column role inference and header mapping.
type SchemaConfig struct {
	SampleSize        int     `yaml:"sample_size" mapstructure:"sample_size"`
	NumericThreshold  float64 `yaml:"numeric_threshold" mapstructure:"numeric_threshold"`
	TemporalThreshold float64 `yaml:"temporal_threshold" mapstructure:"temporal_threshold"`
	// SynonymsPath points at a YAML file of extra header synonyms merged
	// over the built-in table.
	SynonymsPath string `yaml:"synonyms_path" mapstructure:"synonyms_path"`
}

// AggregateConfig configures chart aggregation limits.
type AggregateConfig struct {
	TopN          int     `yaml:"top_n" mapstructure:"top_n"`
	ScatterCap    int     `yaml:"scatter_cap" mapstructure:"scatter_cap"`
	HistogramBins int     `yaml:"histogram_bins" mapstructure:"histogram_bins"`
	RadiusMin     float64 `yaml:"radius_min" mapstructure:"radius_min"`
	RadiusMax     float64 `yaml:"radius_max" mapstructure:"radius_max"`
}

// StoreConfig configures the dataset cache backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	// Path is the sqlite database file, used when Driver is "sqlite".
	Path string `yaml:"path" mapstructure:"path"`
}

// GeocodeConfig configures the Census geocoder used to backfill
// coordinates for records that only carry a city.
type GeocodeConfig struct {
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// AnthropicConfig holds Anthropic API settings for dataset insights.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ExportConfig configures export output.
type ExportConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("INSIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("ingest.format", "auto")
	v.SetDefault("ingest.delimiter", ",")
	v.SetDefault("schema.sample_size", 200)
	v.SetDefault("schema.numeric_threshold", 0.6)
	v.SetDefault("schema.temporal_threshold", 0.5)
	v.SetDefault("aggregate.top_n", 10)
	v.SetDefault("aggregate.scatter_cap", 500)
	v.SetDefault("aggregate.histogram_bins", 20)
	v.SetDefault("aggregate.radius_min", 2)
	v.SetDefault("aggregate.radius_max", 40)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "insight.db")
	v.SetDefault("geocode.base_url", "https://geocoding.geo.census.gov/geocoder")
	v.SetDefault("geocode.requests_per_sec", 2)
	v.SetDefault("geocode.timeout_secs", 10)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("export.dir", ".")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the fields a command mode depends on. Modes map to
// CLI subcommands so each command fails fast on the settings it needs
// instead of deep inside a pipeline.
func (c *Config) Validate(mode string) error {
	var missing []string

	if c.Schema.SampleSize < 1 {
		missing = append(missing, "schema.sample_size must be >= 1")
	}
	if c.Schema.NumericThreshold < 0 || c.Schema.NumericThreshold > 1 {
		missing = append(missing, "schema.numeric_threshold must be between 0 and 1")
	}
	if c.Schema.TemporalThreshold < 0 || c.Schema.TemporalThreshold > 1 {
		missing = append(missing, "schema.temporal_threshold must be between 0 and 1")
	}
	if c.Aggregate.TopN < 0 {
		missing = append(missing, "aggregate.top_n must be >= 0")
	}

	switch mode {
	case "load", "visualize", "export":
		switch c.Store.Driver {
		case "sqlite":
			if c.Store.Path == "" {
				missing = append(missing, "store.path is required")
			}
		case "postgres":
			if c.Store.DatabaseURL == "" {
				missing = append(missing, "store.database_url is required")
			}
		default:
			missing = append(missing, "store.driver must be sqlite or postgres")
		}
	case "insight":
		if c.Anthropic.Key == "" {
			missing = append(missing, "anthropic.key is required")
		}
	case "serve":
		if c.Server.Port <= 0 {
			missing = append(missing, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(missing) > 0 {
		return eris.New("config: " + strings.Join(missing, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
