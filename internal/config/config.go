// Package config loads and validates batch configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Batch    BatchConfig    `mapstructure:"batch"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Retry    RetryConfig    `mapstructure:"retry"`
	Dict     DictConfig     `mapstructure:"dict"`
	Output   OutputConfig   `mapstructure:"output"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	PubSub   PubSubConfig   `mapstructure:"pubsub"`
	DB       DBConfig       `mapstructure:"db"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// BatchConfig governs worker fan-out and word-list handling.
type BatchConfig struct {
	InputPath   string `mapstructure:"input_path"`
	Concurrency int    `mapstructure:"concurrency"`
	Resume      bool   `mapstructure:"resume"`
}

// HTTPConfig configures the outbound HTTP client.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// RetryConfig controls the per-word retry policy.
type RetryConfig struct {
	MaxAttempts    int `mapstructure:"max_attempts"`
	InitialDelayMs int `mapstructure:"initial_delay_ms"`
	MaxDelayMs     int `mapstructure:"max_delay_ms"`
}

// DictConfig selects the dictionary service endpoint and client identity.
type DictConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	Market    string `mapstructure:"market"`
	SetLang   string `mapstructure:"set_lang"`
	ClientVer string `mapstructure:"client_ver"`
	Form      string `mapstructure:"form"`
}

// OutputConfig selects the result sink.
type OutputConfig struct {
	Path   string `mapstructure:"path"`
	Format string `mapstructure:"format"` // "array" or "ndjson"
}

// SnapshotConfig controls raw HTML snapshot persistence.
type SnapshotConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Backend     string `mapstructure:"backend"` // "local" or "gcs"
	BaseDir     string `mapstructure:"base_dir"`
	GCSBucket   string `mapstructure:"gcs_bucket"`
	Prefix      string `mapstructure:"prefix"`
	ContentType string `mapstructure:"content_type"`
}

// PubSubConfig holds metadata for publish-subscribe notifications.
type PubSubConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// DBConfig controls the optional Postgres outcome ledger.
type DBConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// MetricsConfig toggles the metrics/health listener.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DICTBATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("batch.concurrency", 8)
	v.SetDefault("batch.resume", false)
	v.SetDefault("http.timeout_seconds", 5)
	v.SetDefault("http.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	v.SetDefault("retry.max_attempts", 5)
	v.SetDefault("retry.initial_delay_ms", 1000)
	v.SetDefault("retry.max_delay_ms", 30000)
	v.SetDefault("dict.endpoint", "https://cn.bing.com/dict/clientsearch")
	v.SetDefault("dict.market", "zh-CN")
	v.SetDefault("dict.set_lang", "zh")
	v.SetDefault("dict.client_ver", "BDDTV3.5.1.4320")
	v.SetDefault("dict.form", "BDVEHC")
	v.SetDefault("output.path", "dictionary.json")
	v.SetDefault("output.format", "array")
	v.SetDefault("snapshot.enabled", false)
	v.SetDefault("snapshot.backend", "local")
	v.SetDefault("snapshot.base_dir", "data/snapshots")
	v.SetDefault("snapshot.prefix", "pages")
	v.SetDefault("snapshot.content_type", "text/html; charset=utf-8")
	v.SetDefault("db.table", "word_outcomes")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Batch.Concurrency <= 0 {
		return fmt.Errorf("batch.concurrency must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry.max_attempts must be > 0")
	}
	if c.Retry.InitialDelayMs <= 0 {
		return fmt.Errorf("retry.initial_delay_ms must be > 0")
	}
	switch c.Output.Format {
	case "array", "ndjson":
	default:
		return fmt.Errorf("output.format must be \"array\" or \"ndjson\", got %q", c.Output.Format)
	}
	if c.Snapshot.Enabled {
		switch c.Snapshot.Backend {
		case "local":
			if c.Snapshot.BaseDir == "" {
				return fmt.Errorf("snapshot.base_dir must be set for the local backend")
			}
		case "gcs":
			if c.Snapshot.GCSBucket == "" {
				return fmt.Errorf("snapshot.gcs_bucket must be set for the gcs backend")
			}
		default:
			return fmt.Errorf("snapshot.backend must be \"local\" or \"gcs\", got %q", c.Snapshot.Backend)
		}
	}
	if c.PubSub.Enabled && (c.PubSub.ProjectID == "" || c.PubSub.TopicName == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic_name must be set when pubsub is enabled")
	}
	if c.DB.Enabled && c.DB.DSN == "" {
		return fmt.Errorf("db.dsn must be set when the outcome ledger is enabled")
	}
	if c.Batch.Resume && !c.DB.Enabled {
		return fmt.Errorf("batch.resume requires the outcome ledger (db.enabled)")
	}
	if c.Metrics.Enabled && c.Metrics.Port <= 0 {
		return fmt.Errorf("metrics.port must be > 0 when metrics are enabled")
	}
	return nil
}

// RequestTimeout converts the HTTP timeout config into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// InitialBackoff converts the retry delay config into a duration.
func (c Config) InitialBackoff() time.Duration {
	return time.Duration(c.Retry.InitialDelayMs) * time.Millisecond
}

// MaxBackoff converts the retry cap config into a duration.
func (c Config) MaxBackoff() time.Duration {
	return time.Duration(c.Retry.MaxDelayMs) * time.Millisecond
}
