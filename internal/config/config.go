package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/newthinker/smaprob/internal/core"
)

// EnvPrefix prefixes environment overrides, e.g. SMAPROB_PAST_DAYS
const EnvPrefix = "SMAPROB"

type Config struct {
	PastDays             int     `mapstructure:"past_days"`
	ProbabilityThreshold float64 `mapstructure:"probability_threshold"`
	MovingAverageWindow  int     `mapstructure:"moving_average_window"`
	Symbol               string  `mapstructure:"symbol"`

	Universe UniverseConfig `mapstructure:"universe"`
	Scan     ScanConfig     `mapstructure:"scan"`
	Provider ProviderConfig `mapstructure:"provider"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Log      LogConfig      `mapstructure:"log"`
}

type UniverseConfig struct {
	Path string `mapstructure:"path"` // CSV with a Symbol column
}

type ScanConfig struct {
	Concurrency   int           `mapstructure:"concurrency"`
	SymbolTimeout time.Duration `mapstructure:"symbol_timeout"`
}

type ProviderConfig struct {
	Name     string        `mapstructure:"name"` // "yahoo" or "csv"
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Dir      string        `mapstructure:"dir"` // For csv
	Adjusted bool          `mapstructure:"adjusted"`
}

// CacheConfig holds the Redis price cache settings.
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type StorageConfig struct {
	Archive ArchiveConfig `mapstructure:"archive"`
	Results ResultsConfig `mapstructure:"results"`
}

type ArchiveConfig struct {
	Type string   `mapstructure:"type"` // "", "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// ResultsConfig selects the scan run store. An empty DSN keeps runs in memory.
type ResultsConfig struct {
	DSN     string `mapstructure:"dsn"`
	MaxRuns int    `mapstructure:"max_runs"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Output  string `mapstructure:"output"` // file path; stderr when empty
}

// NotifyConfig lists where scan selections are announced. Empty sections
// are skipped.
type NotifyConfig struct {
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type WebhookConfig struct {
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Output string `mapstructure:"output"`
}

// Load reads configuration from file. An empty path yields defaults with
// environment overrides applied.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Support environment variable overrides
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("reading config: %w", err))
		}
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val, ok := v.Get(key).(string)
		if ok && strings.Contains(val, "${") {
			v.Set(key, os.ExpandEnv(val))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unmarshaling config: %w", err))
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("past_days", d.PastDays)
	v.SetDefault("probability_threshold", d.ProbabilityThreshold)
	v.SetDefault("moving_average_window", d.MovingAverageWindow)
	v.SetDefault("symbol", d.Symbol)
	v.SetDefault("universe.path", d.Universe.Path)
	v.SetDefault("scan.concurrency", d.Scan.Concurrency)
	v.SetDefault("scan.symbol_timeout", d.Scan.SymbolTimeout)
	v.SetDefault("provider.name", d.Provider.Name)
	v.SetDefault("provider.base_url", "")
	v.SetDefault("provider.timeout", d.Provider.Timeout)
	v.SetDefault("provider.dir", "")
	v.SetDefault("provider.adjusted", false)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.addr", d.Cache.Addr)
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.prefix", d.Cache.Prefix)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("storage.archive.type", "")
	v.SetDefault("storage.archive.path", "")
	v.SetDefault("storage.archive.s3.bucket", "")
	v.SetDefault("storage.archive.s3.endpoint", "")
	v.SetDefault("storage.archive.s3.region", "")
	v.SetDefault("storage.archive.s3.access_key", "")
	v.SetDefault("storage.archive.s3.secret_key", "")
	v.SetDefault("storage.archive.s3.prefix", "")
	v.SetDefault("storage.results.dsn", "")
	v.SetDefault("storage.results.max_runs", d.Storage.Results.MaxRuns)
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.output", "")
	v.SetDefault("notify.webhook.url", "")
	v.SetDefault("notify.telegram.bot_token", "")
	v.SetDefault("notify.telegram.chat_id", "")
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.output", "")
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		PastDays:             180,
		ProbabilityThreshold: 60,
		MovingAverageWindow:  10,
		Symbol:               "SPY",
		Universe: UniverseConfig{
			Path: "sp500.csv",
		},
		Scan: ScanConfig{
			Concurrency:   1,
			SymbolTimeout: 30 * time.Second,
		},
		Provider: ProviderConfig{
			Name:    "yahoo",
			Timeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			Addr:   "localhost:6379",
			Prefix: "smaprob:",
			TTL:    12 * time.Hour,
		},
		Storage: StorageConfig{
			Results: ResultsConfig{
				MaxRuns: 100,
			},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Evaluation parameters
	if c.MovingAverageWindow < 1 {
		return core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("moving_average_window must be at least 1, got %d", c.MovingAverageWindow))
	}
	if c.PastDays < 1 {
		return core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("past_days must be at least 1, got %d", c.PastDays))
	}
	if c.ProbabilityThreshold < 0 || c.ProbabilityThreshold > 100 {
		return core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("probability_threshold must be between 0 and 100, got %g", c.ProbabilityThreshold))
	}

	// Scanner
	if c.Scan.Concurrency < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("scan.concurrency must be at least 1, got %d", c.Scan.Concurrency))
	}
	if c.Scan.SymbolTimeout <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("scan.symbol_timeout must be positive, got %s", c.Scan.SymbolTimeout))
	}

	// Provider
	switch c.Provider.Name {
	case "yahoo":
	case "csv":
		if c.Provider.Dir == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("provider.dir required when provider is csv"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("provider.name must be yahoo or csv, got %q", c.Provider.Name))
	}

	if c.Cache.Enabled && c.Cache.Addr == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("cache.addr required when cache is enabled"))
	}

	// Storage
	switch c.Storage.Archive.Type {
	case "":
	case "localfs":
		if c.Storage.Archive.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("storage.archive.path required for localfs"))
		}
	case "s3":
		if c.Storage.Archive.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("storage.archive.s3.bucket required for s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("storage.archive.type must be localfs or s3, got %q", c.Storage.Archive.Type))
	}

	// Notifications
	tg := c.Notify.Telegram
	if (tg.BotToken == "") != (tg.ChatID == "") {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("notify.telegram requires both bot_token and chat_id"))
	}

	return nil
}
