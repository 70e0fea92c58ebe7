// Package config loads the gramsearch command configuration from a YAML
// file, GRAMSEARCH_* environment variables and command-line overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hupe1980/gramsearch"
	"github.com/hupe1980/gramsearch/blobstore"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. GRAMSEARCH_SOURCE_ROOT.
const EnvPrefix = "GRAMSEARCH"

// Config is the complete command configuration.
type Config struct {
	Source SourceConfig `mapstructure:"source"`
	HTTP   HTTPConfig   `mapstructure:"http"`
	Search SearchConfig `mapstructure:"search"`
	Render RenderConfig `mapstructure:"render"`
	Log    LogConfig    `mapstructure:"log"`
	Server ServerConfig `mapstructure:"server"`
}

// SourceConfig selects where the index is read from.
type SourceConfig struct {
	// Kind is one of local, http, s3, minio.
	Kind        string `mapstructure:"kind"`
	Root        string `mapstructure:"root"`
	URL         string `mapstructure:"url"`
	Bucket      string `mapstructure:"bucket"`
	Prefix      string `mapstructure:"prefix"`
	Endpoint    string `mapstructure:"endpoint"`
	Region      string `mapstructure:"region"`
	AccessKey   string `mapstructure:"access_key"`
	SecretKey   string `mapstructure:"secret_key"`
	Secure      bool   `mapstructure:"secure"`
	Compression string `mapstructure:"compression"`
}

// HTTPConfig tunes the http source.
type HTTPConfig struct {
	Rate      float64 `mapstructure:"rate"`
	Burst     int     `mapstructure:"burst"`
	UserAgent string  `mapstructure:"user_agent"`
}

// SearchConfig maps onto the engine options.
type SearchConfig struct {
	GramSize     int           `mapstructure:"gram_size"`
	Concurrency  int           `mapstructure:"concurrency"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	IndexPrefix  string        `mapstructure:"index_prefix"`
}

// RenderConfig controls how hits are printed.
type RenderConfig struct {
	Timezone string `mapstructure:"timezone"`
	Limit    int    `mapstructure:"limit"`
}

// LogConfig selects the logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig configures the dev server.
type ServerConfig struct {
	Addr   string `mapstructure:"addr"`
	Htdocs string `mapstructure:"htdocs"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.kind", "local")
	v.SetDefault("source.root", ".")
	v.SetDefault("source.url", "")
	v.SetDefault("source.bucket", "")
	v.SetDefault("source.prefix", "")
	v.SetDefault("source.endpoint", "")
	v.SetDefault("source.region", "")
	v.SetDefault("source.access_key", "")
	v.SetDefault("source.secret_key", "")
	v.SetDefault("source.secure", true)
	v.SetDefault("source.compression", "none")

	v.SetDefault("http.rate", 0)
	v.SetDefault("http.burst", 0)
	v.SetDefault("http.user_agent", "gramsearch")

	v.SetDefault("search.gram_size", 2)
	v.SetDefault("search.concurrency", 0)
	v.SetDefault("search.fetch_timeout", 30*time.Second)
	v.SetDefault("search.index_prefix", "index")

	v.SetDefault("render.timezone", "Local")
	v.SetDefault("render.limit", 0)

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")

	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.htdocs", ".")
}

// New returns a viper instance with defaults and environment binding set up.
// Callers may bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configPath (if not empty) or a gramsearch.yaml in the working
// directory (if present) into v and returns the validated configuration.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("gramsearch")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case "local":
		if c.Source.Root == "" {
			return errors.New("source.root is required for a local source")
		}
	case "http":
		if c.Source.URL == "" {
			return errors.New("source.url is required for an http source")
		}
	case "s3":
		if c.Source.Bucket == "" {
			return errors.New("source.bucket is required for an s3 source")
		}
	case "minio":
		if c.Source.Bucket == "" || c.Source.Endpoint == "" {
			return errors.New("source.bucket and source.endpoint are required for a minio source")
		}
	default:
		return fmt.Errorf("unknown source.kind %q", c.Source.Kind)
	}

	if _, err := blobstore.ParseCompression(c.Source.Compression); err != nil {
		return err
	}
	if c.Search.GramSize <= 0 {
		return fmt.Errorf("search.gram_size must be positive, got %d", c.Search.GramSize)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}
	return nil
}

// Location resolves render.timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Render.Timezone)
	if err != nil {
		return nil, fmt.Errorf("render.timezone: %w", err)
	}
	return loc, nil
}

// LogLevel parses log.level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// Logger builds the configured logger.
func (c *Config) Logger() *gramsearch.Logger {
	level, err := c.LogLevel()
	if err != nil {
		level = slog.LevelWarn
	}
	if c.Log.Format == "json" {
		return gramsearch.NewJSONLogger(level)
	}
	return gramsearch.NewTextLogger(level)
}

// EngineOptions maps the search settings onto engine options.
func (c *Config) EngineOptions() []gramsearch.Option {
	return []gramsearch.Option{
		gramsearch.WithGramSize(c.Search.GramSize),
		gramsearch.WithFetchConcurrency(c.Search.Concurrency),
		gramsearch.WithFetchTimeout(c.Search.FetchTimeout),
		gramsearch.WithIndexPrefix(c.Search.IndexPrefix),
	}
}
