package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Paging   PagingConfig   `mapstructure:"paging"`
	Progress ProgressConfig `mapstructure:"progress"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds catalog API configuration
type ServerConfig struct {
	URL               string        `mapstructure:"url"`
	Token             string        `mapstructure:"token"`
	UserID            string        `mapstructure:"user_id"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

// PagingConfig holds listing configuration
type PagingConfig struct {
	PageSize int           `mapstructure:"page_size"`
	Grace    time.Duration `mapstructure:"grace"` // how long an unwatched listing stays loaded
}

// ProgressConfig holds watch-progress configuration
type ProgressConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	MinWatch    time.Duration `mapstructure:"min_watch"`
	SaveTimeout time.Duration `mapstructure:"save_timeout"`
}

// CacheConfig holds local storage configuration
type CacheConfig struct {
	Dir     string        `mapstructure:"dir"` // empty keeps progress in memory
	ListTTL time.Duration `mapstructure:"list_ttl"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Timeout:           30 * time.Second,
			MaxRetries:        3,
			RetryDelay:        500 * time.Millisecond,
			RequestsPerSecond: 10,
			Burst:             5,
		},
		Paging: PagingConfig{
			PageSize: 30,
			Grace:    5 * time.Second,
		},
		Progress: ProgressConfig{
			Interval:    10 * time.Second,
			MinWatch:    30 * time.Second,
			SaveTimeout: 5 * time.Second,
		},
		Cache: CacheConfig{
			Dir:     defaultCachePath(),
			ListTTL: time.Hour,
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "kinotv", "kinotv.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "kinotv", "kinotv.log")
	}
}

// DefaultDir returns the default config directory for the current OS
func DefaultDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "kinotv")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "kinotv")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "kinotv", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "kinotv", "cache")
	}
}

// newViper returns a viper instance with every key defaulted, so that
// KINOTV_ environment variables apply even without a config file.
func newViper(dir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("KINOTV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := DefaultConfig()
	v.SetDefault("server.url", d.Server.URL)
	v.SetDefault("server.token", d.Server.Token)
	v.SetDefault("server.user_id", d.Server.UserID)
	v.SetDefault("server.timeout", d.Server.Timeout)
	v.SetDefault("server.max_retries", d.Server.MaxRetries)
	v.SetDefault("server.retry_delay", d.Server.RetryDelay)
	v.SetDefault("server.requests_per_second", d.Server.RequestsPerSecond)
	v.SetDefault("server.burst", d.Server.Burst)
	v.SetDefault("paging.page_size", d.Paging.PageSize)
	v.SetDefault("paging.grace", d.Paging.Grace)
	v.SetDefault("progress.interval", d.Progress.Interval)
	v.SetDefault("progress.min_watch", d.Progress.MinWatch)
	v.SetDefault("progress.save_timeout", d.Progress.SaveTimeout)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("cache.list_ttl", d.Cache.ListTTL)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.level", d.Logging.Level)
	return v
}

// Load reads config.yaml from dir (DefaultDir when empty) and applies
// environment overrides. A missing file is not an error.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	v := newViper(dir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the services cannot run with
func (c *Config) Validate() error {
	if c.Paging.PageSize <= 0 {
		return fmt.Errorf("paging.page_size must be positive, got %d", c.Paging.PageSize)
	}
	if c.Progress.Interval <= 0 {
		return fmt.Errorf("progress.interval must be positive, got %s", c.Progress.Interval)
	}
	if c.Progress.MinWatch < 0 {
		return fmt.Errorf("progress.min_watch must not be negative, got %s", c.Progress.MinWatch)
	}
	return nil
}

// SaveToken writes the token into config.yaml under dir, keeping every
// other setting already in the file.
func SaveToken(dir, token string) error {
	if dir == "" {
		dir = DefaultDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	configFile := filepath.Join(dir, "config.yaml")
	v.SetConfigFile(configFile)
	if _, err := os.Stat(configFile); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.Set("server.token", token)
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// IsConfigured returns true if the server URL and token are set
func (c *Config) IsConfigured() bool {
	return c.Server.URL != "" && c.Server.Token != ""
}
