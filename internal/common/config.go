package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Sorter     SorterConfig     `mapstructure:"sorter"`
	Shiprocket ShiprocketConfig `mapstructure:"shiprocket"`
	History    HistoryConfig    `mapstructure:"history"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

// SorterConfig holds label sorting settings.
type SorterConfig struct {
	Workers   int    `mapstructure:"workers"`
	RulesFile string `mapstructure:"rules_file"`
}

// ShiprocketConfig holds Shiprocket API credentials and endpoint.
type ShiprocketConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Email    string        `mapstructure:"email"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// HistoryConfig holds run-history store settings.
type HistoryConfig struct {
	DSN string `mapstructure:"dsn"` // SQLite path, ":memory:", or "" to disable
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the LABELSORT_
// prefix, optionally merged over a YAML config file.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LABELSORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.max_upload_bytes", 64<<20)

	// Sorter defaults
	v.SetDefault("sorter.workers", 1)
	v.SetDefault("sorter.rules_file", "")

	// Shiprocket defaults
	v.SetDefault("shiprocket.base_url", "https://apiv2.shiprocket.in/v1/external")
	v.SetDefault("shiprocket.email", "")
	v.SetDefault("shiprocket.password", "")
	v.SetDefault("shiprocket.timeout", "45s")

	// History defaults
	v.SetDefault("history.dsn", "")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate validates the loaded configuration.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "server.addr is required", ErrInvalidInput)
	}
	if c.Sorter.Workers < 1 {
		return NewAppError("CONFIG_ERROR", "sorter.workers must be >= 1", ErrInvalidInput)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return NewAppError("CONFIG_ERROR", "server.max_upload_bytes must be positive", ErrInvalidInput)
	}
	return nil
}
