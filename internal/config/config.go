package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config struct for environment variables. These are ambient settings; the
// per-run options come from the command line.
type Config struct {
	CatalogBaseURL string        `envconfig:"CATALOG_BASE_URL" default:"https://api.ipsw.me/v4"`
	HTTPTimeout    time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	UserAgent      string        `envconfig:"USER_AGENT" default:"ipsw_downloader"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"INFO"`

	// ProgressIntervalBytes controls how often download progress is logged.
	ProgressIntervalBytes int64 `envconfig:"PROGRESS_INTERVAL_BYTES" default:"104857600"`

	Log struct {
		MaxSizeMB  int `split_words:"true" default:"50"`
		MaxBackups int `split_words:"true" default:"3"`
	}
}

// LoadConfig reads environment variables and populates the Config struct.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env: %w", err)
	}

	return &cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
