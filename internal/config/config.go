// Package config aggregates the service configuration, parsed from
// environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/photolib/photolib/pkg/db"
	"github.com/photolib/photolib/pkg/logger"
	"github.com/photolib/photolib/pkg/storage"
)

// HTTPConfig holds the listener settings.
type HTTPConfig struct {
	Addr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
	// Zip exports of large albums stream for a while; the write timeout has
	// to cover the whole download.
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"10m"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"2m"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

// DownloadConfig tunes web rendering generation.
type DownloadConfig struct {
	WebMaxDimension int     `env:"DOWNLOAD_WEB_MAX_DIMENSION" envDefault:"2000"`
	WebJPEGQuality  float64 `env:"DOWNLOAD_WEB_JPEG_QUALITY" envDefault:"0.85"`
}

// Config is the whole service configuration.
type Config struct {
	HTTP     HTTPConfig
	Log      logger.Config
	Sentry   logger.SentryConfig
	Database db.Config
	Local    storage.LocalConfig
	S3       storage.S3Config
	Download DownloadConfig
}

// Load parses the configuration from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	return cfg, nil
}
