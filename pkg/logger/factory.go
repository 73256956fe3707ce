package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Config controls output format and verbosity. Embed this in your app config
// for env parsing with caarlos0/env.
type Config struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// New creates a logger with optional context extractors. JSON output by
// default; set Format to "text" for local development.
func New(cfg Config, extractors ...ContextExtractor) *slog.Logger {
	return slog.New(NewLogHandlerDecorator(newOutputHandler(cfg), extractors...))
}

func newOutputHandler(cfg Config) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.NewJSONHandler(os.Stdout, opts)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
