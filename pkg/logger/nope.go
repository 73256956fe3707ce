package logger

import (
	"io"
	"log/slog"
)

// NewNope creates a no-op logger that discards all output. Constructors that
// accept an optional *slog.Logger use it as the nil default.
func NewNope() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
