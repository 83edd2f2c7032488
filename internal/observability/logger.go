package observability

import (
	"io"
	"log/slog"
	"strings"

	"github.com/couchcryptid/bom-forecast-etl/internal/config"
)

// NewLogger builds the collector's structured logger. LOG_FORMAT selects
// "json" or "text"; LOG_LEVEL accepts debug, info, warn and error and falls
// back to info.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
