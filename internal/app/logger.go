package app

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"

	"github.com/bluescreen10/voxara/internal/config"
)

// NewLogger builds the process logger: colored text through tint for
// development, JSON for production.
func NewLogger(cfg config.Config, w io.Writer) *slog.Logger {
	var handler slog.Handler
	switch cfg.Format() {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.Level()})
	default:
		handler = tint.NewHandler(w, &tint.Options{
			Level:      cfg.Level(),
			TimeFormat: time.Kitchen,
			NoColor:    cfg.IsProduction(),
		})
	}
	return slog.New(handler).With("service", "voxara")
}
