// Package logging wires up slog for the CLI, switching between a
// colorized text handler and plain JSON the way jtarchie/ci's CLI
// entrypoint does for its own --log-format flag.
package logging

import (
	"io"
	"log/slog"

	"github.com/lmittmann/tint"
)

// Setup builds and installs a slog.Logger as the process default,
// parsing level ("debug", "info", "warn", "error") and choosing between
// "text" (tint's colorized handler) and "json" (slog's stdlib handler)
// for format. An unrecognized level falls back to info.
func Setup(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = tint.NewHandler(w, &tint.Options{Level: lvl})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
