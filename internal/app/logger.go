package app

import (
	"io"
	"log/slog"
)

// levels maps the -log-level values to slog levels.
var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// newLogger builds the run logger writing to w. Unknown levels fall back to
// info and any format other than "json" selects text output. The global
// logger is left untouched.
func newLogger(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if l, ok := levels[level]; ok {
		opts.Level = l
	}

	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
