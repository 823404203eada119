package observability

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger builds the process logger: JSON lines, debug level in dev, and
// trace/span ids stamped on every record emitted inside a span.
func NewLogger(env string) *slog.Logger {
	return newLogger(env, os.Stdout)
}

func newLogger(env string, w io.Writer) *slog.Logger {
	level := slog.LevelInfo

	if env == "dev" {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})

	return slog.New(NewTraceHandler(handler)).With("env", env)
}
