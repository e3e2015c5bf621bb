package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sadopc/taskflow/internal/config"
)

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newLogger builds the process logger. Output goes to lc.File when set,
// otherwise to fallback. The returned closer releases the log file.
func newLogger(lc config.LoggingConfig, fallback io.Writer) (*slog.Logger, io.Closer, error) {
	out := fallback
	var closer io.Closer = nopCloser{}
	if lc.File != "" {
		if err := os.MkdirAll(filepath.Dir(lc.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(lc.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	}

	opts := &slog.HandlerOptions{Level: parseLevel(lc.Level)}
	var handler slog.Handler
	if lc.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
