package bot

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the JSON logger for the process. Records always go to
// stdout, and are tee'd into a rotating file when one is configured.
// The returned closer flushes the file and is a no-op otherwise.
func NewLogger(cfg *Config) (*slog.Logger, io.Closer) {
	var (
		out    io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)

	if cfg.Log.File != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
		}
		out = io.MultiWriter(os.Stdout, file)
		closer = file
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: cfg.LogLevel})
	return slog.New(handler), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
