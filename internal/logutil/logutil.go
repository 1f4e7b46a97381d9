// Package logutil configures the process-wide structured logger.
package logutil

import (
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxSizeMB  = 5
	maxBackups = 3
)

// Init routes slog output to a rotating log file. The timer's best-effort
// failures (audio, notifications, session log writes) are reported here and
// never surfaced to the user.
func Init(path string) {
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		Compress:   true,
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})

	slog.SetDefault(slog.New(h))
}
