package logger

import (
	"context"
	"log/slog"

	"github.com/go-co-op/gocron/v2"
)

// schedulerLogger adapts slog to gocron.Logger. gocron logs job lifecycle
// details at debug level and scheduling failures at error level.
type schedulerLogger struct {
	log *slog.Logger
}

// NewGocronLogger returns a gocron.Logger writing through log with a
// "component=gocron" attribute.
//
//nolint:ireturn // gocron.WithLogger takes the interface
func NewGocronLogger(log *slog.Logger) gocron.Logger {
	if log == nil {
		log = slog.Default()
	}
	return &schedulerLogger{log: log.With("component", "gocron")}
}

func (l *schedulerLogger) Debug(msg string, args ...any) { l.emit(slog.LevelDebug, msg, args) }
func (l *schedulerLogger) Info(msg string, args ...any)  { l.emit(slog.LevelInfo, msg, args) }
func (l *schedulerLogger) Warn(msg string, args ...any)  { l.emit(slog.LevelWarn, msg, args) }
func (l *schedulerLogger) Error(msg string, args ...any) { l.emit(slog.LevelError, msg, args) }

func (l *schedulerLogger) emit(level slog.Level, msg string, args []any) {
	// gocron passes loose key/value pairs; a trailing value without a key is
	// kept under "extra" instead of slog's !BADKEY.
	if len(args)%2 == 1 {
		args = append(args[:len(args)-1:len(args)-1], "extra", args[len(args)-1])
	}
	l.log.Log(context.Background(), level, "gocron: "+msg, args...)
}
