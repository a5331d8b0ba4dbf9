package main

import (
	"io"
	"log/slog"
)

// Logger forwards messages to a single slog text handler.
type Logger struct {
	log *slog.Logger
}

func NewLogger(out io.Writer, level slog.Level) Logger {
	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	return Logger{log: slog.New(handler)}
}

func (l Logger) Info(message string, module string) {
	l.log.Info(message, "module", module)
}

func (l Logger) Warn(message string, module string) {
	l.log.Warn(message, "module", module)
}

func (l Logger) Error(message string) {
	l.log.Error(message)
}
