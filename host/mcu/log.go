package mcu

import (
	"io"
	"log/slog"
	"os"
)

// Component names used in log records
const (
	ComponentLink  = "link"
	ComponentDrive = "drive"
)

// NewLogger returns a text logger on w (stderr when nil) at level
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// discardLogger drops every record
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
