package logger

import (
	"bytes"
	"log/slog"
	"os"
)

// Can be one of:
//   - Prod
//   - Dev
//   - Staging
type Environment int

const (
	_ Environment = iota
	Prod
	Dev
	Staging
)

// NewLogger creates a new slog.Logger writing JSON to stdout, with the level
// derived from the environment.
func NewLogger(env Environment, addSource bool) *slog.Logger {
	var level slog.Level

	switch env {
	case Prod, Staging:
		level = slog.LevelInfo
	case Dev:
		level = slog.LevelDebug
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: addSource,
		Level:     level,
	})
	return slog.New(h)
}

// NewTestLogger returns a logger writing text records into the returned
// buffer. Used by tests to keep output quiet and assertable.
func NewTestLogger() (*bytes.Buffer, *slog.Logger) {
	buf := &bytes.Buffer{}
	h := slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return buf, slog.New(h)
}

// ErrAttr wraps an error into a slog attribute.
func ErrAttr(err error) slog.Attr {
	return slog.String("error", err.Error())
}
