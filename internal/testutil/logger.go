package testutil

import (
	"bytes"
	"log/slog"

	"github.com/campusqa/campusqa/internal/log"
)

// Logger returns a logger that discards all output.
func Logger() log.Logger {
	return log.NewNop()
}

// LoggerWithBuffer returns a debug-level text logger together with the
// buffer capturing its output, for asserting on log contents.
func LoggerWithBuffer() (log.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := log.NewWithWriter(&buf, log.Config{Level: slog.LevelDebug})
	return logger, &buf
}
