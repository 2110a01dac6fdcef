// Package logging sets up the file-backed logger. Logs go to a file rather
// than stderr so they never bleed into the terminal UI.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Setup opens the log file under dataDir and returns a logger plus a close
// func. When the file cannot be opened, logging is discarded rather than
// breaking startup.
func Setup(dataDir string, debug bool) (*slog.Logger, func()) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	f, err := os.OpenFile(filepath.Join(dataDir, "ember.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		return logger, func() {}
	}

	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, func() { _ = f.Close() }
}
