// Package runlog provides the append-only, human-readable log of one batch
// invocation. The sink is created at batch start and closed at batch end;
// per-file entries carry the file identifier instead of relying on ambient
// logging state.
package runlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Log owns the run-level log file and an optional console mirror.
type Log struct {
	file   *os.File
	logger *slog.Logger
}

// New creates (truncating) the log file at path. When mirror is non-nil,
// every entry is also written there, which operators use as the console copy.
func New(path string, mirror io.Writer) (*Log, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating run log %s: %w", path, err)
	}

	var sink io.Writer = f
	if mirror != nil {
		sink = io.MultiWriter(f, mirror)
	}

	handler := slog.NewTextHandler(sink, &slog.HandlerOptions{Level: slog.LevelInfo})
	return &Log{file: f, logger: slog.New(handler)}, nil
}

// Logger returns the batch-level logger.
func (l *Log) Logger() *slog.Logger {
	return l.logger
}

// ForFile returns a logger whose entries are tagged with the input file
// identifier.
func (l *Log) ForFile(id string) *slog.Logger {
	return l.logger.With("file", id)
}

// Close flushes and closes the log file.
func (l *Log) Close() error {
	return l.file.Close()
}
