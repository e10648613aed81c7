package logging

import (
	"log/slog"
)

// WithOp creates a logger tagged with an operation name.
//
// Example:
//
//	log := logging.WithOp("complete")
//	log.Debug("combination space", "rows", n)
func WithOp(op string) *slog.Logger {
	return GetLogger().With("op", op)
}

// WithColumns creates a logger tagged with the columns an operation works on.
func WithColumns(op string, columns []string) *slog.Logger {
	return GetLogger().With("op", op, "columns", columns)
}

// WithFile creates a logger tagged with a file path, for I/O.
func WithFile(op, path string) *slog.Logger {
	return GetLogger().With("op", op, "file", path)
}
