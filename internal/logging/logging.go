// Package logging sets up the process-wide stdlib logger: a console
// writer plus an append-only file writer, mirroring the teacher's
// plain log.Printf texture (no structured logging library is wired —
// see DESIGN.md for why).
//
// Grounded on
// original_source/polymarket-compounder/utils/logger.py (dual
// StreamHandler/FileHandler root logger, timestamped line format).
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// Setup points the standard logger at both stdout and an append-only
// file at logPath, creating its parent directory as needed. It
// returns the file handle so the caller can close it on shutdown.
func Setup(logPath string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, fmt.Errorf("logging: mkdir: %w", err)
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}

	log.SetOutput(io.MultiWriter(os.Stdout, f))
	log.SetFlags(log.Ldate | log.Ltime)
	return f, nil
}
