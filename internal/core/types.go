package core

import (
	"errors"
	"time"
)

var (
	// ErrFileTooLarge is returned when an upload exceeds the configured size.
	ErrFileTooLarge = errors.New("file too large")

	// ErrCleanTimeout is returned when a clean does not finish within the
	// configured timeout. No partial table is returned.
	ErrCleanTimeout = errors.New("clean timed out")
)

// CleanOutcome is everything a caller gets back from one service clean.
type CleanOutcome struct {
	RunID       string       `json:"run_id"`
	FileName    string       `json:"file_name"`
	Table       *Table       `json:"-"`
	Diagnostics Diagnostics  `json:"diagnostics"`
	Summary     Summary      `json:"summary"`
	Headers     HeaderReport `json:"headers"`
}

// Degraded reports whether any stage failed and was skipped.
func (o *CleanOutcome) Degraded() bool {
	return o.Diagnostics.HasFailures()
}

// RetentionConfig controls run-history pruning.
type RetentionConfig struct {
	Days          int           // Runs older than this are purged (default: 30)
	CheckInterval time.Duration // How often to purge (default: 24h)
}
