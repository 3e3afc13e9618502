package core

// validation.go checks an uploaded file's header against the expected
// season-stats column set before deeper analysis.
//
// The cleaner itself tolerates any subset of columns. Header validation is
// advisory: callers use the report to warn about exports that will produce a
// thin dataset, or to refuse files that lack the identity column entirely.

import (
	"fmt"
	"strings"
)

// HeaderReport describes how a header compares to ExpectedColumns.
type HeaderReport struct {
	Present  []string `json:"present"`
	Missing  []string `json:"missing"`
	Unknown  []string `json:"unknown,omitempty"`
	Complete bool     `json:"complete"`
	// Identifiable is true when the identity column is present.
	Identifiable bool `json:"identifiable"`
}

// ValidationError represents a single header validation problem.
type ValidationError struct {
	Field   string // Column name
	Message string // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidateHeaders compares headers to ExpectedColumns. Matching is exact
// after trimming CSV artifacts; stats column names are case-sensitive
// ("xG" and "XG" are different exports).
func ValidateHeaders(headers []string) HeaderReport {
	have := make(map[string]bool, len(headers))
	for _, h := range headers {
		have[CleanCell(h)] = true
	}

	expected := make(map[string]bool, len(ExpectedColumns))
	var report HeaderReport
	for _, col := range ExpectedColumns {
		expected[col] = true
		if have[col] {
			report.Present = append(report.Present, col)
		} else {
			report.Missing = append(report.Missing, col)
		}
	}

	for _, h := range headers {
		h = CleanCell(h)
		if !expected[h] {
			report.Unknown = append(report.Unknown, h)
		}
	}

	report.Complete = len(report.Missing) == 0
	report.Identifiable = have[ColPlayer]
	return report
}

// Err returns an error listing missing columns, or nil if the header is
// complete.
func (r HeaderReport) Err() error {
	if r.Complete {
		return nil
	}
	return ValidationError{
		Message: fmt.Sprintf("missing required columns: %s", strings.Join(r.Missing, ", ")),
	}
}
