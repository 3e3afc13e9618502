package core

import (
	"fmt"
	"strings"
)

// Stage names, in pipeline order.
const (
	StageNumeric     = "numeric normalization"
	StageDuplicates  = "duplicate resolution"
	StageMissing     = "missing values"
	StageOutliers    = "outlier correction"
	StageCorrections = "evident corrections"
	StageIdentity    = "identity guard"
)

// Diagnostic codes. The CLN prefix keeps them apart from the request-level
// codes in error_messages.go.
const (
	CodeUnparseable      = "CLN101"
	CodeExactDuplicates  = "CLN201"
	CodePlayerDuplicates = "CLN202"
	CodePlaceholders     = "CLN301"
	CodeEmptyColumns     = "CLN302"
	CodeZeroFilled       = "CLN303"
	CodeOutliersClipped  = "CLN401"
	CodeNegativesClipped = "CLN501"
	CodeAgeNulled        = "CLN502"
	CodeNoIdentity       = "CLN601"
	CodeIdentityRepeats  = "CLN602"
	CodeLateDuplicates   = "CLN603"
	CodeLateEmptyColumns = "CLN604"
	CodeStageFailed      = "CLN900"
)

// Diagnostic is a non-fatal report of a correction made while cleaning.
type Diagnostic struct {
	Stage   string   `json:"stage"`
	Code    string   `json:"code"`
	Columns []string `json:"columns,omitempty"`
	Count   int      `json:"count"`
	Message string   `json:"message"`
}

func (d Diagnostic) String() string {
	return d.Message
}

// Failed reports whether the diagnostic records a stage failure.
func (d Diagnostic) Failed() bool {
	return d.Code == CodeStageFailed
}

// Diagnostics is the ordered list of diagnostics produced by one clean.
type Diagnostics []Diagnostic

// Strings returns the human-readable messages in order.
func (ds Diagnostics) Strings() []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Message
	}
	return out
}

// ByStage groups diagnostics by stage name.
func (ds Diagnostics) ByStage() map[string]Diagnostics {
	out := make(map[string]Diagnostics)
	for _, d := range ds {
		out[d.Stage] = append(out[d.Stage], d)
	}
	return out
}

// HasFailures reports whether any stage failed.
func (ds Diagnostics) HasFailures() bool {
	for _, d := range ds {
		if d.Failed() {
			return true
		}
	}
	return false
}

// recorder collects diagnostics for a single stage. They are only kept if
// the stage completes.
type recorder struct {
	stage string
	diags Diagnostics
}

func (r *recorder) add(code string, count int, columns []string, format string, args ...any) {
	r.diags = append(r.diags, Diagnostic{
		Stage:   r.stage,
		Code:    code,
		Columns: columns,
		Count:   count,
		Message: fmt.Sprintf(format, args...),
	})
}

// plural picks the singular or plural noun for n.
func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// columnList formats column names for messages.
func columnList(cols []string) string {
	return strings.Join(cols, ", ")
}
