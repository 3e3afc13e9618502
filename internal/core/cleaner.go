package core

// cleaner.go implements the table cleaning pipeline.
//
// The pipeline is a fixed, linear sequence of stages. Each stage mutates the
// table in place and records diagnostics. A stage whose columns are absent
// does nothing. A stage that fails (error or panic) is rolled back to the
// table as it stood before the stage, a CLN900 diagnostic is recorded, and
// the next stage runs on the restored table.

import (
	"fmt"
	"time"
)

// Options configures the cleaner. The zero value is not useful; start from
// DefaultOptions.
type Options struct {
	// RecordLimits caps metric columns, applied in order.
	RecordLimits []RecordLimit
	// MinAge and MaxAge bound plausible ages; anything outside becomes missing.
	MinAge float64
	MaxAge float64
}

// DefaultOptions returns the canonical cleaning configuration.
func DefaultOptions() Options {
	return Options{
		RecordLimits: DefaultRecordLimits(),
		MinAge:       MinPlausibleAge,
		MaxAge:       MaxPlausibleAge,
	}
}

// WithRecordLimit returns a copy of o with the limit for column replaced or
// appended.
func (o Options) WithRecordLimit(column string, max float64) Options {
	limits := make([]RecordLimit, 0, len(o.RecordLimits)+1)
	found := false
	for _, l := range o.RecordLimits {
		if l.Column == column {
			l.Max = max
			found = true
		}
		limits = append(limits, l)
	}
	if !found {
		limits = append(limits, RecordLimit{Column: column, Max: max})
	}
	o.RecordLimits = limits
	return o
}

// Summary describes the shape change made by one clean.
type Summary struct {
	RowsIn      int           `json:"rows_in"`
	RowsOut     int           `json:"rows_out"`
	RowsRemoved int           `json:"rows_removed"`
	ColumnsIn   int           `json:"columns_in"`
	ColumnsOut  int           `json:"columns_out"`
	Duration    time.Duration `json:"duration_ns"`
}

// Result is the output of Cleaner.Clean.
type Result struct {
	Table       *Table
	Diagnostics Diagnostics
	Summary     Summary
}

// stageFunc transforms the table and reports what it changed.
type stageFunc func(t *Table, rec *recorder) error

type stage struct {
	name string
	run  stageFunc
}

// Cleaner runs the cleaning pipeline. It holds no per-call state and is safe
// for concurrent use.
type Cleaner struct {
	opts   Options
	stages []stage
}

// NewCleaner creates a cleaner with the given options.
func NewCleaner(opts Options) *Cleaner {
	c := &Cleaner{opts: opts}
	c.stages = []stage{
		{StageNumeric, c.normalizeNumeric},
		{StageDuplicates, c.resolveDuplicates},
		{StageMissing, c.handleMissing},
		{StageOutliers, c.clipOutliers},
		{StageCorrections, c.applyCorrections},
		{StageIdentity, c.guardIdentity},
	}
	return c
}

// Options returns the cleaner's configuration.
func (c *Cleaner) Options() Options {
	return c.opts
}

// Clean returns a cleaned copy of raw and the diagnostics describing every
// correction. raw is not modified. Clean never fails on bad cell data.
func (c *Cleaner) Clean(raw *Table) Result {
	start := time.Now()
	t := raw.Clone()

	var diags Diagnostics
	for _, s := range c.stages {
		var d Diagnostics
		t, d = runStage(t, s)
		diags = append(diags, d...)
	}

	return Result{
		Table:       t,
		Diagnostics: diags,
		Summary: Summary{
			RowsIn:      raw.Len(),
			RowsOut:     t.Len(),
			RowsRemoved: raw.Len() - t.Len(),
			ColumnsIn:   len(raw.Columns),
			ColumnsOut:  len(t.Columns),
			Duration:    time.Since(start),
		},
	}
}

// runStage executes one stage inside an error boundary. On failure the
// returned table is the snapshot taken before the stage.
func runStage(t *Table, s stage) (out *Table, diags Diagnostics) {
	snapshot := t.Clone()
	rec := &recorder{stage: s.name}

	fail := func(err error) {
		out = snapshot
		diags = Diagnostics{{
			Stage:   s.name,
			Code:    CodeStageFailed,
			Message: fmt.Sprintf("%s failed and was skipped: %v", s.name, err),
		}}
	}

	defer func() {
		if r := recover(); r != nil {
			fail(fmt.Errorf("panic: %v", r))
		}
	}()

	if err := s.run(t, rec); err != nil {
		fail(err)
		return out, diags
	}
	return t, rec.diags
}
