package core

// stages.go holds the individual cleaning stages, in pipeline order.

import (
	"strings"
)

// normalizeNumeric extracts a number from every text cell of the numeric
// columns. Cells without digits become missing.
func (c *Cleaner) normalizeNumeric(t *Table, rec *recorder) error {
	for _, col := range t.PresentColumns(NumericColumns) {
		bad := 0
		for _, r := range t.Rows {
			v := r[col]
			if !v.IsText() {
				continue
			}
			if f, ok := ExtractNumber(v.text); ok {
				r[col] = Number(f)
				continue
			}
			r[col] = Missing()
			if !placeholders[strings.TrimSpace(v.text)] {
				bad++
			}
		}
		if bad > 0 {
			rec.add(CodeUnparseable, bad, []string{col},
				"%d unparseable %s set to missing in column %s", bad, plural(bad, "value", "values"), col)
		}
	}
	return nil
}

// resolveDuplicates drops exact duplicate rows, then keeps one row per
// player: the one with the most minutes, then the most matches played.
func (c *Cleaner) resolveDuplicates(t *Table, rec *recorder) error {
	if n := dropExactDuplicates(t); n > 0 {
		rec.add(CodeExactDuplicates, n, nil,
			"%d exact duplicate %s removed", n, plural(n, "row", "rows"))
	}

	for _, col := range t.PresentColumns(TieBreakColumns) {
		for _, r := range t.Rows {
			r[col] = CoerceNumber(r[col])
		}
	}

	if !t.HasColumns(ColPlayer, ColMin, ColMP) {
		return nil
	}

	before := t.Len()
	pos := make(map[string]int, before)
	kept := make([]Row, 0, before)
	for _, r := range t.Rows {
		key := identityKey(r[ColPlayer])
		i, seen := pos[key]
		if !seen {
			pos[key] = len(kept)
			kept = append(kept, r)
			continue
		}
		if outranks(r, kept[i]) {
			kept[i] = r
		}
	}
	t.Rows = kept

	if n := before - t.Len(); n > 0 {
		rec.add(CodePlayerDuplicates, n, []string{ColPlayer},
			"%d duplicate player %s resolved by keeping the row with the most minutes and matches; %d rows remain",
			n, plural(n, "row", "rows"), t.Len())
	}
	return nil
}

// handleMissing normalizes placeholder text to missing, drops columns with
// no values at all and zero-fills the countable metrics.
func (c *Cleaner) handleMissing(t *Table, rec *recorder) error {
	placeholdersFound := 0
	for _, r := range t.Rows {
		for _, col := range t.Columns {
			v := r[col]
			if !v.IsText() {
				continue
			}
			trimmed := strings.TrimSpace(v.text)
			if placeholders[trimmed] {
				r[col] = Missing()
				placeholdersFound++
			} else if trimmed != v.text {
				r[col] = Text(trimmed)
			}
		}
	}
	if placeholdersFound > 0 {
		rec.add(CodePlaceholders, placeholdersFound, nil,
			"%d empty or \"-\" %s treated as missing", placeholdersFound, plural(placeholdersFound, "value", "values"))
	}

	if empty := emptyColumns(t); len(empty) > 0 {
		t.DropColumns(empty...)
		rec.add(CodeEmptyColumns, len(empty), empty,
			"entirely empty %s dropped: %s", plural(len(empty), "column", "columns"), columnList(empty))
	}

	for _, col := range t.PresentColumns(CountColumns) {
		filled := 0
		for _, r := range t.Rows {
			v := CoerceNumber(r[col])
			if v.IsMissing() {
				v = Number(0)
				filled++
			}
			r[col] = v
		}
		if filled > 0 {
			rec.add(CodeZeroFilled, filled, []string{col},
				"%d missing %s in column %s filled with 0", filled, plural(filled, "value", "values"), col)
		}
	}
	return nil
}

// clipOutliers caps every record-limited column at its limit. Rows are kept.
func (c *Cleaner) clipOutliers(t *Table, rec *recorder) error {
	for _, limit := range c.opts.RecordLimits {
		if !t.HasColumn(limit.Column) {
			continue
		}
		over := 0
		for _, r := range t.Rows {
			v := CoerceNumber(r[limit.Column])
			if f, ok := v.Float(); ok && f > limit.Max {
				v = Number(limit.Max)
				over++
			}
			r[limit.Column] = v
		}
		if over > 0 {
			rec.add(CodeOutliersClipped, over, []string{limit.Column},
				"%d %s clipped for column %s (record limit %s)",
				over, plural(over, "outlier", "outliers"), limit.Column, FormatNumber(limit.Max))
		}
	}
	return nil
}

// applyCorrections fixes values that cannot be right: negative counts become
// zero and ages outside the plausible range become missing.
func (c *Cleaner) applyCorrections(t *Table, rec *recorder) error {
	for _, col := range t.PresentColumns(CountColumns) {
		negative := 0
		for _, r := range t.Rows {
			if f, ok := r[col].Float(); ok && f < 0 {
				r[col] = Number(0)
				negative++
			}
		}
		if negative > 0 {
			rec.add(CodeNegativesClipped, negative, []string{col},
				"%d negative %s in column %s clipped to 0", negative, plural(negative, "value", "values"), col)
		}
	}

	if !t.HasColumn(ColAge) {
		return nil
	}
	nulled := 0
	for _, r := range t.Rows {
		if f, ok := r[ColAge].Float(); ok && (f < c.opts.MinAge || f > c.opts.MaxAge) {
			r[ColAge] = Missing()
			nulled++
		}
	}
	if nulled > 0 {
		rec.add(CodeAgeNulled, nulled, []string{ColAge},
			"%d implausible %s outside %s-%s set to missing",
			nulled, plural(nulled, "age", "ages"), FormatNumber(c.opts.MinAge), FormatNumber(c.opts.MaxAge))
	}
	return nil
}

// guardIdentity finishes the table: text columns are trimmed and filled with
// the sentinel, rows without a player are dropped, and anything the earlier
// stages could not settle (repeated players without tie-break columns, rows
// or columns that only became duplicate or empty after normalization) is
// removed so that cleaning a cleaned table changes nothing.
func (c *Cleaner) guardIdentity(t *Table, rec *recorder) error {
	for _, col := range t.PresentColumns(TextColumns) {
		for _, r := range t.Rows {
			v := r[col]
			switch {
			case v.IsMissing():
				r[col] = Text(MissingSentinel)
			case v.IsText():
				r[col] = Text(strings.TrimSpace(v.text))
			}
		}
	}

	if t.HasColumn(ColPlayer) {
		before := t.Len()
		kept := t.Rows[:0]
		for _, r := range t.Rows {
			if hasIdentity(r[ColPlayer]) {
				kept = append(kept, r)
			}
		}
		t.Rows = kept
		if n := before - t.Len(); n > 0 {
			rec.add(CodeNoIdentity, n, []string{ColPlayer},
				"%d %s without a player name dropped", n, plural(n, "row", "rows"))
		}

		before = t.Len()
		seen := make(map[string]bool, before)
		kept = t.Rows[:0]
		for _, r := range t.Rows {
			key := identityKey(r[ColPlayer])
			if seen[key] {
				continue
			}
			seen[key] = true
			kept = append(kept, r)
		}
		t.Rows = kept
		if n := before - t.Len(); n > 0 {
			rec.add(CodeIdentityRepeats, n, []string{ColPlayer},
				"%d repeated player %s dropped, keeping the first occurrence", n, plural(n, "row", "rows"))
		}
	}

	if n := dropExactDuplicates(t); n > 0 {
		rec.add(CodeLateDuplicates, n, nil,
			"%d %s identical after normalization removed", n, plural(n, "row", "rows"))
	}

	if empty := emptyColumns(t); len(empty) > 0 {
		t.DropColumns(empty...)
		rec.add(CodeLateEmptyColumns, len(empty), empty,
			"%s left empty by corrections dropped: %s", plural(len(empty), "column", "columns"), columnList(empty))
	}
	return nil
}

// dropExactDuplicates removes rows equal in every column to an earlier row
// and returns how many were removed.
func dropExactDuplicates(t *Table) int {
	before := t.Len()
	seen := make(map[string]bool, before)
	kept := t.Rows[:0]
	for _, r := range t.Rows {
		key := t.rowKey(r)
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, r)
	}
	t.Rows = kept
	return before - t.Len()
}

// emptyColumns lists columns that are missing in every row. An empty table
// has no empty columns: there is nothing to judge them by.
func emptyColumns(t *Table) []string {
	if t.Len() == 0 {
		return nil
	}
	var empty []string
	for _, col := range t.Columns {
		all := true
		for _, r := range t.Rows {
			if !r[col].IsMissing() {
				all = false
				break
			}
		}
		if all {
			empty = append(empty, col)
		}
	}
	return empty
}

// identityKey normalizes a player cell for grouping.
func identityKey(v Value) string {
	if v.IsMissing() {
		return "\x00"
	}
	return strings.TrimSpace(v.String())
}

// hasIdentity reports whether a player cell names someone.
func hasIdentity(v Value) bool {
	if v.IsMissing() {
		return false
	}
	s := strings.TrimSpace(v.String())
	return s != "" && s != MissingSentinel
}

// outranks reports whether row a is a better record than row b for the same
// player: more minutes, then more matches. Missing ranks below any number.
func outranks(a, b Row) bool {
	for _, col := range TieBreakColumns {
		switch compareDesc(a[col], b[col]) {
		case 1:
			return true
		case -1:
			return false
		}
	}
	return false
}

// compareDesc returns 1 if a ranks above b, -1 if below, 0 if tied.
func compareDesc(a, b Value) int {
	fa, okA := a.Float()
	fb, okB := b.Float()
	switch {
	case !okA && !okB:
		return 0
	case !okB:
		return 1
	case !okA:
		return -1
	case fa > fb:
		return 1
	case fa < fb:
		return -1
	}
	return 0
}
