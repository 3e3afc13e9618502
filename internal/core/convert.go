package core

// convert.go provides cell conversion for raw CSV statistics.
//
// Season-stats exports are messy in predictable ways:
//   - Units or labels glued to numbers ("15 matches", "25-123" ages)
//   - Thousands separators in minutes ("2,345")
//   - Excel formula prefixes (="value") and stray quotes
//
// ExtractNumber is the permissive parser used when normalizing numeric
// columns. CoerceNumber is the strict parser used when a stage re-coerces a
// column that should already be numeric.

import (
	"regexp"
	"strconv"
	"strings"
)

// numericRegex validates that a string is a complete number after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// leadingNumberRegex finds the first numeric substring in a cell.
var leadingNumberRegex = regexp.MustCompile(`-?(\d+\.?\d*|\.\d+)`)

// thousandsRegex matches a comma used as a thousands separator.
var thousandsRegex = regexp.MustCompile(`(\d),(\d{3})`)

// ExtractNumber pulls the first number out of s, tolerating surrounding text.
// Returns false if s contains no digits.
func ExtractNumber(s string) (float64, bool) {
	s = CleanCell(s)
	if s == "" {
		return 0, false
	}

	// Replace until stable: "1,234,567" needs two passes since matches overlap.
	for {
		next := thousandsRegex.ReplaceAllString(s, "$1$2")
		if next == s {
			break
		}
		s = next
	}

	m := leadingNumberRegex.FindString(s)
	if m == "" || m == "-" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseNumber parses s only if the whole cell is a number.
// NaN, Inf and trailing text are rejected.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// CoerceNumber converts a cell to a number or missing.
func CoerceNumber(v Value) Value {
	switch v.Kind() {
	case KindNumber:
		return v
	case KindText:
		if f, ok := ParseNumber(v.text); ok {
			return Number(f)
		}
	}
	return Missing()
}

// FormatNumber renders f in its shortest exact decimal form without an
// exponent, so the output re-parses to the same value.
func FormatNumber(f float64) string {
	if f == 0 {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// CleanCell removes common CSV artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)

	return strings.TrimSpace(s)
}
