package core

// csvio.go reads uploaded CSV text into a Table and writes tables back out.
//
// Reading tolerates the usual export noise: a UTF-8 BOM, invalid UTF-8 bytes,
// ragged rows and duplicate header names. Only input that is not a table at
// all is an error.

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

var (
	// ErrEmptyFile is returned when the input has no header row.
	ErrEmptyFile = errors.New("empty file")

	// ErrInvalidCSV is returned when the input cannot be parsed as CSV.
	ErrInvalidCSV = errors.New("invalid csv")
)

// progressStep is the read progress, in percent, between debug log lines.
const progressStep = 25

// ReadTable parses CSV text into a raw table. Empty cells are missing; every
// other cell is text. size is the input length if known, for progress; pass 0
// otherwise.
func ReadTable(r io.Reader, size int64) (*Table, error) {
	counter := WrapForStreaming(r, size)
	reader := csv.NewReader(counter)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrInvalidCSV, err)
	}

	columns := uniqueHeader(header)
	if len(columns) == 0 {
		return nil, ErrEmptyFile
	}
	t := NewTable(columns...)

	line, nextReport := 1, progressStep
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidCSV, line, err)
		}
		if isBlankRecord(record) {
			continue
		}
		if size > 0 && counter.Progress() >= nextReport {
			slog.Debug("reading csv", "progress_pct", counter.Progress(), "rows", t.Len())
			nextReport = counter.Progress() + progressStep
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			if i >= len(record) || strings.TrimSpace(record[i]) == "" {
				row[col] = Missing()
				continue
			}
			row[col] = Text(record[i])
		}
		t.Append(row)
	}

	return t, nil
}

// ReadHeader reads only the header row, cleaned and made unique the same way
// ReadTable does.
func ReadHeader(r io.Reader) ([]string, error) {
	reader := csv.NewReader(WrapForStreaming(r, 0))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrInvalidCSV, err)
	}
	columns := uniqueHeader(header)
	if len(columns) == 0 {
		return nil, ErrEmptyFile
	}
	return columns, nil
}

// WriteCSV writes the table as comma-separated text with a header row and no
// index column. Missing cells are written empty.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(t.Columns))
	for _, r := range t.Rows {
		for i, col := range t.Columns {
			record[i] = r[col].String()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// uniqueHeader cleans header names and makes them unique. Blank names become
// "Unnamed: N" and repeats get a ".N" suffix, so stats exports that repeat a
// column (totals and per-90 both named "Gls") keep both.
func uniqueHeader(header []string) []string {
	cols := make([]string, len(header))
	used := make(map[string]bool, len(header))
	for i, h := range header {
		name := CleanCell(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		base := name
		for n := 1; used[name]; n++ {
			name = base + "." + strconv.Itoa(n)
		}
		used[name] = true
		cols[i] = name
	}
	if len(cols) == 1 && strings.HasPrefix(cols[0], "Unnamed: ") {
		return nil
	}
	return cols
}

// isBlankRecord reports whether every field of a record is empty.
func isBlankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
