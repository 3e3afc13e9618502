// Package export writes cleaned tables in spreadsheet form.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/soccerstat/internal/core"
	"github.com/xuri/excelize/v2"
)

// Sheet names in the written workbook.
const (
	SheetCleaned     = "cleaned"
	SheetDiagnostics = "diagnostics"
)

var diagnosticsHeader = []any{"Stage", "Code", "Columns", "Count", "Message"}

// WriteXLSX writes t to a workbook with two sheets: the cleaned rows, numbers
// as numeric cells, and one row per diagnostic.
func WriteXLSX(w io.Writer, t *core.Table, diags core.Diagnostics) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetCleaned); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetDiagnostics); err != nil {
		return fmt.Errorf("create diagnostics sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := writeRow(f, SheetCleaned, 1, header); err != nil {
		return err
	}
	for i, r := range t.Rows {
		if err := writeRow(f, SheetCleaned, i+2, cellValues(t.Columns, r)); err != nil {
			return err
		}
	}

	if err := writeRow(f, SheetDiagnostics, 1, diagnosticsHeader); err != nil {
		return err
	}
	for i, d := range diags {
		row := []any{d.Stage, d.Code, strings.Join(d.Columns, ", "), d.Count, d.Message}
		if err := writeRow(f, SheetDiagnostics, i+2, row); err != nil {
			return err
		}
	}

	for _, sheet := range []string{SheetCleaned, SheetDiagnostics} {
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return fmt.Errorf("style %s header: %w", sheet, err)
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

// cellValues converts a row for the sheet. Missing cells stay blank.
func cellValues(columns []string, r core.Row) []any {
	out := make([]any, len(columns))
	for i, c := range columns {
		v := r[c]
		if f, ok := v.Float(); ok {
			out[i] = f
		} else if v.IsText() {
			out[i] = v.String()
		} else {
			out[i] = nil
		}
	}
	return out
}

