package core

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

// ============================================================================
// ReadTable Tests
// ============================================================================

func TestReadTable(t *testing.T) {
	input := "\xEF\xBB\xBFPlayer,Squad,Gls\nAlice,Leeds,3\n\nBob,,\n"

	tbl, err := ReadTable(strings.NewReader(input), int64(len(input)))
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}

	if got := strings.Join(tbl.Columns, ","); got != "Player,Squad,Gls" {
		t.Errorf("columns = %q, want %q", got, "Player,Squad,Gls")
	}
	if tbl.Len() != 2 {
		t.Fatalf("rows = %d, want 2 (blank line skipped)", tbl.Len())
	}
	if v := tbl.Rows[0]["Gls"]; !v.IsText() || v.String() != "3" {
		t.Errorf("Gls = %#v, want text 3", v)
	}
	if v := tbl.Rows[1]["Squad"]; !v.IsMissing() {
		t.Errorf("empty cell = %#v, want missing", v)
	}
}

func TestReadTable_RaggedRows(t *testing.T) {
	tbl, err := ReadTable(strings.NewReader("Player,Gls,Ast\nAlice,1\nBob,2,3,extra\n"), 0)
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}

	if v := tbl.Rows[0]["Ast"]; !v.IsMissing() {
		t.Errorf("short row Ast = %#v, want missing", v)
	}
	if got := len(tbl.Rows[1]); got != 3 {
		t.Errorf("long row has %d cells, want 3", got)
	}
}

func TestReadTable_Errors(t *testing.T) {
	diskGone := errors.New("disk gone")

	tests := []struct {
		name  string
		input io.Reader
		want  error
	}{
		{"empty input", strings.NewReader(""), ErrEmptyFile},
		{"blank lines only", strings.NewReader("\n\n"), ErrEmptyFile},
		{"read failure", io.MultiReader(strings.NewReader("Player\nAlice\n"), iotest.ErrReader(diskGone)), ErrInvalidCSV},
		{"read failure keeps cause", io.MultiReader(strings.NewReader("Player\nAlice\n"), iotest.ErrReader(diskGone)), diskGone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadTable(tt.input, 0)
			if !errors.Is(err, tt.want) {
				t.Errorf("ReadTable() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestReadTable_InvalidUTF8(t *testing.T) {
	tbl, err := ReadTable(strings.NewReader("Player\nM\xfcller\n"), 0)
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	if got := tbl.Rows[0][ColPlayer].String(); got != "M?ller" {
		t.Errorf("Player = %q, want %q", got, "M?ller")
	}
}

func TestReadHeader(t *testing.T) {
	cols, err := ReadHeader(strings.NewReader("\xEF\xBB\xBF Player ,Gls,Gls\nAlice,1,2\n"))
	if err != nil {
		t.Fatalf("ReadHeader() error = %v", err)
	}
	if got := strings.Join(cols, ","); got != "Player,Gls,Gls.1" {
		t.Errorf("ReadHeader() = %q, want %q", got, "Player,Gls,Gls.1")
	}

	if _, err := ReadHeader(strings.NewReader("")); !errors.Is(err, ErrEmptyFile) {
		t.Errorf("ReadHeader(\"\") error = %v, want %v", err, ErrEmptyFile)
	}
}

// ============================================================================
// uniqueHeader Tests
// ============================================================================

func TestUniqueHeader(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		want   []string
	}{
		{"unchanged", []string{"Player", "Gls"}, []string{"Player", "Gls"}},
		{"repeat suffixed", []string{"Gls", "Gls", "Gls"}, []string{"Gls", "Gls.1", "Gls.2"}},
		{"suffix collision", []string{"Gls", "Gls.1", "Gls"}, []string{"Gls", "Gls.1", "Gls.2"}},
		{"blank named", []string{"", "Player"}, []string{"Unnamed: 0", "Player"}},
		{"trimmed", []string{" Player ", "\"Gls\""}, []string{"Player", "Gls"}},
		{"single blank", []string{""}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := uniqueHeader(tt.header)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Errorf("uniqueHeader(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

// ============================================================================
// WriteCSV Tests
// ============================================================================

func TestWriteCSV(t *testing.T) {
	tbl := NewTable("Player", "Squad", "Gls", "xG")
	tbl.Append(Row{"Player": Text("Alice"), "Squad": Text("Leeds, West"), "Gls": Number(3), "xG": Number(2.5)})
	tbl.Append(Row{"Player": Text("Bob"), "Gls": Number(0)})

	var b strings.Builder
	if err := WriteCSV(&b, tbl); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	want := "Player,Squad,Gls,xG\nAlice,\"Leeds, West\",3,2.5\nBob,,0,\n"
	if b.String() != want {
		t.Errorf("WriteCSV() = %q, want %q", b.String(), want)
	}
}

func TestWriteCSV_HeaderOnly(t *testing.T) {
	var b strings.Builder
	if err := WriteCSV(&b, NewTable("Player", "Gls")); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if b.String() != "Player,Gls\n" {
		t.Errorf("WriteCSV() = %q", b.String())
	}
}
