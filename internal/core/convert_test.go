package core

import (
	"math"
	"testing"
)

func TestExtractNumber(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		// Plain numbers
		{"integer", "15", 15, true},
		{"decimal", "0.45", 0.45, true},
		{"leading dot", ".5", 0.5, true},
		{"trailing dot", "12.", 12, true},
		{"negative", "-3", -3, true},
		{"surrounding whitespace", "  7 ", 7, true},

		// Text around the number
		{"unit suffix", "15 matches", 15, true},
		{"label prefix", "Goals: 12", 12, true},
		{"age with days", "25-123", 25, true},
		{"first number wins", "3 of 10", 3, true},

		// CSV artifacts
		{"excel formula", `="2345"`, 2345, true},
		{"quoted", `"90"`, 90, true},
		{"thousands separator", "2,345", 2345, true},
		{"millions separator", "1,234,567", 1234567, true},

		// No number
		{"empty", "", 0, false},
		{"placeholder dash", "-", 0, false},
		{"words only", "unknown", 0, false},
		{"whitespace only", "   ", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractNumber(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ExtractNumber(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ExtractNumber(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input  string
		want   float64
		wantOK bool
	}{
		{"15", 15, true},
		{" 15 ", 15, true},
		{"-0.5", -0.5, true},
		{"+4", 4, true},
		{"1e3", 1000, true},
		{"15 matches", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"", 0, false},
		{"2,345", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseNumber(tt.input)
		if ok != tt.wantOK {
			t.Errorf("ParseNumber(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("ParseNumber(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestCoerceNumber(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want Value
	}{
		{"number stays", Number(7), Number(7)},
		{"numeric text", Text("7.5"), Number(7.5)},
		{"non-numeric text", Text("seven"), Missing()},
		{"partly numeric text", Text("7 goals"), Missing()},
		{"missing stays", Missing(), Missing()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CoerceNumber(tt.in); !got.Equal(tt.want) {
				t.Errorf("CoerceNumber(%v) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{15, "15"},
		{0.45, "0.45"},
		{-3, "-3"},
		{1234567, "1234567"},
		{1e21, "1000000000000000000000"},
	}

	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatNumber_RoundTrip(t *testing.T) {
	for _, f := range []float64{0.1, 1.0 / 3, 73, 2345.75, 1e-7} {
		s := FormatNumber(f)
		got, ok := ParseNumber(s)
		if !ok || got != f {
			t.Errorf("ParseNumber(FormatNumber(%v)) = %v, %v; want %v", f, got, ok, f)
		}
		ext, ok := ExtractNumber(s)
		if !ok || ext != f {
			t.Errorf("ExtractNumber(FormatNumber(%v)) = %v, %v; want %v", f, ext, ok, f)
		}
	}
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple string unchanged", "Player", "Player"},
		{"empty string", "", ""},
		{"surrounded by whitespace", "  Gls  ", "Gls"},
		{"excel formula with quotes", `="Haaland"`, "Haaland"},
		{"excel formula number as text", `="12345"`, "12345"},
		{"bare equals sign", "=73", "73"},
		{"double quotes removed", `"Squad"`, "Squad"},
		{"single quotes removed", "'Squad'", "Squad"},
		{"whitespace inside quotes", `" Min "`, "Min"},
		{"symbols kept", "G+A-PK_90", "G+A-PK_90"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
