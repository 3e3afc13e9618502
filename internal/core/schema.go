package core

// schema.go declares the recognized football-stats columns and the domain
// limits used to correct them.

// Identity and tie-break columns.
const (
	ColPlayer = "Player"
	ColMin    = "Min"
	ColMP     = "MP"
	ColAge    = "Age"
	ColGls    = "Gls"
)

// MissingSentinel replaces missing values in text columns.
const MissingSentinel = "Unknown"

// Plausible human age range for a professional player.
const (
	MinPlausibleAge = 15
	MaxPlausibleAge = 50
)

// Record limits: the highest value a player can plausibly post in one season.
// Values above these are data-entry errors and are clipped.
const (
	RecordAge           = 40
	RecordGoals         = 73
	RecordAssists       = 21
	RecordGoalsAssists  = 80
	RecordYellowCards   = 17
	RecordExpectedGoals = 34
)

// RecordLimit caps a single column.
type RecordLimit struct {
	Column string  `json:"column"`
	Max    float64 `json:"max"`
}

// DefaultRecordLimits returns the canonical record-limit table in the order
// the outlier stage applies it.
func DefaultRecordLimits() []RecordLimit {
	return []RecordLimit{
		{Column: ColAge, Max: RecordAge},
		{Column: ColGls, Max: RecordGoals},
		{Column: "Ast", Max: RecordAssists},
		{Column: "G+A", Max: RecordGoalsAssists},
		{Column: "CrdY", Max: RecordYellowCards},
		{Column: "xG", Max: RecordExpectedGoals},
	}
}

// NumericColumns must hold numbers; unparseable text becomes missing.
var NumericColumns = []string{
	"MP", "Starts", "Min", "90s", "Gls", "Ast", "G+A", "G-PK", "PK", "PKatt", "CrdY", "CrdR",
	"xG", "npxG", "xAG", "npxG+xAG", "PrgC", "PrgP", "PrgR",
	"Gls_90", "Ast_90", "G+A_90", "G-PK_90", "G+A-PK_90", "xG_90", "xAG_90", "xG+xAG_90",
	"npxG_90", "npxG+xAG_90",
	"Age",
}

// TextColumns are trimmed strings; missing values become MissingSentinel.
var TextColumns = []string{ColPlayer, "Nation", "Pos", "Squad", "Comp"}

// CountColumns are countable metrics where a missing value means zero.
var CountColumns = []string{ColGls, "Ast", ColMP, ColMin}

// TieBreakColumns rank duplicate rows of one player, most playing time first.
var TieBreakColumns = []string{ColMin, ColMP}

// ExpectedColumns is the full column set of a season-stats export.
var ExpectedColumns = []string{
	"Rk", "Player", "Nation", "Pos", "Squad", "Comp", "Age", "Born", "MP", "Starts", "Min", "90s",
	"Gls", "Ast", "G+A", "G-PK", "PK", "PKatt", "CrdY", "CrdR", "xG", "npxG", "xAG", "npxG+xAG",
	"PrgC", "PrgP", "PrgR",
	"Gls_90", "Ast_90", "G+A_90", "G-PK_90", "G+A-PK_90", "xG_90", "xAG_90", "xG+xAG_90",
	"npxG_90", "npxG+xAG_90",
}

// placeholders are text values treated as missing.
var placeholders = map[string]bool{"": true, "-": true}
