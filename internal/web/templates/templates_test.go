package templates

import (
	"context"
	"strings"
	"testing"

	"github.com/JonMunkholm/soccerstat/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorAlert_EscapesContent(t *testing.T) {
	var b strings.Builder
	require.NoError(t, ErrorAlert("<b>bad</b>", "retry", "FILE002").Render(context.Background(), &b))

	html := b.String()
	assert.Contains(t, html, "&lt;b&gt;bad&lt;/b&gt;")
	assert.NotContains(t, html, "<b>")
	assert.Contains(t, html, "Code: FILE002")
}

func TestCleanReport(t *testing.T) {
	out := &core.CleanOutcome{
		RunID:    "run-1",
		FileName: "players.csv",
		Summary:  core.Summary{RowsIn: 10, RowsOut: 8, RowsRemoved: 2, ColumnsOut: 5},
		Diagnostics: core.Diagnostics{
			{Stage: core.StageOutliers, Code: core.CodeOutliersClipped, Count: 1, Message: "1 outlier clipped for column Gls (record limit 73)"},
			{Stage: core.StageMissing, Code: core.CodeStageFailed, Message: "missing values failed and was skipped: boom"},
		},
		Headers: core.HeaderReport{Identifiable: true, Missing: []string{"xG"}},
	}

	var b strings.Builder
	require.NoError(t, CleanReport(out).Render(context.Background(), &b))
	html := b.String()

	assert.Contains(t, html, "players.csv")
	assert.Contains(t, html, "<dt>Rows removed</dt><dd>2</dd>")
	assert.Contains(t, html, "record limit 73")
	assert.Contains(t, html, `class="failed"`)
	assert.Contains(t, html, "partly cleaned")
	assert.Contains(t, html, "Missing columns: xG")
}

func TestCleanReport_NoDiagnostics(t *testing.T) {
	out := &core.CleanOutcome{RunID: "run-2", FileName: "clean.csv", Headers: core.HeaderReport{Identifiable: true}}

	var b strings.Builder
	require.NoError(t, CleanReport(out).Render(context.Background(), &b))

	assert.Contains(t, b.String(), "No corrections were needed")
	assert.NotContains(t, b.String(), "alert-warning")
}
