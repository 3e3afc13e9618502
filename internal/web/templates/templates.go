// Package templates renders the HTML fragments returned to HTMX requests.
//
// Components are plain templ.Components built with templ.ComponentFunc, so
// the package needs no code generation step.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/soccerstat/internal/core"
	"github.com/a-h/templ"
)

// ErrorAlert renders a dismissable error box with the user message, the
// suggested action and the support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="alert alert-error" role="alert">`)
		fmt.Fprintf(&b, `<p class="alert-message">%s</p>`, templ.EscapeString(message))
		if action != "" {
			fmt.Fprintf(&b, `<p class="alert-action">%s</p>`, templ.EscapeString(action))
		}
		fmt.Fprintf(&b, `<p class="alert-code">Code: %s</p>`, templ.EscapeString(code))
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// CleanReport renders the outcome of one clean: the row summary, header
// warnings, every diagnostic and download links for the cleaned file.
func CleanReport(out *core.CleanOutcome) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		s := out.Summary

		fmt.Fprintf(&b, `<section class="clean-report" id="run-%s">`, templ.EscapeString(out.RunID))
		fmt.Fprintf(&b, `<h2>%s</h2>`, templ.EscapeString(out.FileName))

		b.WriteString(`<dl class="summary">`)
		summaryItem(&b, "Rows read", s.RowsIn)
		summaryItem(&b, "Rows removed", s.RowsRemoved)
		summaryItem(&b, "Rows remaining", s.RowsOut)
		summaryItem(&b, "Columns kept", s.ColumnsOut)
		b.WriteString(`</dl>`)

		if out.Degraded() {
			b.WriteString(`<p class="alert alert-warning">Some cleaning steps failed and were skipped. The table may be only partly cleaned.</p>`)
		}
		if !out.Headers.Identifiable {
			b.WriteString(`<p class="alert alert-warning">No Player column: duplicate players could not be resolved.</p>`)
		}
		if len(out.Headers.Missing) > 0 {
			fmt.Fprintf(&b, `<p class="missing-columns">Missing columns: %s</p>`,
				templ.EscapeString(strings.Join(out.Headers.Missing, ", ")))
		}

		if len(out.Diagnostics) == 0 {
			b.WriteString(`<p class="diagnostics-empty">No corrections were needed.</p>`)
		} else {
			b.WriteString(`<table class="diagnostics"><thead><tr><th>Stage</th><th>Code</th><th>Correction</th></tr></thead><tbody>`)
			for _, d := range out.Diagnostics {
				class := ""
				if d.Failed() {
					class = ` class="failed"`
				}
				fmt.Fprintf(&b, `<tr%s><td>%s</td><td>%s</td><td>%s</td></tr>`, class,
					templ.EscapeString(d.Stage), templ.EscapeString(d.Code), templ.EscapeString(d.Message))
			}
			b.WriteString(`</tbody></table>`)
		}

		fmt.Fprintf(&b, `<p class="run-id">Run %s</p>`, templ.EscapeString(out.RunID))
		b.WriteString(`</section>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

func summaryItem(b *strings.Builder, label string, n int) {
	fmt.Fprintf(b, `<dt>%s</dt><dd>%d</dd>`, label, n)
}
