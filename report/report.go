// Package report renders KPI summaries for the terminal and as markdown.
package report

import (
	"fmt"
	"io"
	"text/template"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/kpi"
)

// Report is everything one KPI report shows.
type Report struct {
	Account   string
	Period    journal.Period
	Generated time.Time
	Kpis      kpi.Kpis
	Goals     []journal.Goal
	Notes     string
}

func (r Report) funcs() template.FuncMap {
	return template.FuncMap{
		"money":  func(d decimal.Decimal) string { return FormatMoney(d, r.Kpis.Currency) },
		"signed": func(d decimal.Decimal) string { return SignedMoney(d, r.Kpis.Currency) },
		"pct":    func(x float64) string { return fmt.Sprintf("%.1f%%", x*100) },
		"spct":   func(x float64) string { return fmt.Sprintf("%+.1f%%", x*100) },
		"orKey": func(k string) string {
			if k == "" {
				return "(none)"
			}
			return k
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.Format("2006-01-02")
		},
	}
}

// WriteMarkdown renders r as a markdown document.
func (r Report) WriteMarkdown(w io.Writer) error {
	t, err := template.New("kpi").Funcs(r.funcs()).Parse(MarkdownTemplate)
	if err != nil {
		return fmt.Errorf("parse report template: %w", err)
	}
	if err := t.Execute(w, r); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

const MarkdownTemplate = `# KPI Report: {{if .Account}}{{.Account}}{{else}}(all trades){{end}}

- Period: {{.Period}}
- Generated: {{.Generated.Format "2006-01-02 15:04"}}

## Summary
| Metric    | Value | Change |
|-----------|-------|--------|
| Equity    | {{money .Kpis.Equity}} | {{signed .Kpis.Deltas.EquityDelta}} |
| Net P/L   | {{signed .Kpis.TotalPnL}} | {{signed .Kpis.Deltas.PnLDelta}} |
| Win Rate  | {{pct .Kpis.WinRate}} | {{spct .Kpis.Deltas.WinRateDelta}} |
| Trades    | {{.Kpis.Count}} | {{printf "%+d" .Kpis.Deltas.CountDelta}} |
| Wins      | {{.Kpis.Wins}} | |
| Losses    | {{.Kpis.Losses}} | |

{{- if .Kpis.Buckets}}

## P/L Over Time
| Bucket | P/L | Trades | Wins | Losses |
|--------|-----|--------|------|--------|
{{- range .Kpis.Buckets}}
| {{.Label}} | {{signed .PnLSum}} | {{.Count}} | {{.Wins}} | {{.Losses}} |
{{- end}}
{{- end}}

{{- if .Kpis.ByStrategy}}

## By Strategy
| Strategy | P/L | Trades |
|----------|-----|--------|
{{- range .Kpis.ByStrategy}}
| {{orKey .Key}} | {{signed .PnL}} | {{.Count}} |
{{- end}}
{{- end}}

{{- if .Kpis.BySymbol}}

## By Symbol
| Symbol | P/L | Trades |
|--------|-----|--------|
{{- range .Kpis.BySymbol}}
| {{orKey .Key}} | {{signed .PnL}} | {{.Count}} |
{{- end}}
{{- end}}

{{- if .Goals}}

## Goals
{{- range .Goals}}
- [{{if ge .Progress .Target}}x{{else}} {{end}}] {{.Title}}: {{.Progress}}/{{.Target}} {{.Unit}} (due {{date .Due}})
{{- end}}
{{- end}}

{{- if .Notes}}

## Notes
{{.Notes}}
{{- end}}
`

// PrintSummary writes a plain-text summary of r.
func PrintSummary(w io.Writer, r Report) {
	k := r.Kpis
	cur := k.Currency

	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Journal KPIs")
	fmt.Fprintln(w, "==================================================")

	if r.Account != "" {
		fmt.Fprintf(w, "Account:       %s\n", r.Account)
	}
	fmt.Fprintf(w, "Period:        %s\n", r.Period)
	fmt.Fprintf(w, "Currency:      %s\n", cur)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Equity:        %s (%s)\n", FormatMoney(k.Equity, cur), SignedMoney(k.Deltas.EquityDelta, cur))
	fmt.Fprintf(w, "Net P/L:       %s (%s)\n", SignedMoney(k.TotalPnL, cur), SignedMoney(k.Deltas.PnLDelta, cur))
	fmt.Fprintf(w, "Win Rate:      %.1f%% (%+.1f%%)\n", k.WinRate*100, k.Deltas.WinRateDelta*100)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d (%+d)\n", k.Count, k.Deltas.CountDelta)
	fmt.Fprintf(w, "Wins:          %d\n", k.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", k.Losses)

	if len(k.ByStrategy) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "By Strategy")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, s := range k.ByStrategy {
			key := s.Key
			if key == "" {
				key = "(none)"
			}
			fmt.Fprintf(w, "%-14s %s (%d)\n", key, SignedMoney(s.PnL, cur), s.Count)
		}
	}

	fmt.Fprintln(w)
}
