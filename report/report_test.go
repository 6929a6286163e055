package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/kpi"
)

func sampleReport() Report {
	day := time.Date(2024, 7, 1, 15, 0, 0, 0, time.UTC)
	trades := []journal.Trade{
		{ID: "a", Symbol: "ES", Strategy: "orb", PnL: decimal.NewFromInt(100), Result: journal.Win, EntryAt: day},
		{ID: "b", Symbol: "NQ", Strategy: "orb", PnL: decimal.NewFromInt(-40), Result: journal.Loss, EntryAt: day.Add(time.Hour)},
		{ID: "c", Symbol: "ES", PnL: decimal.NewFromInt(60), Result: journal.Win, EntryAt: day.Add(2 * time.Hour)},
	}
	return Report{
		Account:   "Main",
		Period:    journal.PeriodAll,
		Generated: day,
		Kpis:      kpi.Compute(trades, decimal.NewFromInt(1000), "USD"),
		Goals:     []journal.Goal{{Title: "Ten trades", Target: 10, Unit: journal.UnitTrades, Progress: 3}},
	}
}

func TestFormatMoney(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "$1,120.00", FormatMoney(decimal.NewFromInt(1120), "USD"))
	assert.Equal(t, "$0.13", FormatMoney(decimal.RequireFromString("0.125"), "USD"))
	assert.Equal(t, "-$40.00", FormatMoney(decimal.NewFromInt(-40), "USD"))
	assert.Equal(t, "+$5.00", SignedMoney(decimal.NewFromInt(5), "USD"))
	assert.Equal(t, "12.50 ZZZ", FormatMoney(decimal.RequireFromString("12.5"), "ZZZ"))
}

func TestWriteMarkdown(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, sampleReport().WriteMarkdown(&buf))
	out := buf.String()

	assert.Contains(t, out, "# KPI Report: Main")
	assert.Contains(t, out, "| Equity    | $1,120.00 |")
	assert.Contains(t, out, "| Win Rate  | 66.7% |")
	assert.Contains(t, out, "| Trades    | 3 |")
	assert.Contains(t, out, "## By Strategy")
	assert.Contains(t, out, "| (none) | +$60.00 | 1 |")
	assert.Contains(t, out, "| orb | +$60.00 | 2 |")
	assert.Contains(t, out, "- [ ] Ten trades: 3/10 trades")
	assert.NotContains(t, out, "## Notes")
}

func TestWriteMarkdown_Empty(t *testing.T) {
	t.Parallel()

	r := Report{Period: journal.PeriodAll, Kpis: kpi.Compute(nil, decimal.NewFromInt(500), "")}
	var buf bytes.Buffer
	require.NoError(t, r.WriteMarkdown(&buf))
	out := buf.String()

	assert.Contains(t, out, "(all trades)")
	assert.Contains(t, out, "$500.00")
	assert.NotContains(t, out, "## P/L Over Time")
	assert.NotContains(t, out, "## By Symbol")
}

func TestPrintSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	PrintSummary(&buf, sampleReport())
	out := buf.String()

	assert.Contains(t, out, "Account:       Main")
	assert.Contains(t, out, "Equity:        $1,120.00")
	assert.Contains(t, out, "Net P/L:       +$120.00")
	assert.Contains(t, out, "Win Rate:      66.7%")
	assert.Contains(t, out, "Trades:        3")
}
