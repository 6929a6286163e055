package risk

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/tradejournal/journal"
)

func codes(dec Decision) []string {
	var out []string
	for _, v := range dec.Violations {
		out = append(out, v.Code)
	}
	return out
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 7, 3, 15, 0, 0, 0, time.UTC) // Wednesday
	closed := func(id string, at time.Time, pnl int64) journal.Trade {
		return journal.Trade{ID: id, AccountID: "a1", EntryAt: at, ExitAt: at, PnL: decimal.NewFromInt(pnl)}
	}
	open := func(id string) journal.Trade {
		return journal.Trade{ID: id, AccountID: "a1", EntryAt: now}
	}
	deposit := decimal.NewFromInt(10000)
	p := DefaultPolicy()

	tests := []struct {
		name    string
		trade   journal.Trade
		history []journal.Trade
		want    []string
	}{
		{
			name:  "within limits",
			trade: journal.Trade{AccountID: "a1", RiskPct: 1},
			history: []journal.Trade{
				closed("h1", now.Add(-time.Hour), -100),
				open("h2"),
			},
		},
		{
			name:  "risk too high",
			trade: journal.Trade{AccountID: "a1", RiskPct: 2.5},
			want:  []string{"RISK_TOO_HIGH"},
		},
		{
			name:    "too many open trades",
			trade:   journal.Trade{AccountID: "a1", RiskPct: 1},
			history: []journal.Trade{open("o1"), open("o2"), open("o3")},
			want:    []string{"TOO_MANY_OPEN_TRADES"},
		},
		{
			name:    "open trades of other accounts do not count",
			trade:   journal.Trade{AccountID: "a2", RiskPct: 1},
			history: []journal.Trade{open("o1"), open("o2"), open("o3")},
		},
		{
			name:  "daily loss limit",
			trade: journal.Trade{AccountID: "a1", RiskPct: 1},
			history: []journal.Trade{
				closed("h1", now.Add(-2*time.Hour), -200),
				closed("h2", now.Add(-time.Hour), -100),
			},
			want: []string{"DAILY_LOSS_LIMIT"},
		},
		{
			name:  "weekly loss limit from earlier days",
			trade: journal.Trade{AccountID: "a1", RiskPct: 1},
			history: []journal.Trade{
				closed("h1", now.AddDate(0, 0, -1), -400),
				closed("h2", now.AddDate(0, 0, -2), -250),
				closed("h3", now.AddDate(0, 0, -7), -5000), // previous week
			},
			want: []string{"WEEKLY_LOSS_LIMIT"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dec := Evaluate(p, tt.trade, deposit, tt.history, now)
			assert.Equal(t, tt.want, codes(dec))
			assert.Equal(t, len(tt.want) == 0, dec.Allowed)
		})
	}
}

func TestEvaluate_ZeroPolicyAllowsEverything(t *testing.T) {
	t.Parallel()

	now := time.Now()
	history := []journal.Trade{{ID: "x", AccountID: "a1", ExitAt: now, PnL: decimal.NewFromInt(-1_000_000)}}
	dec := Evaluate(Policy{}, journal.Trade{AccountID: "a1", RiskPct: 50}, decimal.NewFromInt(100), history, now)
	assert.True(t, dec.Allowed)
	assert.Empty(t, dec.Violations)
}

func TestEvaluate_NoDepositSkipsLossLimits(t *testing.T) {
	t.Parallel()

	dec := Evaluate(DefaultPolicy(), journal.Trade{AccountID: "a1"}, decimal.Zero, nil, time.Now())
	assert.True(t, dec.Allowed)
}
