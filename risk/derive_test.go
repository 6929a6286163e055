package risk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/tradejournal/journal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAmountAndNet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		deposit string
		riskPct float64
		r       float64
		amount  string
		net     string
	}{
		{"one percent 2R", "10000", 1, 2, "100", "200"},
		{"half percent loss", "5000", 0.5, -1, "25", "-25"},
		{"no risk", "5000", 0, 3, "0", "0"},
		{"rounded to cents", "333", 1, 1.5, "3.33", "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.True(t, d(tt.amount).Equal(Amount(d(tt.deposit), tt.riskPct)), "amount %s", Amount(d(tt.deposit), tt.riskPct))
			assert.True(t, d(tt.net).Equal(Net(d(tt.deposit), tt.riskPct, tt.r)), "net %s", Net(d(tt.deposit), tt.riskPct, tt.r))
		})
	}
}

func TestProfitPct(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 3.0, ProfitPct(1.5, 2), 1e-12)
	assert.InDelta(t, 0.0, ProfitPct(0, 2), 1e-12)
}

func TestRMultiple(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 2.5, RMultiple(d("250"), d("100")), 1e-9)
	assert.InDelta(t, -1.0, RMultiple(d("-100"), d("100")), 1e-9)
	assert.Zero(t, RMultiple(d("50"), decimal.Zero))
}

func TestDerive(t *testing.T) {
	t.Parallel()

	deposit := d("10000")

	got := Derive(journal.Trade{RiskPct: 1, R: 2}, deposit)
	assert.True(t, got.RiskAmount.Equal(d("100")))
	assert.True(t, got.PnL.Equal(d("200")))
	assert.InDelta(t, 2.0, got.R, 1e-12)

	got = Derive(journal.Trade{RiskPct: 1, PnL: d("-50")}, deposit)
	assert.True(t, got.RiskAmount.Equal(d("100")))
	assert.True(t, got.PnL.Equal(d("-50")), "given P/L is kept")
	assert.InDelta(t, -0.5, got.R, 1e-9)

	got = Derive(journal.Trade{RiskAmount: d("40"), PnL: d("80")}, deposit)
	assert.InDelta(t, 2.0, got.R, 1e-9)
	assert.True(t, got.RiskAmount.Equal(d("40")))

	got = Derive(journal.Trade{PnL: d("80")}, deposit)
	assert.Zero(t, got.R)
	assert.True(t, got.RiskAmount.IsZero())
}
