// Package risk derives risk-based trade figures and checks trades against a
// risk policy. Percentages are in percent units: 1.5 means 1.5%.
package risk

import (
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradejournal/journal"
)

var hundred = decimal.NewFromInt(100)

// Amount is the money at risk: deposit * riskPct%.
func Amount(deposit decimal.Decimal, riskPct float64) decimal.Decimal {
	return deposit.Mul(decimal.NewFromFloat(riskPct)).Div(hundred).Round(2)
}

// ProfitPct is the return on the deposit of a trade risking riskPct that
// made r times its risk.
func ProfitPct(riskPct, r float64) float64 {
	return riskPct * r
}

// Net is the P/L of such a trade: deposit * ProfitPct%.
func Net(deposit decimal.Decimal, riskPct, r float64) decimal.Decimal {
	return deposit.Mul(decimal.NewFromFloat(ProfitPct(riskPct, r))).Div(hundred).Round(2)
}

// RMultiple is pnl in units of the amount risked. It is zero when nothing
// was at risk.
func RMultiple(pnl, riskAmount decimal.Decimal) float64 {
	if riskAmount.IsZero() {
		return 0
	}
	return pnl.Div(riskAmount.Abs()).Round(4).InexactFloat64()
}

// Derive fills the risk figures of t that can be computed from the others
// and the account deposit. Fields already set are kept.
func Derive(t journal.Trade, deposit decimal.Decimal) journal.Trade {
	if t.RiskAmount.IsZero() && t.RiskPct != 0 {
		t.RiskAmount = Amount(deposit, t.RiskPct)
	}
	if t.PnL.IsZero() && t.RiskPct != 0 && t.R != 0 {
		t.PnL = Net(deposit, t.RiskPct, t.R)
	}
	if t.R == 0 {
		t.R = RMultiple(t.PnL, t.RiskAmount)
	}
	return t
}
