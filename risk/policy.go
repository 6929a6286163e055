package risk

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradejournal/journal"
)

// Policy limits what a new trade may risk. Zero disables a limit.
type Policy struct {
	MaxRiskPct       float64 `json:"max_risk_pct" yaml:"max_risk_pct"`
	MaxOpenTrades    int     `json:"max_open_trades" yaml:"max_open_trades"`
	MaxDailyLossPct  float64 `json:"max_daily_loss_pct" yaml:"max_daily_loss_pct"`
	MaxWeeklyLossPct float64 `json:"max_weekly_loss_pct" yaml:"max_weekly_loss_pct"`
}

func DefaultPolicy() Policy {
	return Policy{
		MaxRiskPct:       2,
		MaxOpenTrades:    3,
		MaxDailyLossPct:  3,
		MaxWeeklyLossPct: 6,
	}
}

type Violation struct {
	Code string
	Msg  string
}

type Decision struct {
	Allowed    bool
	Violations []Violation
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Evaluate checks t against p. history holds the account's other trades;
// loss limits use the realized P/L of the day and ISO week containing now,
// in now's location, and apply only to a positive deposit.
func Evaluate(p Policy, t journal.Trade, deposit decimal.Decimal, history []journal.Trade, now time.Time) Decision {
	d := Decision{Allowed: true}

	if p.MaxRiskPct > 0 && t.RiskPct > p.MaxRiskPct {
		d.add("RISK_TOO_HIGH",
			fmt.Sprintf("risk %.2f%% exceeds max %.2f%%", t.RiskPct, p.MaxRiskPct))
	}

	open := 0
	var day, week decimal.Decimal
	y, w := now.ISOWeek()
	for _, h := range history {
		if h.AccountID != t.AccountID || h.ID == t.ID {
			continue
		}
		if h.ExitAt.IsZero() {
			open++
			continue
		}
		at := h.ExitAt.In(now.Location())
		if hy, hw := at.ISOWeek(); hy == y && hw == w {
			week = week.Add(h.PnL)
			if at.Year() == now.Year() && at.YearDay() == now.YearDay() {
				day = day.Add(h.PnL)
			}
		}
	}

	if p.MaxOpenTrades > 0 && t.ExitAt.IsZero() && open >= p.MaxOpenTrades {
		d.add("TOO_MANY_OPEN_TRADES",
			fmt.Sprintf("open trades %d >= max %d", open, p.MaxOpenTrades))
	}
	if !deposit.IsPositive() {
		return d
	}
	if limit := lossLimit(deposit, p.MaxDailyLossPct); p.MaxDailyLossPct > 0 && day.LessThanOrEqual(limit) {
		d.add("DAILY_LOSS_LIMIT", fmt.Sprintf("day realized %s <= limit %s", day.StringFixed(2), limit.StringFixed(2)))
	}
	if limit := lossLimit(deposit, p.MaxWeeklyLossPct); p.MaxWeeklyLossPct > 0 && week.LessThanOrEqual(limit) {
		d.add("WEEKLY_LOSS_LIMIT", fmt.Sprintf("week realized %s <= limit %s", week.StringFixed(2), limit.StringFixed(2)))
	}

	return d
}

func lossLimit(deposit decimal.Decimal, pct float64) decimal.Decimal {
	return Amount(deposit, pct).Neg()
}
