package kpi

import (
	"time"

	"github.com/rustyeddy/tradejournal/journal"
)

// PeriodStart returns the inclusive lower bound of p relative to now.
// ok is false for ALL and unknown periods, which have no bound.
func PeriodStart(p journal.Period, now time.Time) (time.Time, bool) {
	switch p {
	case journal.Period1D:
		return now.AddDate(0, 0, -1), true
	case journal.Period1W:
		return now.AddDate(0, 0, -7), true
	case journal.Period1M:
		return now.AddDate(0, -1, 0), true
	case journal.Period3M:
		return now.AddDate(0, -3, 0), true
	case journal.PeriodYTD:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()), true
	}
	return time.Time{}, false
}

// FilterByPeriod keeps trades whose effective time falls in [start, now].
// ALL returns the input unchanged.
func FilterByPeriod(trades []journal.Trade, p journal.Period, now time.Time) []journal.Trade {
	start, ok := PeriodStart(p, now)
	if !ok {
		return trades
	}

	out := make([]journal.Trade, 0, len(trades))
	for _, t := range trades {
		at := t.EffectiveAt()
		if at.Before(start) || at.After(now) {
			continue
		}
		out = append(out, t)
	}
	return out
}
