package kpi

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradejournal/journal"
)

// Granularity is the width of a P&L bucket.
type Granularity string

const (
	Daily   Granularity = "day"
	Weekly  Granularity = "week"
	Monthly Granularity = "month"
)

const (
	dailySpan  = 14 * 24 * time.Hour
	weeklySpan = 92 * 24 * time.Hour
)

// Bucket is the P&L of one day, ISO week or month.
type Bucket struct {
	Label  string          `json:"label"`
	PnLSum decimal.Decimal `json:"pnlSum"`
	Count  int             `json:"count"`
	Wins   int             `json:"wins"`
	Losses int             `json:"losses"`
}

// AutoGranularity picks daily buckets for spans up to two weeks, weekly up
// to roughly a quarter and monthly beyond that.
func AutoGranularity(trades []journal.Trade) Granularity {
	if len(trades) == 0 {
		return Daily
	}
	lo, hi := trades[0].EffectiveAt(), trades[0].EffectiveAt()
	for _, t := range trades[1:] {
		at := t.EffectiveAt()
		if at.Before(lo) {
			lo = at
		}
		if at.After(hi) {
			hi = at
		}
	}
	switch span := hi.Sub(lo); {
	case span <= dailySpan:
		return Daily
	case span <= weeklySpan:
		return Weekly
	}
	return Monthly
}

// Label formats t for granularity g: 2006-01-02, 2006-W01 or 2006-01.
func (g Granularity) Label(t time.Time) string {
	switch g {
	case Weekly:
		y, w := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", y, w)
	case Monthly:
		return t.Format("2006-01")
	}
	return t.Format("2006-01-02")
}

// Bucketize groups trades by the label of their effective time, sorted by
// label. Labels are zero padded so lexical order is chronological.
func Bucketize(trades []journal.Trade, g Granularity) []Bucket {
	idx := map[string]int{}
	out := []Bucket{}
	for _, t := range trades {
		label := g.Label(t.EffectiveAt())
		i, ok := idx[label]
		if !ok {
			i = len(out)
			idx[label] = i
			out = append(out, Bucket{Label: label, PnLSum: decimal.Zero})
		}
		b := &out[i]
		b.PnLSum = b.PnLSum.Add(t.PnL)
		b.Count++
		switch t.PnL.Sign() {
		case 1:
			b.Wins++
		case -1:
			b.Losses++
		}
	}
	slices.SortFunc(out, func(a, b Bucket) int { return cmp.Compare(a.Label, b.Label) })
	return out
}
