package kpi

import (
	"time"

	"github.com/rustyeddy/tradejournal/journal"
	"github.com/shopspring/decimal"
)

// DefaultWindow is the trade count MovingWinRate uses when window < 1.
const DefaultWindow = 20

// Point is one sample of a chart series.
type Point struct {
	At    time.Time `json:"at"`
	Value float64   `json:"value"`
}

// EquityCurve is the running balance after each trade, oldest first.
func EquityCurve(trades []journal.Trade, startingEquity decimal.Decimal) []Point {
	out := make([]Point, 0, len(trades))
	running := startingEquity
	for _, t := range Chronological(trades) {
		running = running.Add(t.PnL)
		out = append(out, Point{At: t.EffectiveAt(), Value: running.InexactFloat64()})
	}
	return out
}

// CumulativeWinRate is wins/count over every trade up to each point.
func CumulativeWinRate(trades []journal.Trade) []Point {
	out := make([]Point, 0, len(trades))
	wins := 0
	for i, t := range Chronological(trades) {
		if t.PnL.IsPositive() {
			wins++
		}
		out = append(out, Point{At: t.EffectiveAt(), Value: float64(wins) / float64(i+1)})
	}
	return out
}

// MovingWinRate is the win rate over the last window trades at each point.
// Points before the window fills use every trade so far.
func MovingWinRate(trades []journal.Trade, window int) []Point {
	if window < 1 {
		window = DefaultWindow
	}
	sorted := Chronological(trades)
	out := make([]Point, 0, len(sorted))
	wins := 0
	for i, t := range sorted {
		if t.PnL.IsPositive() {
			wins++
		}
		if i >= window && sorted[i-window].PnL.IsPositive() {
			wins--
		}
		n := min(i+1, window)
		out = append(out, Point{At: t.EffectiveAt(), Value: float64(wins) / float64(n)})
	}
	return out
}
