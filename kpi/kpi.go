// Package kpi aggregates trade lists into the figures the journal views show.
// Every function is pure; callers pass the current time where it matters.
package kpi

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradejournal/journal"
)

// DefaultCurrency is used when an account carries none.
const DefaultCurrency = "USD"

// Kpis summarizes a trade list.
type Kpis struct {
	Equity   decimal.Decimal `json:"equity"`
	TotalPnL decimal.Decimal `json:"totalPnl"`
	WinRate  float64         `json:"winRate"`
	Count    int             `json:"count"`
	Wins     int             `json:"wins"`
	Losses   int             `json:"losses"`
	Deltas   Deltas          `json:"deltas"`
	Currency string          `json:"currency"`

	Buckets    []Bucket `json:"buckets"`
	ByStrategy []Slice  `json:"byStrategy"`
	BySymbol   []Slice  `json:"bySymbol"`
}

// Deltas compare the later half of a period with the earlier half.
type Deltas struct {
	EquityDelta  decimal.Decimal `json:"equityDelta"`
	WinRateDelta float64         `json:"winRateDelta"`
	CountDelta   int             `json:"countDelta"`
	PnLDelta     decimal.Decimal `json:"pnlDelta"`
}

// Slice is one category of a distribution.
type Slice struct {
	Key   string          `json:"key"`
	PnL   decimal.Decimal `json:"pnl"`
	Count int             `json:"count"`
}

// Compute aggregates trades. An empty list yields zeroes with Equity equal
// to startingEquity.
func Compute(trades []journal.Trade, startingEquity decimal.Decimal, currency string) Kpis {
	if currency == "" {
		currency = DefaultCurrency
	}

	k := Kpis{
		Currency:   currency,
		Buckets:    Bucketize(trades, AutoGranularity(trades)),
		ByStrategy: GroupPnL(trades, func(t journal.Trade) string { return t.Strategy }, false),
		BySymbol:   GroupPnL(trades, func(t journal.Trade) string { return t.Symbol }, false),
	}

	s := summarize(trades)
	k.TotalPnL = s.pnl
	k.Equity = startingEquity.Add(s.pnl)
	k.Count = s.count
	k.Wins = s.wins
	k.Losses = s.losses
	k.WinRate = s.winRate()
	k.Deltas = deltas(trades)
	return k
}

type summary struct {
	pnl                 decimal.Decimal
	count, wins, losses int
}

func summarize(trades []journal.Trade) summary {
	s := summary{pnl: decimal.Zero}
	for _, t := range trades {
		s.pnl = s.pnl.Add(t.PnL)
		s.count++
		switch t.PnL.Sign() {
		case 1:
			s.wins++
		case -1:
			s.losses++
		}
	}
	return s
}

func (s summary) winRate() float64 {
	if s.count == 0 {
		return 0
	}
	return float64(s.wins) / float64(s.count)
}

// deltas splits the chronological list at n/2. Equity of each half is
// measured from the same base, so EquityDelta equals PnLDelta.
func deltas(trades []journal.Trade) Deltas {
	d := Deltas{EquityDelta: decimal.Zero, PnLDelta: decimal.Zero}
	if len(trades) <= 2 {
		return d
	}

	sorted := Chronological(trades)
	mid := len(sorted) / 2
	first, second := summarize(sorted[:mid]), summarize(sorted[mid:])

	d.PnLDelta = second.pnl.Sub(first.pnl)
	d.EquityDelta = d.PnLDelta
	d.WinRateDelta = second.winRate() - first.winRate()
	d.CountDelta = second.count - first.count
	return d
}

// Chronological returns a copy sorted by effective time, stable for ties.
func Chronological(trades []journal.Trade) []journal.Trade {
	out := slices.Clone(trades)
	slices.SortStableFunc(out, func(a, b journal.Trade) int {
		return a.EffectiveAt().Compare(b.EffectiveAt())
	})
	return out
}

// GroupPnL sums P&L per key. With positiveOnly each trade contributes
// max(0, pnl), which is what the distribution chart shows.
func GroupPnL(trades []journal.Trade, key func(journal.Trade) string, positiveOnly bool) []Slice {
	idx := map[string]int{}
	out := []Slice{}
	for _, t := range trades {
		k := key(t)
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, Slice{Key: k, PnL: decimal.Zero})
		}
		pnl := t.PnL
		if positiveOnly && pnl.IsNegative() {
			pnl = decimal.Zero
		}
		out[i].PnL = out[i].PnL.Add(pnl)
		out[i].Count++
	}
	slices.SortFunc(out, func(a, b Slice) int { return cmp.Compare(a.Key, b.Key) })
	return out
}

// Unassigned labels trades whose account is empty or unknown.
const Unassigned = "Unassigned"

// ByAccount sums P&L per account name. Trades pointing at no known account
// are grouped under Unassigned.
func ByAccount(trades []journal.Trade, accounts []journal.Account) []Slice {
	names := make(map[string]string, len(accounts))
	for _, a := range accounts {
		names[a.ID] = a.Name
	}
	return GroupPnL(trades, func(t journal.Trade) string {
		if n, ok := names[t.AccountID]; ok && t.AccountID != "" {
			return n
		}
		return Unassigned
	}, false)
}
