package kpi

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradejournal/journal"
)

var day0 = time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)

// mk builds closed trades one day apart with the given P&L values.
func mk(pnls ...int64) []journal.Trade {
	out := make([]journal.Trade, len(pnls))
	for i, p := range pnls {
		at := day0.AddDate(0, 0, i)
		out[i] = journal.Trade{
			ID:      string(rune('a' + i)),
			Symbol:  "ES",
			PnL:     decimal.NewFromInt(p),
			EntryAt: at.Add(-time.Hour),
			ExitAt:  at,
		}
	}
	return out
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestCompute_Empty(t *testing.T) {
	t.Parallel()

	k := Compute(nil, dec(2500), "")
	assert.True(t, k.Equity.Equal(dec(2500)))
	assert.True(t, k.TotalPnL.IsZero())
	assert.Zero(t, k.WinRate)
	assert.Zero(t, k.Count)
	assert.Equal(t, "USD", k.Currency)
	assert.True(t, k.Deltas.PnLDelta.IsZero())
	assert.Empty(t, k.Buckets)
}

func TestCompute_Totals(t *testing.T) {
	t.Parallel()

	k := Compute(mk(100, -40, 60), dec(1000), "EUR")
	assert.True(t, k.TotalPnL.Equal(dec(120)))
	assert.True(t, k.Equity.Equal(dec(1120)))
	assert.InDelta(t, 2.0/3.0, k.WinRate, 1e-9)
	assert.Equal(t, 3, k.Count)
	assert.Equal(t, 2, k.Wins)
	assert.Equal(t, 1, k.Losses)
	assert.Equal(t, "EUR", k.Currency)
}

func TestCompute_Deltas(t *testing.T) {
	t.Parallel()

	k := Compute(mk(10, 20, -5, 15), dec(0), "USD")
	assert.True(t, k.Deltas.PnLDelta.Equal(dec(-20)), k.Deltas.PnLDelta.String())
	assert.True(t, k.Deltas.EquityDelta.Equal(dec(-20)))
	assert.InDelta(t, -0.5, k.Deltas.WinRateDelta, 1e-9)
	assert.Zero(t, k.Deltas.CountDelta)
}

func TestCompute_DeltasUseChronologicalOrder(t *testing.T) {
	t.Parallel()

	trades := mk(10, 20, -5, 15)
	reversed := []journal.Trade{trades[3], trades[2], trades[1], trades[0]}

	k := Compute(reversed, dec(0), "USD")
	assert.True(t, k.Deltas.PnLDelta.Equal(dec(-20)))
}

func TestCompute_DeltasNeedMoreThanTwo(t *testing.T) {
	t.Parallel()

	k := Compute(mk(10, -30), dec(0), "USD")
	assert.True(t, k.Deltas.PnLDelta.IsZero())
	assert.Zero(t, k.Deltas.WinRateDelta)

	odd := Compute(mk(5, 1, 2), dec(0), "USD")
	// first = [5], second = [1, 2]
	assert.True(t, odd.Deltas.PnLDelta.Equal(dec(-2)))
	assert.Equal(t, 1, odd.Deltas.CountDelta)
}

func TestCompute_OpenTradeUsesEntry(t *testing.T) {
	t.Parallel()

	open := journal.Trade{ID: "o", PnL: dec(0), EntryAt: day0}
	k := Compute([]journal.Trade{open}, dec(10), "USD")
	assert.Equal(t, 1, k.Count)
	require.Len(t, k.Buckets, 1)
	assert.Equal(t, "2024-03-04", k.Buckets[0].Label)
}

func TestGroupPnL(t *testing.T) {
	t.Parallel()

	trades := []journal.Trade{
		{Strategy: "orb", PnL: dec(50)},
		{Strategy: "fade", PnL: dec(-20)},
		{Strategy: "orb", PnL: dec(-10)},
		{Strategy: "", PnL: dec(5)},
	}
	by := func(t journal.Trade) string { return t.Strategy }

	all := GroupPnL(trades, by, false)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"", "fade", "orb"}, []string{all[0].Key, all[1].Key, all[2].Key})
	assert.True(t, all[2].PnL.Equal(dec(40)))
	assert.Equal(t, 2, all[2].Count)

	pos := GroupPnL(trades, by, true)
	assert.True(t, pos[1].PnL.IsZero())
	assert.True(t, pos[2].PnL.Equal(dec(50)))
}

func TestByAccount(t *testing.T) {
	t.Parallel()

	accounts := []journal.Account{{ID: "a", Name: "Main"}}
	trades := []journal.Trade{
		{AccountID: "a", PnL: dec(10)},
		{AccountID: "gone", PnL: dec(3)},
		{AccountID: "", PnL: dec(2)},
	}

	got := ByAccount(trades, accounts)
	require.Len(t, got, 2)
	assert.Equal(t, "Main", got[0].Key)
	assert.Equal(t, Unassigned, got[1].Key)
	assert.True(t, got[1].PnL.Equal(dec(5)))
	assert.Equal(t, 2, got[1].Count)
}
