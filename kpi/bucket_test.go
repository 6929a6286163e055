package kpi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradejournal/journal"
)

func at(ts ...time.Time) []journal.Trade {
	out := make([]journal.Trade, len(ts))
	for i, t := range ts {
		out[i] = journal.Trade{EntryAt: t, PnL: dec(int64(i + 1))}
	}
	return out
}

func TestAutoGranularity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Daily, AutoGranularity(nil))
	assert.Equal(t, Daily, AutoGranularity(at(day0, day0.AddDate(0, 0, 14))))
	assert.Equal(t, Weekly, AutoGranularity(at(day0, day0.AddDate(0, 0, 15))))
	assert.Equal(t, Weekly, AutoGranularity(at(day0.AddDate(0, 0, 92), day0)))
	assert.Equal(t, Monthly, AutoGranularity(at(day0, day0.AddDate(0, 0, 93))))
}

func TestGranularity_Label(t *testing.T) {
	t.Parallel()

	// 2021-01-03 is in ISO week 53 of 2020.
	d := time.Date(2021, 1, 3, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2021-01-03", Daily.Label(d))
	assert.Equal(t, "2020-W53", Weekly.Label(d))
	assert.Equal(t, "2021-01", Monthly.Label(d))
}

func TestBucketize(t *testing.T) {
	t.Parallel()

	trades := []journal.Trade{
		{EntryAt: day0.AddDate(0, 1, 0), PnL: dec(-4)},
		{EntryAt: day0, PnL: dec(10)},
		{EntryAt: day0.Add(2 * time.Hour), PnL: dec(-3)},
		{EntryAt: day0.AddDate(0, 0, 1), PnL: dec(0)},
	}

	got := Bucketize(trades, Monthly)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-03", got[0].Label)
	assert.True(t, got[0].PnLSum.Equal(dec(7)))
	assert.Equal(t, 3, got[0].Count)
	assert.Equal(t, 1, got[0].Wins)
	assert.Equal(t, 1, got[0].Losses)
	assert.Equal(t, "2024-04", got[1].Label)

	daily := Bucketize(trades, Daily)
	require.Len(t, daily, 3)
	assert.Equal(t, "2024-03-04", daily[0].Label)
	assert.Equal(t, 2, daily[0].Count)
}
