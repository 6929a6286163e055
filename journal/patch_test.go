package journal

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTradePatch_Apply(t *testing.T) {
	t.Parallel()

	exit := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	orig := Trade{ID: "t", Symbol: "ES", Quantity: 2, Tags: []string{"a"}, ExitAt: exit}

	tags := []string{"b"}
	got := TradePatch{
		Symbol:   Ptr("NQ"),
		Quantity: Ptr(math.NaN()),
		PnL:      Ptr(decimal.NewFromInt(9)),
		Tags:     &tags,
		ExitAt:   Ptr(time.Time{}),
	}.Apply(orig)

	assert.Equal(t, "NQ", got.Symbol)
	assert.Zero(t, got.Quantity, "non-finite input becomes zero")
	assert.True(t, got.PnL.Equal(decimal.NewFromInt(9)))
	assert.Equal(t, []string{"b"}, got.Tags)
	assert.True(t, got.ExitAt.IsZero(), "zero time clears the exit")

	tags[0] = "mutated"
	assert.Equal(t, "b", got.Tags[0])
	assert.Equal(t, "ES", orig.Symbol)
	assert.Equal(t, []string{"a"}, orig.Tags)
}

func TestTradePatch_IsEmpty(t *testing.T) {
	t.Parallel()

	assert.True(t, TradePatch{}.IsEmpty())
	assert.True(t, TradePatch{ID: "x"}.IsEmpty())
	assert.False(t, TradePatch{Notes: Ptr("")}.IsEmpty())
}

func TestAccountPatch_Apply(t *testing.T) {
	t.Parallel()

	a := Account{ID: "a", Name: "Main", Currency: "USD"}
	got := AccountPatch{Name: Ptr("Renamed"), Status: Ptr(StatusDisabled)}.Apply(a)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, StatusDisabled, got.Status)
	assert.Equal(t, "USD", got.Currency)
	assert.Equal(t, "Main", a.Name)
}
