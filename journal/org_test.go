package journal

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	tr := Trade{
		ID:        "01HZXABCDEFG",
		AccountID: "a1",
		Symbol:    "GBPUSD",
		Strategy:  "sweep",
		Side:      Long,
		Quantity:  1,
		R:         1.5,
		PnL:       decimal.NewFromInt(75),
		EntryAt:   time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC),
		Result:    Win,
		Tags:      []string{"a"},
		Notes:     "clean entry",
	}

	out := FormatTradeOrg(tr)
	assert.True(t, strings.HasPrefix(out, "** Trade: GBPUSD long (01HZXABC)\n"))
	assert.Contains(t, out, ":ENTRY_AT: 2024-06-01T08:00:00Z\n")
	assert.NotContains(t, out, ":EXIT_AT:")
	assert.Contains(t, out, ":PNL: 75.00\n")
	assert.Contains(t, out, ":R: 1.50\n")
	assert.Contains(t, out, ":TAGS: a\n")
	assert.Contains(t, out, "*** Execution\n- clean entry\n")
	assert.Contains(t, out, ":END:\n")
}

func TestFormatTradesOrg_Separates(t *testing.T) {
	t.Parallel()

	out := FormatTradesOrg([]Trade{{ID: "a", Symbol: "X"}, {ID: "b", Symbol: "Y"}})
	assert.Equal(t, 2, strings.Count(out, "** Trade:"))
	assert.Contains(t, out, "- \n\n\n** Trade: Y")
	assert.Empty(t, FormatTradesOrg(nil))
}
