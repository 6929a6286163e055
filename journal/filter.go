package journal

import (
	"strings"
)

// Filter narrows a trade list the way the journal table does.
type Filter struct {
	AccountID string
	Symbol    string // case-insensitive substring
	Strategy  string // case-insensitive substring
	Result    string // win, loss, be or all
}

// Match reports whether t passes every non-empty criterion.
func (f Filter) Match(t Trade) bool {
	if f.AccountID != "" && t.AccountID != f.AccountID {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Symbol)); q != "" &&
		!strings.Contains(strings.ToLower(t.Symbol), q) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Strategy)); q != "" &&
		!strings.Contains(strings.ToLower(t.Strategy), q) {
		return false
	}
	switch strings.ToLower(f.Result) {
	case string(Win):
		return t.PnL.IsPositive()
	case string(Loss):
		return t.PnL.IsNegative()
	case string(Breakeven):
		return t.PnL.IsZero()
	}
	return true
}

// Apply returns the trades that match, in their original order.
func (f Filter) Apply(trades []Trade) []Trade {
	out := make([]Trade, 0, len(trades))
	for _, t := range trades {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Paginate returns page number page (zero based) of size rows.
// A size below one returns everything.
func Paginate(trades []Trade, page, size int) []Trade {
	if size < 1 {
		return trades
	}
	start := page * size
	if page < 0 || start >= len(trades) {
		return []Trade{}
	}
	end := min(start+size, len(trades))
	return trades[start:end]
}
