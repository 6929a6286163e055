package journal

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TradeRow is a trade as it arrives from a backend: every optional column
// may be missing. Trade applies the defaults so nothing downstream has to.
type TradeRow struct {
	ID         string              `json:"id"`
	AccountID  *string             `json:"account_id"`
	Symbol     *string             `json:"symbol"`
	Strategy   *string             `json:"strategy"`
	Side       *string             `json:"side"`
	Quantity   *float64            `json:"quantity"`
	EntryPrice *float64            `json:"entry_price"`
	ExitPrice  *float64            `json:"exit_price"`
	R          *float64            `json:"rr"`
	PnL        decimal.NullDecimal `json:"pnl"`
	EntryAt    *time.Time          `json:"entry_at"`
	ExitAt     *time.Time          `json:"exit_at"`
	Fees       decimal.NullDecimal `json:"fees"`
	Notes      *string             `json:"notes"`
	Tags       Tags                `json:"tags"`
	Session    *string             `json:"session"`
	Result     *string             `json:"result"`
	RiskPct    *float64            `json:"risk_pct"`
	RiskAmount decimal.NullDecimal `json:"risk_amount"`
}

// Trade converts the row into a fully defaulted Trade.
func (r TradeRow) Trade() Trade {
	t := Trade{
		ID:            r.ID,
		AccountID:     str(r.AccountID),
		Symbol:        str(r.Symbol),
		Strategy:      str(r.Strategy),
		Side:          Long,
		Quantity:      1,
		EntryPrice:    num(r.EntryPrice),
		ExitPrice:     num(r.ExitPrice),
		R:             num(r.R),
		PnL:           dec(r.PnL),
		Fees:          dec(r.Fees),
		Notes:         str(r.Notes),
		Tags:          []string(r.Tags),
		MarketSession: MarketSession(str(r.Session)),
		RiskPct:       num(r.RiskPct),
		RiskAmount:    dec(r.RiskAmount),
	}
	if strings.EqualFold(str(r.Side), string(Short)) {
		t.Side = Short
	}
	if r.Quantity != nil && !math.IsNaN(*r.Quantity) && !math.IsInf(*r.Quantity, 0) {
		t.Quantity = *r.Quantity
	}
	if r.EntryAt != nil {
		t.EntryAt = *r.EntryAt
	}
	if r.ExitAt != nil {
		t.ExitAt = *r.ExitAt
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	switch res := Result(strings.ToLower(str(r.Result))); res {
	case Win, Breakeven, Loss:
		t.Result = res
	default:
		t.Result = DeriveResult(t.PnL)
	}
	return t
}

// AccountRow is an account as it arrives from a backend.
type AccountRow struct {
	ID              string              `json:"id"`
	Slug            *string             `json:"slug"`
	Name            *string             `json:"name"`
	Currency        *string             `json:"currency"`
	StartingEquity  decimal.NullDecimal `json:"starting_equity"`
	StartingBalance decimal.NullDecimal `json:"starting_balance"`
	Balance         decimal.NullDecimal `json:"balance"`
	Exchange        *string             `json:"exchange"`
	Status          *string             `json:"status"`
	Notes           *string             `json:"notes"`
	LastSyncAt      *time.Time          `json:"last_sync_at"`
}

// Account converts the row into a fully defaulted Account.
func (r AccountRow) Account() Account {
	a := Account{
		ID:             r.ID,
		Name:           str(r.Name),
		Currency:       strings.ToUpper(str(r.Currency)),
		StartingEquity: dec(r.StartingEquity),
		Exchange:       str(r.Exchange),
		Status:         StatusActive,
		Notes:          str(r.Notes),
	}
	if a.ID == "" {
		a.ID = firstNonEmpty(str(r.Slug), a.Name)
	}
	if a.Name == "" {
		a.Name = firstNonEmpty(str(r.Slug), "Account")
	}
	if a.Currency == "" {
		a.Currency = "USD"
	}
	if !r.StartingEquity.Valid {
		switch {
		case r.StartingBalance.Valid:
			a.StartingEquity = r.StartingBalance.Decimal
		case r.Balance.Valid:
			a.StartingEquity = r.Balance.Decimal
		}
	}
	if AccountStatus(str(r.Status)) == StatusDisabled {
		a.Status = StatusDisabled
	}
	if r.LastSyncAt != nil {
		a.LastSyncAt = *r.LastSyncAt
	}
	return a
}

// Tags is a tag list stored as a JSON array. Scanning also accepts a
// semicolon separated string.
type Tags []string

// Scan implements sql.Scanner.
func (t *Tags) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = Tags{}
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	}
	return fmt.Errorf("scan tags: unsupported type %T", src)
}

// Value implements driver.Valuer.
func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		t = Tags{}
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// UnmarshalJSON accepts an array, a string holding an array or a
// semicolon separated list, or null.
func (t *Tags) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*t = list
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("tags: %w", err)
	}
	return t.parse(s)
}

func (t *Tags) parse(s string) error {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		var list []string
		if err := json.Unmarshal([]byte(s), &list); err != nil {
			return fmt.Errorf("tags: %w", err)
		}
		*t = list
		return nil
	}
	*t = SplitTags(s)
	return nil
}

// SplitTags splits a ';' separated tag list, dropping blanks.
func SplitTags(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func num(f *float64) float64 {
	if f == nil {
		return 0
	}
	return finite(*f)
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func dec(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
