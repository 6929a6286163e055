package journal

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// TradePatch carries only the fields being changed. A non-nil ExitAt
// pointing at the zero time clears the exit.
type TradePatch struct {
	ID            string           `json:"id,omitempty"`
	AccountID     *string          `json:"accountId,omitempty"`
	Symbol        *string          `json:"symbol,omitempty"`
	Strategy      *string          `json:"strategy,omitempty"`
	Side          *Side            `json:"side,omitempty"`
	Quantity      *float64         `json:"qty,omitempty"`
	EntryPrice    *float64         `json:"entryPrice,omitempty"`
	ExitPrice     *float64         `json:"exitPrice,omitempty"`
	R             *float64         `json:"r,omitempty"`
	PnL           *decimal.Decimal `json:"pnl,omitempty"`
	EntryAt       *time.Time       `json:"entryAt,omitempty"`
	ExitAt        *time.Time       `json:"exitAt,omitempty"`
	Fees          *decimal.Decimal `json:"fees,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
	Tags          *[]string        `json:"tags,omitempty"`
	MarketSession *MarketSession   `json:"session,omitempty"`
	Result        *Result          `json:"result,omitempty"`
	RiskPct       *float64         `json:"riskPct,omitempty"`
	RiskAmount    *decimal.Decimal `json:"riskAmount,omitempty"`
}

// Apply returns t with the patch applied. t is not modified.
func (p TradePatch) Apply(t Trade) Trade {
	t = t.Clone()
	if p.AccountID != nil {
		t.AccountID = *p.AccountID
	}
	if p.Symbol != nil {
		t.Symbol = *p.Symbol
	}
	if p.Strategy != nil {
		t.Strategy = *p.Strategy
	}
	if p.Side != nil {
		t.Side = *p.Side
	}
	if p.Quantity != nil {
		t.Quantity = finite(*p.Quantity)
	}
	if p.EntryPrice != nil {
		t.EntryPrice = finite(*p.EntryPrice)
	}
	if p.ExitPrice != nil {
		t.ExitPrice = finite(*p.ExitPrice)
	}
	if p.R != nil {
		t.R = finite(*p.R)
	}
	if p.PnL != nil {
		t.PnL = *p.PnL
	}
	if p.EntryAt != nil {
		t.EntryAt = *p.EntryAt
	}
	if p.ExitAt != nil {
		t.ExitAt = *p.ExitAt
	}
	if p.Fees != nil {
		t.Fees = *p.Fees
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.Tags != nil {
		t.Tags = slices.Clone(*p.Tags)
	}
	if p.MarketSession != nil {
		t.MarketSession = *p.MarketSession
	}
	if p.Result != nil {
		t.Result = *p.Result
	}
	if p.RiskPct != nil {
		t.RiskPct = finite(*p.RiskPct)
	}
	if p.RiskAmount != nil {
		t.RiskAmount = *p.RiskAmount
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return t
}

// IsEmpty reports whether the patch changes nothing.
func (p TradePatch) IsEmpty() bool {
	q := p
	q.ID = ""
	return q == TradePatch{}
}

// AccountPatch carries the account fields being changed.
type AccountPatch struct {
	Name           *string          `json:"name,omitempty"`
	Currency       *string          `json:"currency,omitempty"`
	StartingEquity *decimal.Decimal `json:"startingEquity,omitempty"`
	Exchange       *string          `json:"exchange,omitempty"`
	Status         *AccountStatus   `json:"status,omitempty"`
	Notes          *string          `json:"notes,omitempty"`
	LastSyncAt     *time.Time       `json:"lastSyncAt,omitempty"`
}

// Apply returns a with the patch applied.
func (p AccountPatch) Apply(a Account) Account {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Currency != nil {
		a.Currency = *p.Currency
	}
	if p.StartingEquity != nil {
		a.StartingEquity = *p.StartingEquity
	}
	if p.Exchange != nil {
		a.Exchange = *p.Exchange
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.Notes != nil {
		a.Notes = *p.Notes
	}
	if p.LastSyncAt != nil {
		a.LastSyncAt = *p.LastSyncAt
	}
	return a
}

// Ptr returns a pointer to v. It keeps patch literals short.
func Ptr[T any](v T) *T { return &v }
