// journal/journal.go
package journal

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of a trade.
type Side string

const (
	Long  Side = "long"
	Short Side = "short"
)

// Result is the outcome classification of a trade.
type Result string

const (
	Win       Result = "win"
	Breakeven Result = "be"
	Loss      Result = "loss"
)

// MarketSession is the trading session a trade was opened in.
type MarketSession string

const (
	SessionAsia      MarketSession = "ASIA"
	SessionFrankfurt MarketSession = "FRANKFURT"
	SessionLondonKZ  MarketSession = "LO_KZ"
	SessionLunch     MarketSession = "LUNCH"
	SessionNewYorkKZ MarketSession = "NY_KZ"
)

var marketSessions = []MarketSession{
	SessionAsia, SessionFrankfurt, SessionLondonKZ, SessionLunch, SessionNewYorkKZ,
}

// AccountStatus tells whether an account accepts new trades.
type AccountStatus string

const (
	StatusActive   AccountStatus = "active"
	StatusDisabled AccountStatus = "disabled"
)

// Account is a named trading ledger.
type Account struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Currency       string          `json:"currency"`
	StartingEquity decimal.Decimal `json:"startingEquity"`
	Exchange       string          `json:"exchange,omitempty"`
	Status         AccountStatus   `json:"status,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	LastSyncAt     time.Time       `json:"lastSyncAt,omitzero"`
}

// Trade is a single position record. A zero ExitAt means the trade is open.
type Trade struct {
	ID            string          `json:"id"`
	AccountID     string          `json:"accountId"`
	Symbol        string          `json:"symbol"`
	Strategy      string          `json:"strategy"`
	Side          Side            `json:"side"`
	Quantity      float64         `json:"qty"`
	EntryPrice    float64         `json:"entryPrice,omitempty"`
	ExitPrice     float64         `json:"exitPrice,omitempty"`
	R             float64         `json:"r"`
	PnL           decimal.Decimal `json:"pnl"`
	EntryAt       time.Time       `json:"entryAt"`
	ExitAt        time.Time       `json:"exitAt,omitzero"`
	Fees          decimal.Decimal `json:"fees"`
	Notes         string          `json:"notes"`
	Tags          []string        `json:"tags"`
	MarketSession MarketSession   `json:"session,omitempty"`
	Result        Result          `json:"result,omitempty"`
	RiskPct       float64         `json:"riskPct,omitempty"`
	RiskAmount    decimal.Decimal `json:"riskAmount"`
}

// EffectiveAt is the timestamp used for sorting, bucketing and filtering.
func (t Trade) EffectiveAt() time.Time {
	if t.ExitAt.IsZero() {
		return t.EntryAt
	}
	return t.ExitAt
}

// Clone returns a copy that shares no slices with t.
func (t Trade) Clone() Trade {
	t.Tags = slices.Clone(t.Tags)
	return t
}

// Validate checks the fields a trade must carry before it is saved.
func (t Trade) Validate() error {
	if t.AccountID == "" {
		return fmt.Errorf("%w: account is required", ErrValidation)
	}
	if t.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", ErrValidation)
	}
	if t.EntryAt.IsZero() {
		return fmt.Errorf("%w: entry time is required", ErrValidation)
	}
	if t.Side != Long && t.Side != Short {
		return fmt.Errorf("%w: side must be 'long' or 'short'", ErrValidation)
	}
	if t.MarketSession != "" && !slices.Contains(marketSessions, t.MarketSession) {
		return fmt.Errorf("%w: unknown session %q", ErrValidation, t.MarketSession)
	}
	if t.Result != "" && t.Result != Win && t.Result != Breakeven && t.Result != Loss {
		return fmt.Errorf("%w: result must be 'win', 'be' or 'loss'", ErrValidation)
	}
	if !t.ExitAt.IsZero() && t.ExitAt.Before(t.EntryAt) {
		return fmt.Errorf("%w: exit time is before entry time", ErrValidation)
	}
	return nil
}

// DeriveResult classifies a P&L amount.
func DeriveResult(pnl decimal.Decimal) Result {
	switch pnl.Sign() {
	case 1:
		return Win
	case -1:
		return Loss
	}
	return Breakeven
}

// GoalUnit is the unit a goal target is measured in.
type GoalUnit string

const (
	UnitPercent GoalUnit = "%"
	UnitUSD     GoalUnit = "USD"
	UnitTrades  GoalUnit = "trades"
)

// Goal is a local aggregation target. Goals are never sent to the remote service.
type Goal struct {
	ID       string    `json:"id" yaml:"id"`
	Title    string    `json:"title" yaml:"title"`
	Target   float64   `json:"target" yaml:"target"`
	Unit     GoalUnit  `json:"unit" yaml:"unit"`
	Progress float64   `json:"progress" yaml:"progress"`
	Due      time.Time `json:"due" yaml:"due"`
}
