package journal

import (
	"context"
	"errors"
)

var (
	// ErrUnauthenticated is returned when no principal is signed in.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNotFound is returned when a record does not exist or is not visible
	// to the current principal.
	ErrNotFound = errors.New("not found")

	// ErrValidation wraps every rejected record.
	ErrValidation = errors.New("validation failed")
)

// Table names accepted by SubscribeToChanges.
const (
	TableAccounts = "accounts"
	TableTrades   = "trades"
)

// ChangeOp is the kind of a remote row change.
type ChangeOp string

const (
	OpInsert ChangeOp = "insert"
	OpUpdate ChangeOp = "update"
	OpDelete ChangeOp = "delete"
)

// RowChange is a push notification about a row written elsewhere.
// Trade or Account is set for inserts and updates on the matching table.
type RowChange struct {
	Table   string
	Op      ChangeOp
	ID      string
	Trade   *Trade
	Account *Account
}

// TradeFilter scopes a trade listing. A zero Limit means no limit.
type TradeFilter struct {
	AccountID string
	Limit     int
	Offset    int
}

// Remote is the data service the store consumes. Implementations scope
// every read and write to the current principal.
type Remote interface {
	// CurrentUserID returns "" when nobody is signed in.
	CurrentUserID(ctx context.Context) (string, error)

	ListAccounts(ctx context.Context) ([]Account, error)
	CreateAccount(ctx context.Context, a Account) (Account, error)
	UpdateAccount(ctx context.Context, id string, p AccountPatch) error
	DeleteAccount(ctx context.Context, id string) error

	// ListTrades returns trades most recent first.
	ListTrades(ctx context.Context, f TradeFilter) ([]Trade, error)
	CreateTrade(ctx context.Context, t Trade) (Trade, error)
	UpdateTrade(ctx context.Context, id string, p TradePatch) error
	DeleteTrade(ctx context.Context, id string) error

	// SubscribeToChanges delivers row changes for table until cancel is
	// called or ctx is done.
	SubscribeToChanges(ctx context.Context, table string, h func(RowChange)) (cancel func(), err error)
}
