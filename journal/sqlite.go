package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/rustyeddy/tradejournal/pkg/id"
)

// SQLite is a Remote backed by a local SQLite file. Change notifications
// are delivered in-process to subscribers after each successful write.
type SQLite struct {
	db *sql.DB

	mu     sync.RWMutex
	userID string

	subMu   sync.Mutex
	subs    map[int]subscriber
	nextSub int

	newID func() string
	now   func() time.Time
}

type subscriber struct {
	userID string
	table  string
	h      func(RowChange)
}

var _ Remote = (*SQLite)(nil)

// NewSQLite opens (creating if needed) the database at path and applies Schema.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps ":memory:" databases shared and avoids
	// SQLITE_BUSY between our own goroutines.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLite{
		db:    db,
		subs:  map[int]subscriber{},
		newID: id.New,
		now:   time.Now,
	}, nil
}

// SignIn sets the principal every call is scoped to.
func (j *SQLite) SignIn(userID string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.userID = strings.TrimSpace(userID)
}

// SignOut clears the principal; subsequent calls fail with ErrUnauthenticated.
func (j *SQLite) SignOut() {
	j.SignIn("")
}

func (j *SQLite) CurrentUserID(ctx context.Context) (string, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.userID, nil
}

func (j *SQLite) uid() (string, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.userID == "" {
		return "", ErrUnauthenticated
	}
	return j.userID, nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

// SubscribeToChanges registers h for writes to table made by the current principal.
func (j *SQLite) SubscribeToChanges(ctx context.Context, table string, h func(RowChange)) (func(), error) {
	uid, err := j.uid()
	if err != nil {
		return nil, err
	}
	if table != TableTrades && table != TableAccounts {
		return nil, fmt.Errorf("subscribe: unknown table %q", table)
	}

	j.subMu.Lock()
	key := j.nextSub
	j.nextSub++
	j.subs[key] = subscriber{userID: uid, table: table, h: h}
	j.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			j.subMu.Lock()
			delete(j.subs, key)
			j.subMu.Unlock()
		})
	}
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return cancel, nil
}

func (j *SQLite) notify(uid string, c RowChange) {
	j.subMu.Lock()
	var hs []func(RowChange)
	for k := 0; k < j.nextSub; k++ {
		if s, ok := j.subs[k]; ok && s.userID == uid && s.table == c.Table {
			hs = append(hs, s.h)
		}
	}
	j.subMu.Unlock()

	for _, h := range hs {
		h(c)
	}
}

func (j *SQLite) ListAccounts(ctx context.Context) ([]Account, error) {
	uid, err := j.uid()
	if err != nil {
		return nil, err
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT `+AccountColumns+`
		FROM accounts
		WHERE user_id = ?
		ORDER BY created_at ASC, id ASC`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Account{}
	for rows.Next() {
		a, err := ScanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (j *SQLite) getAccount(ctx context.Context, uid, accountID string) (Account, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT `+AccountColumns+`
		FROM accounts
		WHERE id = ? AND user_id = ?`, accountID, uid)
	a, err := ScanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, fmt.Errorf("account %q %w", accountID, ErrNotFound)
	}
	return a, err
}

func (j *SQLite) CreateAccount(ctx context.Context, a Account) (Account, error) {
	uid, err := j.uid()
	if err != nil {
		return Account{}, err
	}
	if err := validateAccount(a); err != nil {
		return Account{}, err
	}
	if a.ID == "" {
		a.ID = j.newID()
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO accounts
		(id, user_id, name, currency, starting_equity, exchange, status, notes, last_sync_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, uid, a.Name, a.Currency, a.StartingEquity, a.Exchange, string(a.Status), a.Notes,
		nullTime(a.LastSyncAt), j.now().UTC(),
	)
	if err != nil {
		return Account{}, constraintErr(err)
	}

	saved, err := j.getAccount(ctx, uid, a.ID)
	if err != nil {
		return Account{}, err
	}
	j.notify(uid, RowChange{Table: TableAccounts, Op: OpInsert, ID: saved.ID, Account: &saved})
	return saved, nil
}

func (j *SQLite) UpdateAccount(ctx context.Context, accountID string, p AccountPatch) error {
	uid, err := j.uid()
	if err != nil {
		return err
	}
	cur, err := j.getAccount(ctx, uid, accountID)
	if err != nil {
		return err
	}
	next := p.Apply(cur)
	if err := validateAccount(next); err != nil {
		return err
	}

	_, err = j.db.ExecContext(ctx, `
		UPDATE accounts
		SET name = ?, currency = ?, starting_equity = ?, exchange = ?, status = ?, notes = ?, last_sync_at = ?
		WHERE id = ? AND user_id = ?`,
		next.Name, next.Currency, next.StartingEquity, next.Exchange, string(next.Status), next.Notes,
		nullTime(next.LastSyncAt), accountID, uid,
	)
	if err != nil {
		return constraintErr(err)
	}
	j.notify(uid, RowChange{Table: TableAccounts, Op: OpUpdate, ID: accountID, Account: &next})
	return nil
}

func (j *SQLite) DeleteAccount(ctx context.Context, accountID string) error {
	uid, err := j.uid()
	if err != nil {
		return err
	}
	res, err := j.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ? AND user_id = ?`, accountID, uid)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("account %q %w", accountID, ErrNotFound)
	}
	j.notify(uid, RowChange{Table: TableAccounts, Op: OpDelete, ID: accountID})
	return nil
}

func (j *SQLite) CreateTrade(ctx context.Context, t Trade) (Trade, error) {
	uid, err := j.uid()
	if err != nil {
		return Trade{}, err
	}
	if t.Side == "" {
		t.Side = Long
	}
	if err := t.Validate(); err != nil {
		return Trade{}, err
	}
	if _, err := j.getAccount(ctx, uid, t.AccountID); err != nil {
		return Trade{}, fmt.Errorf("%w: account %q does not exist", ErrValidation, t.AccountID)
	}
	if t.ID == "" {
		t.ID = j.newID()
	}
	if t.Result == "" {
		t.Result = DeriveResult(t.PnL)
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO trades
		(`+TradeColumns+`, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		append(TradeArgs(t), uid, j.now().UTC())...,
	)
	if err != nil {
		return Trade{}, constraintErr(err)
	}

	saved, err := j.getTrade(ctx, uid, t.ID)
	if err != nil {
		return Trade{}, err
	}
	j.notify(uid, RowChange{Table: TableTrades, Op: OpInsert, ID: saved.ID, Trade: &saved})
	return saved, nil
}

func (j *SQLite) UpdateTrade(ctx context.Context, tradeID string, p TradePatch) error {
	uid, err := j.uid()
	if err != nil {
		return err
	}
	cur, err := j.getTrade(ctx, uid, tradeID)
	if err != nil {
		return err
	}
	next := p.Apply(cur)
	if err := next.Validate(); err != nil {
		return err
	}

	args := append(TradeArgs(next)[1:], tradeID, uid)
	_, err = j.db.ExecContext(ctx, `
		UPDATE trades
		SET account_id = ?, symbol = ?, strategy = ?, side = ?, quantity = ?, entry_price = ?,
			exit_price = ?, rr = ?, pnl = ?, entry_at = ?, exit_at = ?, fees = ?, notes = ?,
			tags = ?, session = ?, result = ?, risk_pct = ?, risk_amount = ?
		WHERE id = ? AND user_id = ?`, args...)
	if err != nil {
		return constraintErr(err)
	}
	j.notify(uid, RowChange{Table: TableTrades, Op: OpUpdate, ID: tradeID, Trade: &next})
	return nil
}

func (j *SQLite) DeleteTrade(ctx context.Context, tradeID string) error {
	uid, err := j.uid()
	if err != nil {
		return err
	}
	res, err := j.db.ExecContext(ctx, `DELETE FROM trades WHERE id = ? AND user_id = ?`, tradeID, uid)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("trade %q %w", tradeID, ErrNotFound)
	}
	j.notify(uid, RowChange{Table: TableTrades, Op: OpDelete, ID: tradeID})
	return nil
}

func validateAccount(a Account) error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("%w: account name is required", ErrValidation)
	}
	return nil
}

// TradeArgs returns the values for TradeColumns in order.
func TradeArgs(t Trade) []any {
	return []any{
		t.ID, nullString(t.AccountID), t.Symbol, t.Strategy, string(t.Side), t.Quantity,
		t.EntryPrice, t.ExitPrice, t.R, t.PnL, nullTime(t.EntryAt), nullTime(t.ExitAt), t.Fees,
		t.Notes, Tags(t.Tags), nullString(string(t.MarketSession)), string(t.Result), t.RiskPct,
		t.RiskAmount,
	}
}

func constraintErr(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %s", ErrValidation, se.Error())
	}
	return err
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
