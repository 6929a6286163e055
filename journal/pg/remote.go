// Package pg implements journal.Remote on a hosted Postgres database.
package pg

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/pkg/id"
)

// Remote scopes every statement to one user id. Row-level security on the
// server remains authoritative; the user_id predicates only mirror it.
type Remote struct {
	pool *pgxpool.Pool
	log  zerolog.Logger

	mu     sync.RWMutex
	userID string
}

var _ journal.Remote = (*Remote)(nil)

func New(pool *pgxpool.Pool, userID string, log zerolog.Logger) *Remote {
	return &Remote{pool: pool, userID: strings.TrimSpace(userID), log: log}
}

// SignIn switches the principal.
func (r *Remote) SignIn(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userID = strings.TrimSpace(userID)
}

func (r *Remote) CurrentUserID(ctx context.Context) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.userID, nil
}

func (r *Remote) uid() (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.userID == "" {
		return "", journal.ErrUnauthenticated
	}
	return r.userID, nil
}

func (r *Remote) ListAccounts(ctx context.Context) ([]journal.Account, error) {
	uid, err := r.uid()
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		select `+journal.AccountColumns+`
		from accounts
		where user_id = $1
		order by created_at asc, id asc`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []journal.Account{}
	for rows.Next() {
		a, err := journal.ScanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Remote) getAccount(ctx context.Context, uid, accountID string) (journal.Account, error) {
	row := r.pool.QueryRow(ctx, `
		select `+journal.AccountColumns+`
		from accounts
		where id = $1 and user_id = $2`, accountID, uid)
	a, err := journal.ScanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return journal.Account{}, fmt.Errorf("account %q %w", accountID, journal.ErrNotFound)
	}
	return a, err
}

func (r *Remote) CreateAccount(ctx context.Context, a journal.Account) (journal.Account, error) {
	uid, err := r.uid()
	if err != nil {
		return journal.Account{}, err
	}
	if strings.TrimSpace(a.Name) == "" {
		return journal.Account{}, fmt.Errorf("%w: account name is required", journal.ErrValidation)
	}
	if a.ID == "" {
		a.ID = id.New()
	}

	_, err = r.pool.Exec(ctx, `
		insert into accounts (id, user_id, name, currency, starting_equity, exchange, status, notes, last_sync_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, uid, a.Name, a.Currency, a.StartingEquity, a.Exchange, string(a.Status), a.Notes,
		nullTime(a.LastSyncAt),
	)
	if err != nil {
		return journal.Account{}, pgErr(err)
	}
	return r.getAccount(ctx, uid, a.ID)
}

func (r *Remote) UpdateAccount(ctx context.Context, accountID string, p journal.AccountPatch) error {
	uid, err := r.uid()
	if err != nil {
		return err
	}
	cur, err := r.getAccount(ctx, uid, accountID)
	if err != nil {
		return err
	}
	next := p.Apply(cur)
	if strings.TrimSpace(next.Name) == "" {
		return fmt.Errorf("%w: account name is required", journal.ErrValidation)
	}

	_, err = r.pool.Exec(ctx, `
		update accounts
		set name = $1, currency = $2, starting_equity = $3, exchange = $4, status = $5, notes = $6, last_sync_at = $7
		where id = $8 and user_id = $9`,
		next.Name, next.Currency, next.StartingEquity, next.Exchange, string(next.Status), next.Notes,
		nullTime(next.LastSyncAt), accountID, uid,
	)
	return pgErr(err)
}

func (r *Remote) DeleteAccount(ctx context.Context, accountID string) error {
	uid, err := r.uid()
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `delete from accounts where id = $1 and user_id = $2`, accountID, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %q %w", accountID, journal.ErrNotFound)
	}
	return nil
}

func (r *Remote) ListTrades(ctx context.Context, f journal.TradeFilter) ([]journal.Trade, error) {
	uid, err := r.uid()
	if err != nil {
		return nil, err
	}

	query := `
		select ` + journal.TradeColumns + `
		from trades
		where user_id = $1`
	args := []any{uid}
	if f.AccountID != "" {
		args = append(args, f.AccountID)
		query += fmt.Sprintf(` and account_id = $%d`, len(args))
	}
	query += ` order by entry_at desc nulls last, id desc`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(` limit $%d`, len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(` offset $%d`, len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []journal.Trade{}
	for rows.Next() {
		t, err := journal.ScanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Remote) getTrade(ctx context.Context, uid, tradeID string) (journal.Trade, error) {
	row := r.pool.QueryRow(ctx, `
		select `+journal.TradeColumns+`
		from trades
		where id = $1 and user_id = $2`, tradeID, uid)
	t, err := journal.ScanTrade(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return journal.Trade{}, fmt.Errorf("trade %q %w", tradeID, journal.ErrNotFound)
	}
	return t, err
}

func (r *Remote) CreateTrade(ctx context.Context, t journal.Trade) (journal.Trade, error) {
	uid, err := r.uid()
	if err != nil {
		return journal.Trade{}, err
	}
	if t.Side == "" {
		t.Side = journal.Long
	}
	if err := t.Validate(); err != nil {
		return journal.Trade{}, err
	}
	if t.ID == "" {
		t.ID = id.New()
	}
	if t.Result == "" {
		t.Result = journal.DeriveResult(t.PnL)
	}

	_, err = r.pool.Exec(ctx, `
		insert into trades (`+journal.TradeColumns+`, user_id)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		append(journal.TradeArgs(t), uid)...,
	)
	if err != nil {
		return journal.Trade{}, pgErr(err)
	}
	return r.getTrade(ctx, uid, t.ID)
}

func (r *Remote) UpdateTrade(ctx context.Context, tradeID string, p journal.TradePatch) error {
	uid, err := r.uid()
	if err != nil {
		return err
	}
	cur, err := r.getTrade(ctx, uid, tradeID)
	if err != nil {
		return err
	}
	next := p.Apply(cur)
	if err := next.Validate(); err != nil {
		return err
	}

	args := append(journal.TradeArgs(next)[1:], tradeID, uid)
	_, err = r.pool.Exec(ctx, `
		update trades
		set account_id = $1, symbol = $2, strategy = $3, side = $4, quantity = $5, entry_price = $6,
			exit_price = $7, rr = $8, pnl = $9, entry_at = $10, exit_at = $11, fees = $12, notes = $13,
			tags = $14, session = $15, result = $16, risk_pct = $17, risk_amount = $18
		where id = $19 and user_id = $20`, args...)
	return pgErr(err)
}

func (r *Remote) DeleteTrade(ctx context.Context, tradeID string) error {
	uid, err := r.uid()
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `delete from trades where id = $1 and user_id = $2`, tradeID, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("trade %q %w", tradeID, journal.ErrNotFound)
	}
	return nil
}

// pgErr maps constraint violations onto journal.ErrValidation.
func pgErr(err error) error {
	if err == nil {
		return nil
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) && strings.HasPrefix(pe.Code, "23") {
		return fmt.Errorf("%w: %s", journal.ErrValidation, pe.Message)
	}
	return err
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
