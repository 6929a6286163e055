package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Scanner is satisfied by *sql.Row, *sql.Rows and pgx rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanTrade scans TradeColumns into a defaulted Trade.
func ScanTrade(s Scanner) (Trade, error) {
	var r TradeRow
	err := s.Scan(
		&r.ID,
		&r.AccountID,
		&r.Symbol,
		&r.Strategy,
		&r.Side,
		&r.Quantity,
		&r.EntryPrice,
		&r.ExitPrice,
		&r.R,
		&r.PnL,
		&r.EntryAt,
		&r.ExitAt,
		&r.Fees,
		&r.Notes,
		&r.Tags,
		&r.Session,
		&r.Result,
		&r.RiskPct,
		&r.RiskAmount,
	)
	if err != nil {
		return Trade{}, err
	}
	return r.Trade(), nil
}

// ScanAccount scans AccountColumns into a defaulted Account.
func ScanAccount(s Scanner) (Account, error) {
	var r AccountRow
	err := s.Scan(
		&r.ID,
		&r.Name,
		&r.Currency,
		&r.StartingEquity,
		&r.Exchange,
		&r.Status,
		&r.Notes,
		&r.LastSyncAt,
	)
	if err != nil {
		return Account{}, err
	}
	return r.Account(), nil
}

func scanTrades(rows *sql.Rows) ([]Trade, error) {
	defer rows.Close()

	out := []Trade{}
	for rows.Next() {
		t, err := ScanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (j *SQLite) getTrade(ctx context.Context, uid, tradeID string) (Trade, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT `+TradeColumns+`
		FROM trades
		WHERE id = ? AND user_id = ?`, tradeID, uid)

	t, err := ScanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Trade{}, fmt.Errorf("trade %q %w", tradeID, ErrNotFound)
		}
		return Trade{}, err
	}
	return t, nil
}

// GetTrade returns a single trade by ID.
func (j *SQLite) GetTrade(ctx context.Context, tradeID string) (Trade, error) {
	uid, err := j.uid()
	if err != nil {
		return Trade{}, err
	}
	return j.getTrade(ctx, uid, tradeID)
}

// ListTrades returns trades most recent entry first.
func (j *SQLite) ListTrades(ctx context.Context, f TradeFilter) ([]Trade, error) {
	uid, err := j.uid()
	if err != nil {
		return nil, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	offset := max(f.Offset, 0)

	query := `
		SELECT ` + TradeColumns + `
		FROM trades
		WHERE user_id = ?`
	args := []any{uid}
	if f.AccountID != "" {
		query += ` AND account_id = ?`
		args = append(args, f.AccountID)
	}
	query += ` ORDER BY entry_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanTrades(rows)
}

// ListTradesClosedBetween returns trades whose effective time is within [start, end),
// oldest first.
func (j *SQLite) ListTradesClosedBetween(ctx context.Context, start, end time.Time) ([]Trade, error) {
	uid, err := j.uid()
	if err != nil {
		return nil, err
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT `+TradeColumns+`
		FROM trades
		WHERE user_id = ?
		  AND COALESCE(exit_at, entry_at) >= ?
		  AND COALESCE(exit_at, entry_at) < ?
		ORDER BY COALESCE(exit_at, entry_at) ASC`, uid, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	return scanTrades(rows)
}
