package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rustyeddy/tradejournal/journal"
)

// notification is the payload tj_notify_change sends.
type notification struct {
	Table  string          `json:"table"`
	Op     string          `json:"op"`
	UserID string          `json:"user_id"`
	ID     string          `json:"id"`
	Row    json.RawMessage `json:"row"`
}

// DecodeNotification parses a trigger payload into the owning user id and
// the row change it describes.
func DecodeNotification(payload string) (string, journal.RowChange, error) {
	var n notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return "", journal.RowChange{}, fmt.Errorf("decode notification: %w", err)
	}

	c := journal.RowChange{Table: n.Table, Op: journal.ChangeOp(n.Op), ID: n.ID}
	switch c.Op {
	case journal.OpInsert, journal.OpUpdate, journal.OpDelete:
	default:
		return "", journal.RowChange{}, fmt.Errorf("decode notification: unknown op %q", n.Op)
	}
	if c.Op == journal.OpDelete || len(n.Row) == 0 || string(n.Row) == "null" {
		return n.UserID, c, nil
	}

	switch n.Table {
	case journal.TableTrades:
		var row journal.TradeRow
		if err := json.Unmarshal(n.Row, &row); err != nil {
			return "", journal.RowChange{}, fmt.Errorf("decode trade row: %w", err)
		}
		t := row.Trade()
		c.Trade = &t
	case journal.TableAccounts:
		var row journal.AccountRow
		if err := json.Unmarshal(n.Row, &row); err != nil {
			return "", journal.RowChange{}, fmt.Errorf("decode account row: %w", err)
		}
		a := row.Account()
		c.Account = &a
	default:
		return "", journal.RowChange{}, fmt.Errorf("decode notification: unknown table %q", n.Table)
	}
	return n.UserID, c, nil
}

// SubscribeToChanges holds a pooled connection in LISTEN until ctx is done
// or cancel is called. Notifications for other users or tables are skipped.
func (r *Remote) SubscribeToChanges(ctx context.Context, table string, h func(journal.RowChange)) (func(), error) {
	uid, err := r.uid()
	if err != nil {
		return nil, err
	}
	if table != journal.TableTrades && table != journal.TableAccounts {
		return nil, fmt.Errorf("subscribe: unknown table %q", table)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("subscribe: acquire: %w", err)
	}
	if _, err := conn.Exec(ctx, "listen "+Channel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("subscribe: listen: %w", err)
	}

	// The connection leaves the pool for good: it still has LISTEN active
	// when the feed stops, so it is closed instead of released.
	c := conn.Hijack()
	ctx, stop := context.WithCancel(ctx)

	go func() {
		defer c.Close(context.Background())

		for {
			n, err := c.WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil && !errors.Is(err, context.Canceled) {
					r.log.Error().Err(err).Str("table", table).Msg("change feed stopped")
				}
				return
			}
			owner, change, err := DecodeNotification(n.Payload)
			if err != nil {
				r.log.Warn().Err(err).Msg("dropping change notification")
				continue
			}
			if owner != uid || change.Table != table {
				continue
			}
			if err := r.fillRow(ctx, uid, &change); err != nil {
				r.log.Warn().Err(err).Str("table", table).Str("id", change.ID).Msg("dropping change notification")
				continue
			}
			h(change)
		}
	}()

	return stop, nil
}

// fillRow reads the row of an insert or update whose notification arrived
// without one.
func (r *Remote) fillRow(ctx context.Context, uid string, c *journal.RowChange) error {
	if c.Op == journal.OpDelete || c.Trade != nil || c.Account != nil {
		return nil
	}
	switch c.Table {
	case journal.TableTrades:
		t, err := r.getTrade(ctx, uid, c.ID)
		if err != nil {
			return err
		}
		c.Trade = &t
	case journal.TableAccounts:
		a, err := r.getAccount(ctx, uid, c.ID)
		if err != nil {
			return err
		}
		c.Account = &a
	}
	return nil
}
