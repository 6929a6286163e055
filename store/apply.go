package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/rustyeddy/tradejournal/bus"
	"github.com/rustyeddy/tradejournal/journal"
)

// Apply merges a message from another context into the snapshot.
// Re-applying the same message leaves the snapshot unchanged.
func (s *Store) Apply(m bus.Message) error {
	ev := bus.TradesChanged{Type: m.Type, Remote: true}

	switch m.Type {
	case bus.MsgSet:
		trades, err := m.Trades()
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.trades = cloneTrades(trades)
		s.mu.Unlock()
		ev.Count = len(trades)

	case bus.MsgCreate:
		t, err := m.Trade()
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.trades = upsertFront(s.trades, t)
		s.mu.Unlock()
		ev.ID, ev.AccountID = t.ID, t.AccountID

	case bus.MsgUpdate:
		p, err := m.Patch()
		if err != nil {
			return err
		}
		s.mu.Lock()
		if i := indexTrade(s.trades, p.ID); i >= 0 {
			s.trades = slices.Clone(s.trades)
			s.trades[i] = p.Apply(s.trades[i])
			ev.AccountID = s.trades[i].AccountID
		} else {
			t := p.Apply(journal.Trade{ID: p.ID, Side: journal.Long})
			s.trades = upsertFront(s.trades, t)
			ev.AccountID = t.AccountID
		}
		s.mu.Unlock()
		ev.ID = p.ID

	case bus.MsgDelete:
		tradeID, err := m.ID()
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.trades = remove(s.trades, tradeID)
		s.mu.Unlock()
		ev.ID = tradeID

	default:
		return fmt.Errorf("%w: unknown type %q", bus.ErrMalformed, m.Type)
	}

	s.bus.Publish(bus.TradesChangedEvent, ev)
	return nil
}

// ApplyRowChange folds a push notification from the remote service into
// the snapshot. Account changes trigger a reload of the account list.
func (s *Store) ApplyRowChange(ctx context.Context, c journal.RowChange) error {
	switch c.Table {
	case journal.TableAccounts:
		_, err := s.RefreshAccounts(ctx)
		return err
	case journal.TableTrades:
	default:
		return fmt.Errorf("row change: unknown table %q", c.Table)
	}

	ev := bus.TradesChanged{ID: c.ID, Remote: true}
	switch c.Op {
	case journal.OpInsert, journal.OpUpdate:
		if c.Trade == nil {
			return fmt.Errorf("row change: %s of %q without a row", c.Op, c.ID)
		}
		s.mu.Lock()
		s.trades = upsertFront(s.trades, *c.Trade)
		s.mu.Unlock()
		ev.AccountID = c.Trade.AccountID
		ev.Type = bus.MsgCreate
		if c.Op == journal.OpUpdate {
			ev.Type = bus.MsgUpdate
		}
	case journal.OpDelete:
		s.mu.Lock()
		s.trades = remove(s.trades, c.ID)
		s.mu.Unlock()
		ev.Type = bus.MsgDelete
	default:
		return fmt.Errorf("row change: unknown op %q", c.Op)
	}

	s.bus.Publish(bus.TradesChangedEvent, ev)
	return nil
}

// Follow subscribes to remote push notifications for trades and accounts.
// The returned func stops both subscriptions.
func (s *Store) Follow(ctx context.Context) (func(), error) {
	if err := s.authorize(ctx); err != nil {
		return nil, fmt.Errorf("follow: %w", err)
	}

	onChange := func(c journal.RowChange) {
		if err := s.ApplyRowChange(ctx, c); err != nil {
			s.log.Warn().Err(err).Str("table", c.Table).Str("id", c.ID).Msg("apply row change")
		}
	}

	var cancels []func()
	stop := func() {
		for _, c := range cancels {
			c()
		}
	}
	for _, table := range []string{journal.TableTrades, journal.TableAccounts} {
		cancel, err := s.remote.SubscribeToChanges(ctx, table, onChange)
		if err != nil {
			stop()
			return nil, fmt.Errorf("follow %s: %w", table, err)
		}
		cancels = append(cancels, cancel)
	}
	return stop, nil
}

// Watch follows remote push notifications and, when sync is configured,
// messages from other contexts until ctx is done.
func (s *Store) Watch(ctx context.Context) error {
	stop, err := s.Follow(ctx)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer stop()

	if s.sync == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	return s.sync.Run(ctx, s.Apply)
}
