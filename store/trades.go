package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/rustyeddy/tradejournal/bus"
	"github.com/rustyeddy/tradejournal/journal"
)

// ListOptions scopes ListTrades. A zero Limit means DefaultLimit.
type ListOptions struct {
	AccountID string
	Limit     int
	Offset    int
}

// ListTrades fetches a page of trades, most recent first, and merges it
// into the snapshot. Fetched records replace local copies with the same
// id; local records the fetch did not return are kept after them.
func (s *Store) ListTrades(ctx context.Context, opts ListOptions) ([]journal.Trade, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}

	fetched, err := s.remote.ListTrades(ctx, journal.TradeFilter{
		AccountID: opts.AccountID,
		Limit:     opts.Limit,
		Offset:    max(opts.Offset, 0),
	})
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}

	s.mu.Lock()
	s.trades = merge(fetched, s.trades)
	snapshot := cloneTrades(s.trades)
	s.mu.Unlock()

	s.post(ctx, func() (bus.Message, error) { return bus.SetMessage(snapshot) })
	s.bus.Publish(bus.TradesChangedEvent, bus.TradesChanged{
		AccountID: opts.AccountID,
		Count:     len(fetched),
	})
	return cloneTrades(fetched), nil
}

func (s *Store) CreateTrade(ctx context.Context, t journal.Trade) (journal.Trade, error) {
	if err := s.authorize(ctx); err != nil {
		return journal.Trade{}, fmt.Errorf("create trade: %w", err)
	}

	saved, err := s.remote.CreateTrade(ctx, t)
	if err != nil {
		return journal.Trade{}, fmt.Errorf("create trade: %w", err)
	}

	s.mu.Lock()
	s.trades = upsertFront(s.trades, saved)
	s.mu.Unlock()

	s.post(ctx, func() (bus.Message, error) { return bus.CreateMessage(saved) })
	s.bus.Publish(bus.TradesChangedEvent, bus.TradesChanged{
		Type: bus.MsgCreate, ID: saved.ID, AccountID: saved.AccountID,
	})
	return saved.Clone(), nil
}

func (s *Store) UpdateTrade(ctx context.Context, tradeID string, p journal.TradePatch) error {
	if err := s.authorize(ctx); err != nil {
		return fmt.Errorf("update trade: %w", err)
	}
	if err := s.remote.UpdateTrade(ctx, tradeID, p); err != nil {
		return fmt.Errorf("update trade: %w", err)
	}
	p.ID = tradeID

	s.mu.Lock()
	accountID := ""
	if i := indexTrade(s.trades, tradeID); i >= 0 {
		s.trades = slices.Clone(s.trades)
		s.trades[i] = p.Apply(s.trades[i])
		accountID = s.trades[i].AccountID
	}
	s.mu.Unlock()

	s.post(ctx, func() (bus.Message, error) { return bus.UpdateMessage(p) })
	s.bus.Publish(bus.TradesChangedEvent, bus.TradesChanged{
		Type: bus.MsgUpdate, ID: tradeID, AccountID: accountID,
	})
	return nil
}

func (s *Store) DeleteTrade(ctx context.Context, tradeID string) error {
	if err := s.authorize(ctx); err != nil {
		return fmt.Errorf("delete trade: %w", err)
	}
	if err := s.remote.DeleteTrade(ctx, tradeID); err != nil {
		return fmt.Errorf("delete trade: %w", err)
	}

	s.mu.Lock()
	accountID := ""
	if i := indexTrade(s.trades, tradeID); i >= 0 {
		accountID = s.trades[i].AccountID
	}
	s.trades = remove(s.trades, tradeID)
	s.mu.Unlock()

	s.post(ctx, func() (bus.Message, error) { return bus.DeleteMessage(tradeID) })
	s.bus.Publish(bus.TradesChangedEvent, bus.TradesChanged{
		Type: bus.MsgDelete, ID: tradeID, AccountID: accountID,
	})
	return nil
}

// post relays a message when cross-context sync is configured.
func (s *Store) post(ctx context.Context, build func() (bus.Message, error)) {
	if s.sync == nil {
		return
	}
	m, err := build()
	if err != nil {
		s.log.Warn().Err(err).Msg("build sync message")
		return
	}
	s.sync.Post(ctx, m)
}

// merge returns fetched followed by the current records it does not contain.
func merge(fetched, current []journal.Trade) []journal.Trade {
	seen := make(map[string]struct{}, len(fetched))
	out := make([]journal.Trade, 0, len(fetched)+len(current))
	for _, t := range fetched {
		seen[t.ID] = struct{}{}
		out = append(out, t.Clone())
	}
	for _, t := range current {
		if _, ok := seen[t.ID]; !ok {
			out = append(out, t)
		}
	}
	return out
}

// upsertFront replaces the record with t's id in place, or prepends t.
func upsertFront(trades []journal.Trade, t journal.Trade) []journal.Trade {
	if i := indexTrade(trades, t.ID); i >= 0 {
		out := slices.Clone(trades)
		out[i] = t.Clone()
		return out
	}
	out := make([]journal.Trade, 0, len(trades)+1)
	out = append(out, t.Clone())
	return append(out, trades...)
}

func remove(trades []journal.Trade, tradeID string) []journal.Trade {
	return slices.DeleteFunc(slices.Clone(trades), func(t journal.Trade) bool { return t.ID == tradeID })
}

func cloneTrades(trades []journal.Trade) []journal.Trade {
	out := make([]journal.Trade, len(trades))
	for i, t := range trades {
		out[i] = t.Clone()
	}
	return out
}
