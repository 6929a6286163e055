// Package store holds the in-memory snapshot of a user's journal and keeps
// it in step with the remote data service and with other open contexts.
package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/tradejournal/bus"
	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/kpi"
	"github.com/rustyeddy/tradejournal/pkg/id"
	"github.com/rustyeddy/tradejournal/prefs"
)

// DefaultLimit is the page size ListTrades uses when none is given.
const DefaultLimit = 100

// Session is the signed-in user and the display settings of this context.
type Session struct {
	UserID      string
	Currency    string
	Period      journal.Period
	ViewPeriods map[string]journal.Period
}

// Store is safe for concurrent use. Readers always get copies. Every
// mutation publishes on the bus after the snapshot lock is released.
type Store struct {
	remote journal.Remote
	bus    *bus.Bus
	sync   *bus.Sync
	prefs  prefs.Prefs
	log    zerolog.Logger
	newID  func() string

	mu         sync.RWMutex
	accounts   []journal.Account
	selectedID string
	trades     []journal.Trade
	goals      []journal.Goal
	notes      string
	session    Session
}

type Option func(*Store)

// WithBus shares a bus with other components. By default the store
// creates its own.
func WithBus(b *bus.Bus) Option { return func(s *Store) { s.bus = b } }

// WithSync relays trade mutations to other contexts.
func WithSync(sy *bus.Sync) Option { return func(s *Store) { s.sync = sy } }

func WithPrefs(p prefs.Prefs) Option { return func(s *Store) { s.prefs = p } }

func WithLogger(l zerolog.Logger) Option { return func(s *Store) { s.log = l } }

// WithGoals seeds the goal list.
func WithGoals(goals []journal.Goal) Option {
	return func(s *Store) { s.goals = slices.Clone(goals) }
}

// WithCurrency sets the display currency used when an account has none.
func WithCurrency(code string) Option {
	return func(s *Store) { s.session.Currency = code }
}

func New(remote journal.Remote, opts ...Option) *Store {
	s := &Store{
		remote: remote,
		log:    zerolog.Nop(),
		newID:  id.New,
		goals:  []journal.Goal{},
		session: Session{
			Currency:    kpi.DefaultCurrency,
			Period:      journal.PeriodAll,
			ViewPeriods: map[string]journal.Period{},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.bus == nil {
		s.bus = bus.New(s.log)
	}
	if s.prefs == nil {
		s.prefs = prefs.NewMemory()
	}

	if v, ok := s.prefs.Get(prefs.NotesKey); ok {
		s.notes = v
	}
	if v, ok := s.prefs.Get(prefs.PeriodKey); ok {
		s.session.Period = journal.PeriodOrAll(v)
	}
	if v, ok := s.prefs.Get(prefs.SelectedAccountKey); ok {
		s.selectedID = v
	}
	return s
}

// Bus is the bus the store publishes on.
func (s *Store) Bus() *bus.Bus { return s.bus }

// authorize fails fast when nobody is signed in, before any data call.
func (s *Store) authorize(ctx context.Context) error {
	uid, err := s.remote.CurrentUserID(ctx)
	if err != nil {
		return fmt.Errorf("current user: %w", err)
	}
	if uid == "" {
		return journal.ErrUnauthenticated
	}

	s.mu.Lock()
	s.session.UserID = uid
	s.mu.Unlock()
	return nil
}

func (s *Store) Accounts() []journal.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.accounts)
}

func (s *Store) Account(accountID string) (journal.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexAccount(s.accounts, accountID)
	if i < 0 {
		return journal.Account{}, false
	}
	return s.accounts[i], true
}

// SelectedID is "" when no account is selected.
func (s *Store) SelectedID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedID
}

func (s *Store) SelectedAccount() (journal.Account, bool) {
	return s.Account(s.SelectedID())
}

// Trades returns the cached trades of accountID, or all trades when
// accountID is empty, in snapshot order.
func (s *Store) Trades(accountID string) []journal.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]journal.Trade, 0, len(s.trades))
	for _, t := range s.trades {
		if accountID == "" || t.AccountID == accountID {
			out = append(out, t.Clone())
		}
	}
	return out
}

func (s *Store) Trade(tradeID string) (journal.Trade, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexTrade(s.trades, tradeID)
	if i < 0 {
		return journal.Trade{}, false
	}
	return s.trades[i].Clone(), true
}

func (s *Store) Goals() []journal.Goal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.goals)
}

func (s *Store) Notes() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notes
}

func (s *Store) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.session
	out.ViewPeriods = maps.Clone(s.session.ViewPeriods)
	return out
}

// Period is the period of view, falling back to the journal-wide period.
func (s *Store) Period(view string) journal.Period {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.period(view)
}

func (s *Store) period(view string) journal.Period {
	if view != "" {
		if p, ok := s.session.ViewPeriods[view]; ok {
			return p
		}
		if v, ok := s.prefs.Get(prefs.ViewPeriodKey(view)); ok {
			if p, err := journal.ParsePeriod(v); err == nil {
				return p
			}
		}
	}
	if s.session.Period == "" {
		return journal.PeriodAll
	}
	return s.session.Period
}

func indexTrade(trades []journal.Trade, tradeID string) int {
	return slices.IndexFunc(trades, func(t journal.Trade) bool { return t.ID == tradeID })
}

func indexAccount(accounts []journal.Account, accountID string) int {
	if accountID == "" {
		return -1
	}
	return slices.IndexFunc(accounts, func(a journal.Account) bool { return a.ID == accountID })
}
