package store

import (
	"fmt"
	"slices"
	"time"

	"github.com/rustyeddy/tradejournal/bus"
	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/kpi"
	"github.com/rustyeddy/tradejournal/prefs"
)

// SetNotes replaces the free-form notes and persists them. The in-memory
// notes change even when persisting fails.
func (s *Store) SetNotes(text string) error {
	s.mu.Lock()
	s.notes = text
	s.mu.Unlock()

	s.bus.Publish(bus.NotesChangedEvent, text)
	if err := s.prefs.Set(prefs.NotesKey, text); err != nil {
		return fmt.Errorf("persist notes: %w", err)
	}
	return nil
}

// AddGoal prepends g, assigning an id when it has none.
func (s *Store) AddGoal(g journal.Goal) journal.Goal {
	if g.ID == "" {
		g.ID = s.newID()
	}

	s.mu.Lock()
	s.goals = append([]journal.Goal{g}, s.goals...)
	goals := slices.Clone(s.goals)
	s.mu.Unlock()

	s.bus.Publish(bus.GoalsChangedEvent, goals)
	return g
}

// UpdateGoalProgress sets a goal's progress. It reports false when no goal
// has that id.
func (s *Store) UpdateGoalProgress(goalID string, progress float64) bool {
	s.mu.Lock()
	i := slices.IndexFunc(s.goals, func(g journal.Goal) bool { return g.ID == goalID })
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.goals = slices.Clone(s.goals)
	s.goals[i].Progress = progress
	goals := slices.Clone(s.goals)
	s.mu.Unlock()

	s.bus.Publish(bus.GoalsChangedEvent, goals)
	return true
}

// SelectAccount selects accountID, or the first account when it names
// none, and returns the id actually selected.
func (s *Store) SelectAccount(accountID string) string {
	s.mu.Lock()
	s.selectedID = resolveSelection(s.accounts, accountID)
	selected := s.selectedID
	s.mu.Unlock()

	if err := s.prefs.Set(prefs.SelectedAccountKey, selected); err != nil {
		s.log.Warn().Err(err).Msg("persist selected account")
	}
	s.bus.Publish(bus.AccountSelectedEvent, bus.AccountSelected{ID: selected})
	return selected
}

// SetPeriod sets the period of view, or the journal-wide period when view
// is empty.
func (s *Store) SetPeriod(view string, p journal.Period) error {
	p, err := journal.ParsePeriod(string(p))
	if err != nil {
		return err
	}

	s.mu.Lock()
	if view == "" {
		s.session.Period = p
	} else {
		s.session.ViewPeriods[view] = p
	}
	s.mu.Unlock()

	if err := s.prefs.Set(prefs.ViewPeriodKey(view), string(p)); err != nil {
		s.log.Warn().Err(err).Str("view", view).Msg("persist period")
	}
	s.bus.Publish(bus.PeriodChangedEvent, bus.PeriodChanged{View: view, Period: p})
	return nil
}

// Kpis aggregates the selected account's trades (or the first account's,
// or every trade when there are no accounts) over the journal-wide period.
func (s *Store) Kpis(now time.Time) kpi.Kpis {
	s.mu.RLock()
	var acct journal.Account
	if i := indexAccount(s.accounts, s.selectedID); i >= 0 {
		acct = s.accounts[i]
	} else if len(s.accounts) > 0 {
		acct = s.accounts[0]
	}
	period := s.period("")
	currency := s.session.Currency
	s.mu.RUnlock()

	if acct.Currency != "" {
		currency = acct.Currency
	}
	trades := kpi.FilterByPeriod(s.Trades(acct.ID), period, now)
	return kpi.Compute(trades, acct.StartingEquity, currency)
}
