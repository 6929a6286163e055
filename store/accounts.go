package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rustyeddy/tradejournal/bus"
	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/prefs"
)

// RefreshAccounts reloads the account list. The persisted selection is
// kept when it still names an account, otherwise the first account is
// selected.
func (s *Store) RefreshAccounts(ctx context.Context) ([]journal.Account, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, fmt.Errorf("refresh accounts: %w", err)
	}

	list, err := s.remote.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh accounts: %w", err)
	}

	wanted, _ := s.prefs.Get(prefs.SelectedAccountKey)

	s.mu.Lock()
	s.accounts = slices.Clone(list)
	if wanted == "" {
		wanted = s.selectedID
	}
	s.selectedID = resolveSelection(s.accounts, wanted)
	selected := s.selectedID
	s.mu.Unlock()

	s.bus.Publish(bus.AccountsChangedEvent, bus.AccountsChanged{
		Accounts:   slices.Clone(list),
		SelectedID: selected,
	})
	return slices.Clone(list), nil
}

// resolveSelection returns id when it names an account, else the first
// account, else "".
func resolveSelection(accounts []journal.Account, accountID string) string {
	if indexAccount(accounts, accountID) >= 0 {
		return accountID
	}
	if len(accounts) > 0 {
		return accounts[0].ID
	}
	return ""
}

// CreateAccount saves a new account and reloads the list.
func (s *Store) CreateAccount(ctx context.Context, a journal.Account) (journal.Account, error) {
	if err := s.authorize(ctx); err != nil {
		return journal.Account{}, fmt.Errorf("create account: %w", err)
	}

	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return journal.Account{}, fmt.Errorf("create account: %w: name is required", journal.ErrValidation)
	}
	a.Currency = strings.ToUpper(strings.TrimSpace(a.Currency))
	if a.Currency == "" {
		a.Currency = s.Session().Currency
	}
	if a.Status == "" {
		a.Status = journal.StatusActive
	}

	saved, err := s.remote.CreateAccount(ctx, a)
	if err != nil {
		return journal.Account{}, fmt.Errorf("create account: %w", err)
	}
	if _, err := s.RefreshAccounts(ctx); err != nil {
		return saved, err
	}
	return saved, nil
}

func (s *Store) UpdateAccount(ctx context.Context, accountID string, p journal.AccountPatch) error {
	if err := s.authorize(ctx); err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return fmt.Errorf("update account: %w: name is required", journal.ErrValidation)
	}
	if err := s.remote.UpdateAccount(ctx, accountID, p); err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	_, err := s.RefreshAccounts(ctx)
	return err
}

func (s *Store) DeleteAccount(ctx context.Context, accountID string) error {
	if err := s.authorize(ctx); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if err := s.remote.DeleteAccount(ctx, accountID); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	_, err := s.RefreshAccounts(ctx)
	return err
}

// ToggleAccountStatus flips an account between active and disabled and
// returns the new status.
func (s *Store) ToggleAccountStatus(ctx context.Context, accountID string) (journal.AccountStatus, error) {
	a, ok := s.Account(accountID)
	if !ok {
		if _, err := s.RefreshAccounts(ctx); err != nil {
			return "", err
		}
		if a, ok = s.Account(accountID); !ok {
			return "", fmt.Errorf("toggle account: account %q %w", accountID, journal.ErrNotFound)
		}
	}

	next := journal.StatusDisabled
	if a.Status == journal.StatusDisabled {
		next = journal.StatusActive
	}
	if err := s.UpdateAccount(ctx, accountID, journal.AccountPatch{Status: &next}); err != nil {
		return "", err
	}
	return next, nil
}

// SyncAccount stamps the account's last sync time.
func (s *Store) SyncAccount(ctx context.Context, accountID string, now time.Time) error {
	return s.UpdateAccount(ctx, accountID, journal.AccountPatch{LastSyncAt: &now})
}
