package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/rustyeddy/tradejournal/journal"
)

// fakeRemote is an in-memory journal.Remote. Setting fail makes every data
// call return it; calls counts data calls.
type fakeRemote struct {
	mu       sync.Mutex
	uid      string
	accounts []journal.Account
	trades   []journal.Trade
	fail     error
	calls    int
	nextID   int
}

var _ journal.Remote = (*fakeRemote)(nil)

func newFake(uid string) *fakeRemote { return &fakeRemote{uid: uid} }

func (f *fakeRemote) CurrentUserID(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uid, nil
}

func (f *fakeRemote) enter() error {
	f.mu.Lock()
	f.calls++
	return f.fail
}

func (f *fakeRemote) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeRemote) ListAccounts(context.Context) ([]journal.Account, error) {
	err := f.enter()
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return slices.Clone(f.accounts), nil
}

func (f *fakeRemote) CreateAccount(_ context.Context, a journal.Account) (journal.Account, error) {
	err := f.enter()
	defer f.mu.Unlock()
	if err != nil {
		return journal.Account{}, err
	}
	if a.ID == "" {
		f.nextID++
		a.ID = fmt.Sprintf("acct-%d", f.nextID)
	}
	f.accounts = append(f.accounts, a)
	return a, nil
}

func (f *fakeRemote) UpdateAccount(_ context.Context, id string, p journal.AccountPatch) error {
	err := f.enter()
	defer f.mu.Unlock()
	if err != nil {
		return err
	}
	for i := range f.accounts {
		if f.accounts[i].ID == id {
			f.accounts[i] = p.Apply(f.accounts[i])
			return nil
		}
	}
	return journal.ErrNotFound
}

func (f *fakeRemote) DeleteAccount(_ context.Context, id string) error {
	err := f.enter()
	defer f.mu.Unlock()
	if err != nil {
		return err
	}
	f.accounts = slices.DeleteFunc(f.accounts, func(a journal.Account) bool { return a.ID == id })
	return nil
}

func (f *fakeRemote) ListTrades(_ context.Context, flt journal.TradeFilter) ([]journal.Trade, error) {
	err := f.enter()
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := []journal.Trade{}
	for _, t := range f.trades {
		if flt.AccountID == "" || t.AccountID == flt.AccountID {
			out = append(out, t)
		}
	}
	if flt.Offset < len(out) {
		out = out[flt.Offset:]
	} else {
		out = []journal.Trade{}
	}
	if flt.Limit > 0 && len(out) > flt.Limit {
		out = out[:flt.Limit]
	}
	return out, nil
}

func (f *fakeRemote) CreateTrade(_ context.Context, t journal.Trade) (journal.Trade, error) {
	err := f.enter()
	defer f.mu.Unlock()
	if err != nil {
		return journal.Trade{}, err
	}
	if t.ID == "" {
		f.nextID++
		t.ID = fmt.Sprintf("trade-%d", f.nextID)
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	f.trades = append([]journal.Trade{t}, f.trades...)
	return t, nil
}

func (f *fakeRemote) UpdateTrade(_ context.Context, id string, p journal.TradePatch) error {
	err := f.enter()
	defer f.mu.Unlock()
	if err != nil {
		return err
	}
	for i := range f.trades {
		if f.trades[i].ID == id {
			f.trades[i] = p.Apply(f.trades[i])
			return nil
		}
	}
	return journal.ErrNotFound
}

func (f *fakeRemote) DeleteTrade(_ context.Context, id string) error {
	err := f.enter()
	defer f.mu.Unlock()
	if err != nil {
		return err
	}
	f.trades = slices.DeleteFunc(f.trades, func(t journal.Trade) bool { return t.ID == id })
	return nil
}

func (f *fakeRemote) SubscribeToChanges(context.Context, string, func(journal.RowChange)) (func(), error) {
	err := f.enter()
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return func() {}, nil
}
