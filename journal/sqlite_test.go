package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()

	j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	j.SignIn("u1")
	return j
}

func seedAccount(t *testing.T, j *SQLite, name string) Account {
	t.Helper()

	a, err := j.CreateAccount(context.Background(), Account{
		Name: name, Currency: "USD", StartingEquity: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)
	return a
}

func TestSQLite_Unauthenticated(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	j.SignOut()
	ctx := context.Background()

	uid, err := j.CurrentUserID(ctx)
	require.NoError(t, err)
	assert.Empty(t, uid)

	_, err = j.ListAccounts(ctx)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = j.ListTrades(ctx, TradeFilter{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = j.SubscribeToChanges(ctx, TableTrades, func(RowChange) {})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestSQLite_AccountCRUD(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	ctx := context.Background()

	a := seedAccount(t, j, "Main")
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, StatusActive, a.Status)
	assert.True(t, a.StartingEquity.Equal(decimal.NewFromInt(1000)))

	_, err := j.CreateAccount(ctx, Account{Name: "Main"})
	assert.ErrorIs(t, err, ErrValidation, "names are unique per user")

	_, err = j.CreateAccount(ctx, Account{Name: "  "})
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, j.UpdateAccount(ctx, a.ID, AccountPatch{Status: Ptr(StatusDisabled)}))
	list, err := j.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, StatusDisabled, list[0].Status)

	require.NoError(t, j.DeleteAccount(ctx, a.ID))
	assert.ErrorIs(t, j.DeleteAccount(ctx, a.ID), ErrNotFound)
	assert.ErrorIs(t, j.UpdateAccount(ctx, a.ID, AccountPatch{}), ErrNotFound)
}

func TestSQLite_ScopedToUser(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	ctx := context.Background()
	seedAccount(t, j, "Mine")

	j.SignIn("u2")
	list, err := j.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	// Same name is fine for another user.
	seedAccount(t, j, "Mine")
}

func TestSQLite_TradeLifecycle(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	ctx := context.Background()
	a := seedAccount(t, j, "Main")

	entry := time.Date(2024, 5, 2, 14, 0, 0, 0, time.UTC)
	tr, err := j.CreateTrade(ctx, Trade{
		AccountID: a.ID,
		Symbol:    "NQ",
		Strategy:  "orb",
		Quantity:  2,
		PnL:       decimal.RequireFromString("-35.25"),
		EntryAt:   entry,
		Tags:      []string{"fomc"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tr.ID)
	assert.Equal(t, Long, tr.Side)
	assert.Equal(t, Loss, tr.Result)
	assert.True(t, tr.ExitAt.IsZero(), "open trade keeps a null exit")
	assert.True(t, tr.EntryAt.Equal(entry))

	exit := entry.Add(30 * time.Minute)
	require.NoError(t, j.UpdateTrade(ctx, tr.ID, TradePatch{
		ExitAt: &exit,
		PnL:    Ptr(decimal.NewFromInt(80)),
		Result: Ptr(Win),
	}))

	got, err := j.GetTrade(ctx, tr.ID)
	require.NoError(t, err)
	assert.True(t, got.ExitAt.Equal(exit))
	assert.Equal(t, Win, got.Result)
	assert.Equal(t, []string{"fomc"}, got.Tags)
	assert.Equal(t, 2.0, got.Quantity)

	require.NoError(t, j.DeleteTrade(ctx, tr.ID))
	_, err = j.GetTrade(ctx, tr.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, j.DeleteTrade(ctx, tr.ID), ErrNotFound)
}

func TestSQLite_CreateTradeValidation(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	ctx := context.Background()
	a := seedAccount(t, j, "Main")
	entry := time.Date(2024, 5, 2, 14, 0, 0, 0, time.UTC)

	cases := map[string]Trade{
		"no account":      {Symbol: "ES", EntryAt: entry},
		"unknown account": {AccountID: "nope", Symbol: "ES", EntryAt: entry},
		"no symbol":       {AccountID: a.ID, EntryAt: entry},
		"no entry":        {AccountID: a.ID, Symbol: "ES"},
		"bad side":        {AccountID: a.ID, Symbol: "ES", EntryAt: entry, Side: "up"},
		"exit before":     {AccountID: a.ID, Symbol: "ES", EntryAt: entry, ExitAt: entry.Add(-time.Hour)},
	}
	for name, tr := range cases {
		_, err := j.CreateTrade(ctx, tr)
		assert.ErrorIs(t, err, ErrValidation, name)
	}

	list, err := j.ListTrades(ctx, TradeFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSQLite_ListTradesOrderAndPaging(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	ctx := context.Background()
	a := seedAccount(t, j, "A")
	b := seedAccount(t, j, "B")

	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	for i := range 5 {
		acct := a.ID
		if i%2 == 1 {
			acct = b.ID
		}
		_, err := j.CreateTrade(ctx, Trade{
			ID: string(rune('a' + i)), AccountID: acct, Symbol: "ES", EntryAt: base.AddDate(0, 0, i),
		})
		require.NoError(t, err)
	}

	all, err := j.ListTrades(ctx, TradeFilter{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "e", all[0].ID, "most recent first")
	assert.Equal(t, "a", all[4].ID)

	page, err := j.ListTrades(ctx, TradeFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, []string{"d", "c"}, []string{page[0].ID, page[1].ID})

	onlyB, err := j.ListTrades(ctx, TradeFilter{AccountID: b.ID})
	require.NoError(t, err)
	assert.Len(t, onlyB, 2)

	between, err := j.ListTradesClosedBetween(ctx, base.AddDate(0, 0, 1), base.AddDate(0, 0, 3))
	require.NoError(t, err)
	require.Len(t, between, 2)
	assert.Equal(t, "b", between[0].ID, "oldest first")
}

func TestSQLite_SubscribeToChanges(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	ctx := context.Background()

	var got []RowChange
	cancel, err := j.SubscribeToChanges(ctx, TableAccounts, func(c RowChange) { got = append(got, c) })
	require.NoError(t, err)

	var trades int
	_, err = j.SubscribeToChanges(ctx, TableTrades, func(RowChange) { trades++ })
	require.NoError(t, err)

	a := seedAccount(t, j, "Main")
	require.NoError(t, j.UpdateAccount(ctx, a.ID, AccountPatch{Notes: Ptr("x")}))

	require.Len(t, got, 2)
	assert.Equal(t, OpInsert, got[0].Op)
	require.NotNil(t, got[0].Account)
	assert.Equal(t, "Main", got[0].Account.Name)
	assert.Equal(t, OpUpdate, got[1].Op)
	assert.Zero(t, trades)

	cancel()
	cancel()
	require.NoError(t, j.DeleteAccount(ctx, a.ID))
	assert.Len(t, got, 2, "no delivery after cancel")

	_, err = j.SubscribeToChanges(ctx, "goals", func(RowChange) {})
	assert.Error(t, err)
}

func TestSQLite_SubscriptionEndsWithContext(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	ctx, cancel := context.WithCancel(context.Background())

	var n int
	_, err := j.SubscribeToChanges(ctx, TableAccounts, func(RowChange) { n++ })
	require.NoError(t, err)
	cancel()

	require.Eventually(t, func() bool {
		j.subMu.Lock()
		defer j.subMu.Unlock()
		return len(j.subs) == 0
	}, time.Second, 5*time.Millisecond)

	seedAccount(t, j, "Main")
	assert.Zero(t, n)
}
