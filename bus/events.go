package bus

import "github.com/rustyeddy/tradejournal/journal"

// Well-known event names.
const (
	AccountsChangedEvent = "accounts.changed"
	TradesChangedEvent   = "trades.changed"
	AccountSelectedEvent = "account.selected"
	NotesChangedEvent    = "notes.changed"
	GoalsChangedEvent    = "goals.changed"
	PeriodChangedEvent   = "period.changed"
)

// AccountsChanged follows a reload of the account list.
type AccountsChanged struct {
	Accounts   []journal.Account
	SelectedID string
}

// TradesChanged follows any change to the trade snapshot. Type is a
// message type for single-record changes and empty after a reload.
// Remote is set when the change arrived from another context.
type TradesChanged struct {
	Type      MessageType
	ID        string
	AccountID string
	Count     int
	Remote    bool
}

// AccountSelected follows a change of the selected account.
type AccountSelected struct {
	ID string
}

// PeriodChanged follows a change of a view's period. View is empty for the
// journal-wide period.
type PeriodChanged struct {
	View   string
	Period journal.Period
}
