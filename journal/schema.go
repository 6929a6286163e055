// journal/schema.go
package journal

// Schema is the SQLite DDL. Every row carries the owning user_id; the
// SQLite backend filters on it the way row-level security would.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL,
	currency TEXT,
	starting_equity TEXT,
	exchange TEXT,
	status TEXT,
	notes TEXT,
	last_sync_at DATETIME,
	created_at DATETIME NOT NULL,
	UNIQUE (user_id, name)
);

CREATE TABLE IF NOT EXISTS trades (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	account_id TEXT,
	symbol TEXT,
	strategy TEXT,
	side TEXT,
	quantity REAL,
	entry_price REAL,
	exit_price REAL,
	rr REAL,
	pnl TEXT,
	entry_at DATETIME,
	exit_at DATETIME,
	fees TEXT,
	notes TEXT,
	tags TEXT,
	session TEXT,
	result TEXT,
	risk_pct REAL,
	risk_amount TEXT,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_user_entry ON trades(user_id, entry_at);
CREATE INDEX IF NOT EXISTS idx_trades_account ON trades(account_id);
`

// TradeColumns is the select list ScanTrade expects.
const TradeColumns = `id, account_id, symbol, strategy, side, quantity, entry_price, exit_price, rr,
	pnl, entry_at, exit_at, fees, notes, tags, session, result, risk_pct, risk_amount`

// AccountColumns is the select list ScanAccount expects.
const AccountColumns = `id, name, currency, starting_equity, exchange, status, notes, last_sync_at`
