package pg

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Channel is the LISTEN/NOTIFY channel the change trigger publishes on.
const Channel = "tj_changes"

// MaxInlineRow is the largest row, in bytes of JSON, the trigger embeds in
// a notification. NOTIFY payloads must stay under 8000 bytes; larger rows
// are sent without the row and re-read by the listener.
const MaxInlineRow = 7000

// Migrate creates the tables and the change-notification trigger.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`create table if not exists accounts (
			id text primary key,
			user_id text not null,
			name text not null,
			currency text,
			starting_equity numeric(20,6),
			exchange text,
			status text,
			notes text,
			last_sync_at timestamptz,
			created_at timestamptz not null default now(),
			unique (user_id, name)
		);`,
		`create table if not exists trades (
			id text primary key,
			user_id text not null,
			account_id text,
			symbol text,
			strategy text,
			side text check (side in ('long', 'short')),
			quantity double precision,
			entry_price double precision,
			exit_price double precision,
			rr double precision,
			pnl numeric(20,6),
			entry_at timestamptz,
			exit_at timestamptz,
			fees numeric(20,6),
			notes text,
			tags jsonb not null default '[]'::jsonb,
			session text,
			result text check (result in ('win', 'be', 'loss')),
			risk_pct double precision,
			risk_amount numeric(20,6),
			created_at timestamptz not null default now()
		);`,
		`create index if not exists trades_user_entry_idx on trades(user_id, entry_at desc);`,
		`create or replace function tj_notify_change() returns trigger as $$
		declare
			rec record;
			body json;
		begin
			if tg_op = 'DELETE' then rec := old; else rec := new; end if;
			if tg_op <> 'DELETE' then
				body := row_to_json(rec);
				if octet_length(body::text) > ` + strconv.Itoa(MaxInlineRow) + ` then
					body := null;
				end if;
			end if;
			perform pg_notify('` + Channel + `', json_build_object(
				'table', tg_table_name,
				'op', lower(tg_op),
				'user_id', rec.user_id,
				'id', rec.id,
				'row', body
			)::text);
			return rec;
		end;
		$$ language plpgsql;`,
		`drop trigger if exists accounts_notify on accounts;`,
		`create trigger accounts_notify after insert or update or delete on accounts
			for each row execute function tj_notify_change();`,
		`drop trigger if exists trades_notify on trades;`,
		`create trigger trades_notify after insert or update or delete on trades
			for each row execute function tj_notify_change();`,
	}

	for i, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i, err)
		}
	}
	return nil
}
