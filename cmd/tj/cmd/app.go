package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/tradejournal/bus"
	"github.com/rustyeddy/tradejournal/config"
	"github.com/rustyeddy/tradejournal/internal/logging"
	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/journal/pg"
	"github.com/rustyeddy/tradejournal/prefs"
	"github.com/rustyeddy/tradejournal/store"
)

// app is one opened journal: configuration, backend and store.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	remote journal.Remote
	store  *store.Store

	closers []func() error
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if cfgFile == "" {
		cfg = config.Default()
		cfg.ApplyEnv()
	} else {
		var err error
		if cfg, err = config.LoadFromFile(cfgFile); err != nil {
			return nil, err
		}
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: logging.New(cfg.Log, os.Stderr)}

	if err := a.openBackend(ctx); err != nil {
		a.Close()
		return nil, err
	}

	opts := []store.Option{
		store.WithLogger(a.log),
		store.WithCurrency(cfg.Currency),
		store.WithGoals(cfg.Goals),
	}
	if cfg.Prefs.Path != "" {
		opts = append(opts, store.WithPrefs(prefs.OpenFile(cfg.Prefs.Path, a.log)))
	}

	sy, err := a.openSync(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	if sy != nil {
		opts = append(opts, store.WithSync(sy))
	}

	a.store = store.New(a.remote, opts...)
	return a, nil
}

func (a *app) openBackend(ctx context.Context) error {
	b := a.cfg.Backend
	switch b.Type {
	case "postgres":
		pool, err := pg.NewPool(ctx, b.DatabaseURL, pg.PoolConfigFromEnv())
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		if err := pg.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		a.remote = pg.New(pool, b.UserID, a.log)
	default:
		db, err := journal.NewSQLite(b.DBPath)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		db.SignIn(b.UserID)
		a.remote = db
	}
	a.log.Debug().Str("backend", b.Type).Str("user", b.UserID).Msg("journal opened")
	return nil
}

func (a *app) openSync(ctx context.Context) (*bus.Sync, error) {
	s := a.cfg.Sync

	var t bus.Transport
	switch s.Transport {
	case "key":
		interval, err := s.Interval()
		if err != nil {
			return nil, fmt.Errorf("sync.poll_interval: %w", err)
		}
		kt, err := bus.NewKeyTransport(s.KeyPath, interval, a.log)
		if err != nil {
			return nil, fmt.Errorf("open key transport: %w", err)
		}
		t = kt
	case "ws":
		dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		wt, err := bus.DialWS(dialCtx, s.WSURL, a.log)
		if err != nil {
			return nil, fmt.Errorf("dial relay: %w", err)
		}
		t = wt
	default:
		return nil, nil
	}

	sy := bus.NewSync(t, a.log)
	a.closers = append(a.closers, sy.Close)
	a.log.Debug().Str("transport", s.Transport).Str("origin", sy.Origin()).Msg("sync enabled")
	return sy, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn().Err(err).Msg("close")
		}
	}
	a.closers = nil
}

// withApp opens the journal, loads accounts and runs fn.
func withApp(fn func(ctx context.Context, a *app) error) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.store.RefreshAccounts(ctx); err != nil {
		return err
	}
	return fn(ctx, a)
}
