package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradejournal/bus"
	"github.com/rustyeddy/tradejournal/internal/logging"
	"github.com/rustyeddy/tradejournal/store"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow journal changes and print every event",
	Long: `Load the selected account's trades, then follow backend change
notifications and the configured sync transport until interrupted.
Each bus event is printed as one JSON line.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(runWatch)
	},
}

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run the websocket relay that ws sync transports connect to",
	Args:  cobra.NoArgs,
	RunE:  runRelay,
}

var relayListen string

func init() {
	rootCmd.AddCommand(watchCmd, relayCmd)
	relayCmd.Flags().StringVarP(&relayListen, "listen", "l", "", "listen address (default sync.ws_listen)")
}

func runWatch(ctx context.Context, a *app) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	enc := json.NewEncoder(os.Stdout)
	cancel := a.store.Bus().SubscribeAll(func(e bus.Event) {
		if err := enc.Encode(struct {
			At     time.Time `json:"at"`
			Name   string    `json:"event"`
			Detail any       `json:"detail"`
		}{time.Now(), e.Name, e.Detail}); err != nil {
			a.log.Warn().Err(err).Str("event", e.Name).Msg("print event")
		}
	})
	defer cancel()

	if _, err := a.store.ListTrades(ctx, store.ListOptions{AccountID: a.store.SelectedID()}); err != nil {
		return err
	}

	a.log.Info().Str("backend", a.cfg.Backend.Type).Str("sync", orNone(a.cfg.Sync.Transport)).Msg("watching")
	if err := a.store.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runRelay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logging.New(cfg.Log, os.Stderr)

	addr := relayListen
	if addr == "" {
		addr = cfg.Sync.WSListen
	}
	if addr == "" {
		return fmt.Errorf("no listen address; set sync.ws_listen or --listen")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	relay := bus.NewWSServer(log)
	mux := http.NewServeMux()
	mux.Handle("/", relay)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Info().Str("addr", addr).Msg("relay listening")

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("relay: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Info().Int("peers", relay.Peers()).Msg("relay shutting down")
	return srv.Shutdown(shutdownCtx)
}
