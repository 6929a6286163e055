package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradejournal/journal"
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Read or replace the journal notes",
}

var notesGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the notes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			fmt.Println(a.store.Notes())
			return nil
		})
	},
}

var notesSetCmd = &cobra.Command{
	Use:   "set [text]",
	Short: "Replace the notes; reads stdin when no text is given",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if len(args) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			text = strings.TrimRight(string(b), "\n")
		}
		return withApp(func(ctx context.Context, a *app) error {
			if err := a.store.SetNotes(text); err != nil {
				return err
			}
			fmt.Println("✓ Notes saved")
			return nil
		})
	},
}

var periodCmd = &cobra.Command{
	Use:   "period",
	Short: "Show or set the reporting period",
}

var periodView string

var periodShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current period",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			fmt.Println(a.store.Period(periodView))
			return nil
		})
	},
}

var periodSetCmd = &cobra.Command{
	Use:       "set <period>",
	Short:     "Set the period (1D, 1W, 1M, 3M, YTD, ALL)",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"1D", "1W", "1M", "3M", "YTD", "ALL"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			if err := a.store.SetPeriod(periodView, journal.Period(args[0])); err != nil {
				return err
			}
			fmt.Printf("✓ Period set to %s\n", a.store.Period(periodView))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(notesCmd, periodCmd)
	notesCmd.AddCommand(notesGetCmd, notesSetCmd)
	periodCmd.AddCommand(periodShowCmd, periodSetCmd)

	periodCmd.PersistentFlags().StringVar(&periodView, "view", "", "view name; empty sets the journal-wide period")
}
