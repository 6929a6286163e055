package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/kpi"
	"github.com/rustyeddy/tradejournal/report"
)

var kpiCmd = &cobra.Command{
	Use:   "kpi",
	Short: "Report KPIs for the selected account",
	Long: `Aggregate the selected account's trades over the journal period.

Examples:
  tj kpi
  tj kpi --period 1M --format markdown > july.md
  tj kpi --curve`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(runKpi)
	},
}

var kpiFlags struct {
	period string
	format string
	curve  bool
	window int
}

func init() {
	rootCmd.AddCommand(kpiCmd)

	kpiCmd.Flags().StringVarP(&kpiFlags.period, "period", "p", "", "period for this report only (1D, 1W, 1M, 3M, YTD, ALL)")
	kpiCmd.Flags().StringVar(&kpiFlags.format, "format", "text", "text or markdown")
	kpiCmd.Flags().BoolVar(&kpiFlags.curve, "curve", false, "also print the equity curve and moving win rate")
	kpiCmd.Flags().IntVar(&kpiFlags.window, "window", kpi.DefaultWindow, "trades per moving win rate window")
}

func runKpi(ctx context.Context, a *app) error {
	acct, _ := a.store.SelectedAccount()
	all, err := loadAllTrades(ctx, a, acct.ID)
	if err != nil {
		return err
	}

	now := time.Now()
	period := a.store.Period("")
	k := a.store.Kpis(now)
	trades := kpi.FilterByPeriod(a.store.Trades(acct.ID), period, now)
	if kpiFlags.period != "" {
		if period, err = journal.ParsePeriod(kpiFlags.period); err != nil {
			return err
		}
		trades = kpi.FilterByPeriod(all, period, now)
		k = kpi.Compute(trades, acct.StartingEquity, k.Currency)
	}

	r := report.Report{
		Account:   acct.Name,
		Period:    period,
		Generated: now,
		Kpis:      k,
		Goals:     a.store.Goals(),
		Notes:     a.store.Notes(),
	}
	switch kpiFlags.format {
	case "markdown", "md":
		if err := r.WriteMarkdown(os.Stdout); err != nil {
			return err
		}
	case "text":
		report.PrintSummary(os.Stdout, r)
		if acct.ID == "" {
			printByAccount(a, trades, k.Currency)
		}
	default:
		return fmt.Errorf("--format must be text or markdown")
	}

	if kpiFlags.curve {
		printCurve(trades, acct.StartingEquity, k.Currency)
	}
	return nil
}

func printByAccount(a *app, trades []journal.Trade, currency string) {
	byAcct := kpi.ByAccount(trades, a.store.Accounts())
	if len(byAcct) == 0 {
		return
	}
	fmt.Println("By Account")
	fmt.Println("--------------------------------------------------")
	for _, s := range byAcct {
		fmt.Printf("%-14s %s (%d)\n", s.Key, report.SignedMoney(s.PnL, currency), s.Count)
	}
	fmt.Println()
}

func printCurve(trades []journal.Trade, startingEquity decimal.Decimal, currency string) {
	equity := kpi.EquityCurve(trades, startingEquity)
	winRate := kpi.MovingWinRate(trades, kpiFlags.window)

	fmt.Println("Equity Curve")
	fmt.Println("--------------------------------------------------")
	for i, p := range equity {
		wr := ""
		if i < len(winRate) {
			wr = fmt.Sprintf("%.1f%%", winRate[i].Value*100)
		}
		fmt.Printf("%s  %14s  %s\n", p.At.In(time.Local).Format("2006-01-02 15:04"),
			report.FormatMoney(decimal.NewFromFloat(p.Value), currency), wr)
	}
	fmt.Println()
}
