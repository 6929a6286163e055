package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/kpi"
	"github.com/rustyeddy/tradejournal/pkg/id"
	"github.com/rustyeddy/tradejournal/report"
	"github.com/rustyeddy/tradejournal/risk"
	"github.com/rustyeddy/tradejournal/store"
)

var tradeCmd = &cobra.Command{
	Use:   "trade",
	Short: "Record and query trades",
	Long: `Record, change and query trades.

Subcommands:
  list    - List recent trades
  add     - Record a trade
  update  - Change fields of a trade
  delete  - Delete a trade
  show    - Print one trade as an Org block
  today   - List trades closed today
  day     - List trades closed on a specific day
  import  - Import trades from CSV
  export  - Export trades as CSV or Org

Examples:
  tj trade add --symbol ES --strategy orb --pnl 125 --entry-at 2024-07-01T14:30:00Z
  tj trade today
  tj trade day 2024-01-15
  tj trade export --format org -o trades.org`,
}

var tradeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent trades, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(runTradeList)
	},
}

var tradeAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a trade",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error { return runTradeAdd(ctx, a, cmd) })
	},
}

var tradeUpdateCmd = &cobra.Command{
	Use:   "update <trade-id>",
	Short: "Change trade fields given as flags",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error { return runTradeUpdate(ctx, a, cmd, args[0]) })
	},
}

var tradeDeleteCmd = &cobra.Command{
	Use:   "delete <trade-id>",
	Short: "Delete a trade",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			if err := a.store.DeleteTrade(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("✓ Deleted trade %s\n", args[0])
			return nil
		})
	},
}

var tradeShowCmd = &cobra.Command{
	Use:   "show <trade-id>",
	Short: "Print one trade as an Org block",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			if _, err := loadAllTrades(ctx, a, ""); err != nil {
				return err
			}
			t, ok := a.store.Trade(args[0])
			if !ok {
				return fmt.Errorf("get trade %q: %w", args[0], journal.ErrNotFound)
			}
			fmt.Println(journal.FormatTradeOrg(t))
			if at, err := id.Time(t.ID); err == nil {
				fmt.Printf("Recorded: %s\n", at.In(time.Local).Format("2006-01-02 15:04:05"))
			}
			return nil
		})
	},
}

var tradeTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "List trades closed today",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			return printDay(ctx, a, time.Now().In(time.Local).Format("2006-01-02"))
		})
	},
}

var tradeDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List trades closed on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error { return printDay(ctx, a, args[0]) })
	},
}

var tradeImportCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import trades from a CSV file",
	Long: `Import trades from CSV, matching columns by header name.
Rows without an accountId go to --account, or the selected account.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error { return runTradeImport(ctx, a, args[0]) })
	},
}

var tradeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export trades as CSV or Org",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(runTradeExport)
	},
}

var listFilter journal.Filter

var tradeFlags struct {
	account  string
	symbol   string
	strategy string
	side     string
	qty      float64
	entry    float64
	exit     float64
	r        float64
	pnl      string
	fees     string
	entryAt  string
	exitAt   string
	tags     string
	notes    string
	session  string
	riskPct  float64
	risk     string
	limit    int
	offset   int
	format   string
	output   string
	strict   bool
}

func init() {
	rootCmd.AddCommand(tradeCmd)
	tradeCmd.AddCommand(tradeListCmd, tradeAddCmd, tradeUpdateCmd, tradeDeleteCmd, tradeShowCmd,
		tradeTodayCmd, tradeDayCmd, tradeImportCmd, tradeExportCmd)

	for _, c := range []*cobra.Command{tradeListCmd, tradeAddCmd, tradeUpdateCmd, tradeImportCmd, tradeExportCmd} {
		c.Flags().StringVarP(&tradeFlags.account, "account", "a", "", "account id or name (default: selected)")
	}
	for _, c := range []*cobra.Command{tradeAddCmd, tradeUpdateCmd} {
		f := c.Flags()
		f.StringVar(&tradeFlags.symbol, "symbol", "", "instrument symbol")
		f.StringVar(&tradeFlags.strategy, "strategy", "", "strategy label")
		f.StringVar(&tradeFlags.side, "side", "long", "long or short")
		f.Float64Var(&tradeFlags.qty, "qty", 1, "quantity")
		f.Float64Var(&tradeFlags.entry, "entry", 0, "entry price")
		f.Float64Var(&tradeFlags.exit, "exit", 0, "exit price")
		f.Float64Var(&tradeFlags.r, "r", 0, "R multiple")
		f.StringVar(&tradeFlags.pnl, "pnl", "0", "realized P/L (derived from --risk-pct and --r when omitted)")
		f.StringVar(&tradeFlags.fees, "fees", "0", "fees paid")
		f.StringVar(&tradeFlags.entryAt, "entry-at", "", "entry time, RFC3339 or YYYY-MM-DD HH:MM (default now)")
		f.StringVar(&tradeFlags.exitAt, "exit-at", "", "exit time; empty keeps the trade open")
		f.StringVar(&tradeFlags.tags, "tags", "", "tags separated by ; or ,")
		f.StringVar(&tradeFlags.notes, "notes", "", "execution notes")
		f.StringVar(&tradeFlags.session, "session", "", "market session (ASIA, FRANKFURT, LO_KZ, LUNCH, NY_KZ)")
		f.Float64Var(&tradeFlags.riskPct, "risk-pct", 0, "risk as percent of equity")
		f.StringVar(&tradeFlags.risk, "risk", "0", "risk amount")
	}
	tradeAddCmd.MarkFlagRequired("symbol")
	tradeAddCmd.Flags().BoolVar(&tradeFlags.strict, "strict", false, "refuse trades that break the risk policy")

	tradeListCmd.Flags().IntVar(&tradeFlags.limit, "limit", store.DefaultLimit, "page size")
	tradeListCmd.Flags().IntVar(&tradeFlags.offset, "offset", 0, "rows to skip")
	tradeListCmd.Flags().StringVar(&listFilter.Symbol, "symbol", "", "symbol substring")
	tradeListCmd.Flags().StringVar(&listFilter.Strategy, "strategy", "", "strategy substring")
	tradeListCmd.Flags().StringVar(&listFilter.Result, "result", "", "win, loss or be")

	tradeExportCmd.Flags().StringVar(&tradeFlags.format, "format", "csv", "csv or org")
	tradeExportCmd.Flags().StringVarP(&tradeFlags.output, "output", "o", "", "output file (default stdout)")
}

// accountFor resolves --account, falling back to the selected account.
func accountFor(a *app) (string, error) {
	if tradeFlags.account == "" {
		return a.store.SelectedID(), nil
	}
	acct, err := findAccount(a, tradeFlags.account)
	if err != nil {
		return "", err
	}
	return acct.ID, nil
}

// loadAllTrades pages through every trade of accountID into the store.
func loadAllTrades(ctx context.Context, a *app, accountID string) ([]journal.Trade, error) {
	var all []journal.Trade
	for offset := 0; ; offset += store.DefaultLimit {
		page, err := a.store.ListTrades(ctx, store.ListOptions{AccountID: accountID, Offset: offset})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < store.DefaultLimit {
			return all, nil
		}
	}
}

func runTradeList(ctx context.Context, a *app) error {
	accountID, err := accountFor(a)
	if err != nil {
		return err
	}

	var trades []journal.Trade
	if listFilter == (journal.Filter{}) {
		trades, err = a.store.ListTrades(ctx, store.ListOptions{
			AccountID: accountID, Limit: tradeFlags.limit, Offset: tradeFlags.offset,
		})
	} else {
		// Filters apply to the whole account, so page locally.
		var all []journal.Trade
		if all, err = loadAllTrades(ctx, a, accountID); err == nil {
			f := listFilter
			f.AccountID = accountID
			trades = f.Apply(all)
			if tradeFlags.limit > 0 {
				trades = journal.Paginate(trades, tradeFlags.offset/tradeFlags.limit, tradeFlags.limit)
			}
		}
	}
	if err != nil {
		return err
	}
	printTrades(os.Stdout, a, trades)
	return nil
}

func printTrades(w io.Writer, a *app, trades []journal.Trade) {
	if len(trades) == 0 {
		fmt.Fprintln(w, "No trades")
		return
	}
	fmt.Fprintf(w, "%-26s %-16s %-8s %-10s %-5s %-12s %s\n", "ID", "WHEN", "SYMBOL", "STRATEGY", "SIDE", "P/L", "RESULT")
	for _, t := range trades {
		cur := a.cfg.Currency
		if acct, ok := a.store.Account(t.AccountID); ok && acct.Currency != "" {
			cur = acct.Currency
		}
		fmt.Fprintf(w, "%-26s %-16s %-8s %-10s %-5s %-12s %s\n", t.ID,
			t.EffectiveAt().In(time.Local).Format("2006-01-02 15:04"), t.Symbol, t.Strategy, t.Side,
			report.SignedMoney(t.PnL, cur), t.Result)
	}
}

func runTradeAdd(ctx context.Context, a *app, cmd *cobra.Command) error {
	accountID, err := accountFor(a)
	if err != nil {
		return err
	}
	if accountID == "" {
		return fmt.Errorf("no account; create one with: tj account add --name <name>")
	}

	p, err := tradePatchFromFlags(cmd, true)
	if err != nil {
		return err
	}
	acct, _ := a.store.Account(accountID)
	t := p.Apply(journal.Trade{AccountID: accountID, Side: journal.Long, Quantity: 1, EntryAt: time.Now()})
	t = risk.Derive(t, acct.StartingEquity)
	t.Result = journal.DeriveResult(t.PnL)

	recent, err := a.store.ListTrades(ctx, store.ListOptions{AccountID: accountID})
	if err != nil {
		return err
	}
	dec := risk.Evaluate(a.cfg.Risk, t, acct.StartingEquity, recent, time.Now())
	for _, v := range dec.Violations {
		fmt.Printf("! %s: %s\n", v.Code, v.Msg)
	}
	if !dec.Allowed && tradeFlags.strict {
		return fmt.Errorf("trade rejected by risk policy")
	}

	saved, err := a.store.CreateTrade(ctx, t)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Recorded %s %s %s (%s)\n", saved.Symbol, saved.Side, report.SignedMoney(saved.PnL, a.cfg.Currency), saved.ID)
	return nil
}

func runTradeUpdate(ctx context.Context, a *app, cmd *cobra.Command, tradeID string) error {
	p, err := tradePatchFromFlags(cmd, false)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("account") {
		accountID, err := accountFor(a)
		if err != nil {
			return err
		}
		p.AccountID = &accountID
	}
	if p.IsEmpty() {
		return fmt.Errorf("nothing to update; pass at least one field flag")
	}
	if p.PnL != nil {
		r := journal.DeriveResult(*p.PnL)
		p.Result = &r
	}

	if err := a.store.UpdateTrade(ctx, tradeID, p); err != nil {
		return err
	}
	fmt.Printf("✓ Updated trade %s\n", tradeID)
	return nil
}

// tradePatchFromFlags collects the trade flags that were set. With all,
// flags carrying a default value are included too.
func tradePatchFromFlags(cmd *cobra.Command, all bool) (journal.TradePatch, error) {
	var p journal.TradePatch
	flags := cmd.Flags()
	set := func(name string) bool { return flags.Changed(name) || (all && flags.Lookup(name).DefValue != "") }

	if flags.Changed("symbol") {
		sym := strings.ToUpper(strings.TrimSpace(tradeFlags.symbol))
		p.Symbol = &sym
	}
	if flags.Changed("strategy") {
		p.Strategy = &tradeFlags.strategy
	}
	if flags.Changed("side") {
		side := journal.Side(strings.ToLower(tradeFlags.side))
		if side != journal.Long && side != journal.Short {
			return p, fmt.Errorf("--side must be long or short")
		}
		p.Side = &side
	}
	if set("qty") {
		p.Quantity = &tradeFlags.qty
	}
	if flags.Changed("entry") {
		p.EntryPrice = &tradeFlags.entry
	}
	if flags.Changed("exit") {
		p.ExitPrice = &tradeFlags.exit
	}
	if flags.Changed("r") {
		p.R = &tradeFlags.r
	}
	for _, d := range []struct {
		name string
		val  string
		dst  **decimal.Decimal
	}{
		{"pnl", tradeFlags.pnl, &p.PnL},
		{"fees", tradeFlags.fees, &p.Fees},
		{"risk", tradeFlags.risk, &p.RiskAmount},
	} {
		if !set(d.name) {
			continue
		}
		v, err := decimal.NewFromString(d.val)
		if err != nil {
			return p, fmt.Errorf("--%s: %w", d.name, err)
		}
		*d.dst = &v
	}
	if flags.Changed("entry-at") {
		at, err := parseWhen(tradeFlags.entryAt)
		if err != nil {
			return p, fmt.Errorf("--entry-at: %w", err)
		}
		p.EntryAt = &at
	}
	if flags.Changed("exit-at") {
		var at time.Time
		if tradeFlags.exitAt != "" {
			var err error
			if at, err = parseWhen(tradeFlags.exitAt); err != nil {
				return p, fmt.Errorf("--exit-at: %w", err)
			}
		}
		p.ExitAt = &at
	}
	if flags.Changed("tags") {
		tags := journal.SplitTags(tradeFlags.tags)
		p.Tags = &tags
	}
	if flags.Changed("notes") {
		p.Notes = &tradeFlags.notes
	}
	if flags.Changed("session") {
		s := journal.MarketSession(strings.ToUpper(tradeFlags.session))
		p.MarketSession = &s
	}
	if flags.Changed("risk-pct") {
		p.RiskPct = &tradeFlags.riskPct
	}
	return p, nil
}

func parseWhen(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

type closedBetweenLister interface {
	ListTradesClosedBetween(ctx context.Context, start, end time.Time) ([]journal.Trade, error)
}

func printDay(ctx context.Context, a *app, day string) error {
	start, end, err := dayBounds(time.Local, day)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	var recs []journal.Trade
	if l, ok := a.remote.(closedBetweenLister); ok {
		recs, err = l.ListTradesClosedBetween(ctx, start, end)
	} else {
		recs, err = tradesBetween(ctx, a, start, end)
	}
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	fmt.Println(journal.FormatTradesOrg(recs))
	return nil
}

func tradesBetween(ctx context.Context, a *app, start, end time.Time) ([]journal.Trade, error) {
	all, err := loadAllTrades(ctx, a, "")
	if err != nil {
		return nil, err
	}
	var out []journal.Trade
	for _, t := range kpi.Chronological(all) {
		at := t.EffectiveAt()
		if !at.Before(start) && at.Before(end) {
			out = append(out, t)
		}
	}
	return out, nil
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start, end, nil
}

func runTradeImport(ctx context.Context, a *app, path string) error {
	accountID, err := accountFor(a)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	trades, err := journal.ReadCSV(f, accountID)
	if err != nil {
		return err
	}

	imported := 0
	for _, t := range trades {
		if _, err := a.store.CreateTrade(ctx, t); err != nil {
			a.log.Warn().Err(err).Str("trade", t.ID).Str("symbol", t.Symbol).Msg("import skipped")
			continue
		}
		imported++
	}
	fmt.Printf("✓ Imported %d of %d trades from %s\n", imported, len(trades), path)
	return nil
}

func runTradeExport(ctx context.Context, a *app) error {
	accountID := ""
	if tradeFlags.account != "" {
		var err error
		if accountID, err = accountFor(a); err != nil {
			return err
		}
	}
	trades, err := loadAllTrades(ctx, a, accountID)
	if err != nil {
		return err
	}
	trades = kpi.Chronological(trades)

	var w io.Writer = os.Stdout
	if tradeFlags.output != "" {
		f, err := os.Create(tradeFlags.output)
		if err != nil {
			return fmt.Errorf("create %s: %w", tradeFlags.output, err)
		}
		defer f.Close()
		w = f
	}

	switch tradeFlags.format {
	case "csv":
		err = journal.WriteCSV(w, trades)
	case "org":
		_, err = fmt.Fprintln(w, journal.FormatTradesOrg(trades))
	default:
		return fmt.Errorf("--format must be csv or org")
	}
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if tradeFlags.output != "" {
		fmt.Fprintf(os.Stderr, "✓ Exported %d trades to %s\n", len(trades), tradeFlags.output)
	}
	return nil
}
