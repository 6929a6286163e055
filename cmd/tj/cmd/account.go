package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/report"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage trading accounts",
	Long: `Create, change and select the accounts trades are recorded against.

Accounts can be named by id or by name.

Examples:
  tj account add --name Main --equity 25000
  tj account list
  tj account select Main
  tj account toggle Main`,
}

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(runAccountList)
	},
}

var accountAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(runAccountAdd)
	},
}

var accountUpdateCmd = &cobra.Command{
	Use:   "update <account>",
	Short: "Change account fields given as flags",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error { return runAccountUpdate(ctx, a, cmd, args[0]) })
	},
}

var accountDeleteCmd = &cobra.Command{
	Use:   "delete <account>",
	Short: "Delete an account and its trades",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			acct, err := findAccount(a, args[0])
			if err != nil {
				return err
			}
			if err := a.store.DeleteAccount(ctx, acct.ID); err != nil {
				return err
			}
			fmt.Printf("✓ Deleted account %s\n", acct.Name)
			return nil
		})
	},
}

var accountToggleCmd = &cobra.Command{
	Use:   "toggle <account>",
	Short: "Switch an account between active and disabled",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			acct, err := findAccount(a, args[0])
			if err != nil {
				return err
			}
			status, err := a.store.ToggleAccountStatus(ctx, acct.ID)
			if err != nil {
				return err
			}
			fmt.Printf("✓ %s is now %s\n", acct.Name, status)
			return nil
		})
	},
}

var accountSyncCmd = &cobra.Command{
	Use:   "sync <account>",
	Short: "Stamp the account's last sync time",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			acct, err := findAccount(a, args[0])
			if err != nil {
				return err
			}
			now := time.Now()
			if err := a.store.SyncAccount(ctx, acct.ID, now); err != nil {
				return err
			}
			fmt.Printf("✓ %s synced at %s\n", acct.Name, now.Format(time.RFC3339))
			return nil
		})
	},
}

var accountSelectCmd = &cobra.Command{
	Use:   "select <account>",
	Short: "Select the account views and KPIs use",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			target := args[0]
			if acct, err := findAccount(a, target); err == nil {
				target = acct.ID
			}
			selected := a.store.SelectAccount(target)
			if acct, ok := a.store.Account(selected); ok {
				fmt.Printf("✓ Selected %s\n", acct.Name)
			} else {
				fmt.Println("No accounts to select")
			}
			return nil
		})
	},
}

var accountFlags struct {
	name     string
	currency string
	equity   string
	exchange string
	notes    string
}

func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(accountListCmd, accountAddCmd, accountUpdateCmd, accountDeleteCmd,
		accountToggleCmd, accountSyncCmd, accountSelectCmd)

	for _, c := range []*cobra.Command{accountAddCmd, accountUpdateCmd} {
		c.Flags().StringVar(&accountFlags.name, "name", "", "account name")
		c.Flags().StringVar(&accountFlags.currency, "currency", "", "ISO currency code (default from config)")
		c.Flags().StringVar(&accountFlags.equity, "equity", "0", "starting equity")
		c.Flags().StringVar(&accountFlags.exchange, "exchange", "", "exchange or broker")
		c.Flags().StringVar(&accountFlags.notes, "notes", "", "free-form notes")
	}
	accountAddCmd.MarkFlagRequired("name")
}

// findAccount matches an account by id, then by case-insensitive name.
func findAccount(a *app, ref string) (journal.Account, error) {
	if acct, ok := a.store.Account(ref); ok {
		return acct, nil
	}
	for _, acct := range a.store.Accounts() {
		if strings.EqualFold(acct.Name, ref) {
			return acct, nil
		}
	}
	return journal.Account{}, fmt.Errorf("account %q: %w", ref, journal.ErrNotFound)
}

func runAccountList(ctx context.Context, a *app) error {
	accounts := a.store.Accounts()
	if len(accounts) == 0 {
		fmt.Println("No accounts. Create one with: tj account add --name <name>")
		return nil
	}

	selected := a.store.SelectedID()
	fmt.Printf("  %-26s %-16s %-8s %-9s %s\n", "ID", "NAME", "CURRENCY", "STATUS", "STARTING EQUITY")
	for _, acct := range accounts {
		mark := " "
		if acct.ID == selected {
			mark = "*"
		}
		fmt.Printf("%s %-26s %-16s %-8s %-9s %s\n", mark, acct.ID, acct.Name, acct.Currency, acct.Status,
			report.FormatMoney(acct.StartingEquity, acct.Currency))
	}
	return nil
}

func runAccountAdd(ctx context.Context, a *app) error {
	equity, err := decimal.NewFromString(accountFlags.equity)
	if err != nil {
		return fmt.Errorf("--equity: %w", err)
	}

	acct, err := a.store.CreateAccount(ctx, journal.Account{
		Name:           accountFlags.name,
		Currency:       accountFlags.currency,
		StartingEquity: equity,
		Exchange:       accountFlags.exchange,
		Notes:          accountFlags.notes,
	})
	if err != nil {
		return err
	}

	fmt.Printf("✓ Created account %s (%s)\n", acct.Name, acct.ID)
	return nil
}

func runAccountUpdate(ctx context.Context, a *app, cmd *cobra.Command, ref string) error {
	acct, err := findAccount(a, ref)
	if err != nil {
		return err
	}

	var p journal.AccountPatch
	flags := cmd.Flags()
	if flags.Changed("name") {
		p.Name = &accountFlags.name
	}
	if flags.Changed("currency") {
		code := strings.ToUpper(accountFlags.currency)
		p.Currency = &code
	}
	if flags.Changed("equity") {
		equity, err := decimal.NewFromString(accountFlags.equity)
		if err != nil {
			return fmt.Errorf("--equity: %w", err)
		}
		p.StartingEquity = &equity
	}
	if flags.Changed("exchange") {
		p.Exchange = &accountFlags.exchange
	}
	if flags.Changed("notes") {
		p.Notes = &accountFlags.notes
	}

	if err := a.store.UpdateAccount(ctx, acct.ID, p); err != nil {
		return err
	}
	fmt.Printf("✓ Updated account %s\n", acct.Name)
	return nil
}
