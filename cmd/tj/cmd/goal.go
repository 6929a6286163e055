package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradejournal/config"
	"github.com/rustyeddy/tradejournal/journal"
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Track local goals",
	Long: `Goals are local targets; they are never sent to the backend.
With --config they are saved back to the config file.

Examples:
  tj goal add --title "Win rate" --target 60 --unit %
  tj goal progress <goal-id> 48`,
}

var goalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List goals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			goals := a.store.Goals()
			if len(goals) == 0 {
				fmt.Println("No goals")
				return nil
			}
			for _, g := range goals {
				due := ""
				if !g.Due.IsZero() {
					due = " due " + g.Due.Format("2006-01-02")
				}
				fmt.Printf("%-26s %-24s %g/%g %s%s\n", g.ID, g.Title, g.Progress, g.Target, g.Unit, due)
			}
			return nil
		})
	},
}

var goalAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a goal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(runGoalAdd)
	},
}

var goalProgressCmd = &cobra.Command{
	Use:   "progress <goal-id> <value>",
	Short: "Set a goal's progress",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("progress: %w", err)
		}
		return withApp(func(ctx context.Context, a *app) error {
			if !a.store.UpdateGoalProgress(args[0], v) {
				return fmt.Errorf("goal %q: %w", args[0], journal.ErrNotFound)
			}
			if err := saveGoals(a); err != nil {
				return err
			}
			fmt.Printf("✓ Progress of %s set to %g\n", args[0], v)
			return nil
		})
	},
}

var goalFlags struct {
	title  string
	target float64
	unit   string
	due    string
}

func init() {
	rootCmd.AddCommand(goalCmd)
	goalCmd.AddCommand(goalListCmd, goalAddCmd, goalProgressCmd)

	goalAddCmd.Flags().StringVar(&goalFlags.title, "title", "", "goal title")
	goalAddCmd.Flags().Float64Var(&goalFlags.target, "target", 0, "target value")
	goalAddCmd.Flags().StringVar(&goalFlags.unit, "unit", string(journal.UnitPercent), "%, USD or trades")
	goalAddCmd.Flags().StringVar(&goalFlags.due, "due", "", "due date YYYY-MM-DD")
	goalAddCmd.MarkFlagRequired("title")
}

func runGoalAdd(ctx context.Context, a *app) error {
	g := journal.Goal{Title: goalFlags.title, Target: goalFlags.target, Unit: journal.GoalUnit(goalFlags.unit)}
	switch g.Unit {
	case journal.UnitPercent, journal.UnitUSD, journal.UnitTrades:
	default:
		return fmt.Errorf("--unit must be %%, USD or trades")
	}
	if goalFlags.due != "" {
		due, err := parseWhen(goalFlags.due)
		if err != nil {
			return fmt.Errorf("--due: %w", err)
		}
		g.Due = due
	}

	g = a.store.AddGoal(g)
	if err := saveGoals(a); err != nil {
		return err
	}
	fmt.Printf("✓ Added goal %s (%s)\n", g.Title, g.ID)
	return nil
}

// saveGoals writes the goal list back to the config file, when there is one.
func saveGoals(a *app) error {
	if cfgFile == "" {
		a.log.Warn().Msg("no --config given, goals are kept for this run only")
		return nil
	}
	cfg, err := config.ReadFile(cfgFile)
	if err != nil {
		return err
	}
	cfg.Goals = a.store.Goals()
	if err := cfg.SaveToFile(cfgFile); err != nil {
		return fmt.Errorf("save goals: %w", err)
	}
	return nil
}
