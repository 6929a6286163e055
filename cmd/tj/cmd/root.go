package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tj",
	Short: "A trading journal with live KPIs",
	Long: `tj records trades against named accounts and reports performance.

It provides tools for:
  - Managing accounts and their trades
  - KPIs, P/L buckets and distributions over a period
  - Importing and exporting trades as CSV or Org
  - Local goals and notes
  - Keeping several running journals in step

Data lives in SQLite or Postgres; see "tj config init".`,
	SilenceUsage: true,
}

var (
	cfgFile  string
	logLevel string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (defaults are used when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
}
