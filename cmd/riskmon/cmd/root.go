package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "riskmon",
	Short: "Portfolio risk monitor for a global macro desk",
	Long: `Riskmon evaluates portfolio risk from return and position files.

It provides tools for:
  - VaR/CVaR across historical, parametric and Monte Carlo methods
  - Stress testing against historical crisis scenarios
  - Reverse stress calibration to a target loss
  - Drawdown circuit breaker with daily loss trackers
  - Risk limit and risk budget monitoring
  - Event and report journaling to SQLite or CSV`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
