package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/macrodesk/riskengine/stress"
)

var stressCmd = &cobra.Command{
	Use:   "stress",
	Short: "Run the stress battery over a position book",
	Long: `Apply every built-in scenario to a positions CSV and print per-scenario
P&L. With --reverse, also calibrate the shock multiplier that loses the given
fraction of portfolio value under each scenario.

Example:
  riskmon stress --positions book.csv --portfolio-value 1000000 --reverse -0.10`,
	RunE: runStress,
}

var (
	stressPositionsPath string
	stressValue         float64
	stressReverseTarget float64
)

func init() {
	rootCmd.AddCommand(stressCmd)

	stressCmd.Flags().StringVar(&stressPositionsPath, "positions", "", "path to positions CSV (required)")
	stressCmd.Flags().Float64Var(&stressValue, "portfolio-value", 0, "portfolio value used as the P&L denominator")
	stressCmd.Flags().Float64Var(&stressReverseTarget, "reverse", 0, "reverse stress target loss fraction (e.g. -0.10)")
	stressCmd.MarkFlagRequired("positions")
}

func runStress(cmd *cobra.Command, args []string) error {
	book, _, _, err := loadPositionsCSV(stressPositionsPath)
	if err != nil {
		return fmt.Errorf("load positions: %w", err)
	}

	scenarios := stress.DefaultScenarios()
	results := stress.RunAll(scenarios, book, stressValue)

	fmt.Printf("%-14s %14s %9s  %s\n", "scenario", "pnl", "pct", "worst")
	for _, r := range results {
		fmt.Printf("%-14s %14.2f %8.2f%%  %s %.2f\n",
			r.Scenario, r.TotalPnL, r.PctOfPortfolio*100, r.WorstInstrument, r.WorstPnL)
		if r.Warning != "" {
			fmt.Printf("  warning: %s\n", r.Warning)
		}
	}

	worst, err := stress.WorstCase(results)
	if err != nil {
		return err
	}
	fmt.Printf("\nworst case: %s (%.2f)\n", worst.Scenario, worst.TotalPnL)

	if stressReverseTarget != 0 {
		fmt.Printf("\nREVERSE STRESS  target %.1f%%\n", stressReverseTarget*100)
		for _, r := range stress.Reverse(scenarios, book, stressValue, stressReverseTarget) {
			if r.Feasible {
				fmt.Printf("  %-14s multiplier %.4f  achieved %.2f%%\n",
					r.Scenario, r.Multiplier, r.AchievedLossPct*100)
			} else {
				fmt.Printf("  %-14s infeasible: %s\n", r.Scenario, r.Reason)
			}
		}
	}
	return nil
}
