package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/macrodesk/riskengine/stress"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the built-in stress scenarios",
	Long: `Display the historical crisis scenarios applied by the stress tester,
with the shock applied to each instrument prefix.

Example:
  riskmon scenarios`,
	RunE: runScenarios,
}

func init() {
	rootCmd.AddCommand(scenariosCmd)
}

func runScenarios(cmd *cobra.Command, args []string) error {
	for _, s := range stress.DefaultScenarios() {
		fmt.Printf("%s  (%s)\n", s.Name, s.Period)
		fmt.Printf("  %s\n", s.Description)

		keys := make([]string, 0, len(s.Shocks))
		for k := range s.Shocks {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %-12s %+.1f%%\n", k, s.Shocks[k]*100)
		}
		fmt.Println()
	}
	return nil
}
