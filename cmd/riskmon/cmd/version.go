package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("riskmon version %s\n", version)
		fmt.Println("Portfolio risk monitor for a global macro desk")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
