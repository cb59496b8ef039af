package main

import (
	"os"

	"github.com/macrodesk/riskengine/cmd/riskmon/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
