package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "mechci",
		Short:         "Pipeline definition linter and runner for the AutoMech toolchain",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().String("data-dir", ".mechci", "Directory for logs, run history and the audit ledger")

	root.AddCommand(validateCmd())
	root.AddCommand(runCmd())
	root.AddCommand(recipeCmd())
	root.AddCommand(ratesCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(ledgerCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
