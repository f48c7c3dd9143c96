package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"mechci/internal/ratefit"
)

func ratesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rates <reactions.yaml>",
		Short: "Evaluate k(T,P) tables for a set of fitted reactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := ratefit.LoadInput(args[0])
			if err != nil {
				return err
			}
			tables, err := in.Eval()
			if err != nil {
				return err
			}

			names := make([]string, 0, len(tables))
			for name := range tables {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				printTable(name, tables[name])
			}
			return nil
		},
	}
}

func printTable(name string, table ratefit.KTP) {
	fmt.Printf("\n%s\n", name)
	fmt.Printf("%10s", "T/K")
	pressures := table.Pressures()
	for _, p := range pressures {
		fmt.Printf("  %12s", fmt.Sprintf("P=%g", p))
	}
	if table.High != nil {
		fmt.Printf("  %12s", "high-P")
	}
	fmt.Println()

	for i, temp := range table.Temps {
		fmt.Printf("%10.1f", temp)
		for _, p := range pressures {
			fmt.Printf("  %12.4e", table.Ks[p][i])
		}
		if table.High != nil {
			fmt.Printf("  %12.4e", table.High[i])
		}
		fmt.Println()
	}
}
