package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mechci/internal/config"
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <pipeline.yaml>",
		Short: "Lint a pipeline definition file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			fmt.Printf("%s: %d jobs, %d workflows, ok\n", args[0], len(cfg.Jobs), len(cfg.Workflows))
			return nil
		},
	}
}
