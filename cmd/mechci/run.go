package main

import (
	"fmt"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"mechci/internal/config"
	"mechci/internal/core"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <pipeline.yaml> [workflow]",
		Short: "Execute a workflow from a pipeline definition",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}

			workflow, err := pickWorkflow(cfg, args)
			if err != nil {
				return err
			}

			dataDir, _ := cmd.Flags().GetString("data-dir")
			runner := core.NewRunner(dataDir)
			if runner.Store != nil {
				defer runner.Store.Close()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runner.RunWorkflow(ctx, cfg, workflow)
		},
	}
}

// pickWorkflow uses the second argument, or the only workflow when the
// config defines exactly one.
func pickWorkflow(cfg *config.Config, args []string) (string, error) {
	if len(args) == 2 {
		return args[1], nil
	}
	if len(cfg.Workflows) == 1 {
		for name := range cfg.Workflows {
			return name, nil
		}
	}
	names := make([]string, 0, len(cfg.Workflows))
	for name := range cfg.Workflows {
		names = append(names, name)
	}
	sort.Strings(names)
	return "", fmt.Errorf("config defines %d workflows, pick one of %v", len(names), names)
}
