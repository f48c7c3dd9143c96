package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"mechci/internal/storage"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			dataDir, _ := cmd.Flags().GetString("data-dir")

			store, err := storage.Open(filepath.Join(dataDir, "history.db"))
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs recorded")
				return nil
			}

			for _, r := range runs {
				fmt.Printf("%s  %-8s  %s/%s  started %s\n",
					r.ID, r.Status, r.Workflow, r.Job,
					r.StartedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum runs to list")
	return cmd
}
