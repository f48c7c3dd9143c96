package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mechci/internal/audit"
)

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect and verify the audit ledger",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "inspect <ledger.jsonl>",
		Short: "Print the ledger's records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := audit.OpenLedger(args[0])
			if err != nil {
				return err
			}
			for _, r := range ledger.Records() {
				hash := r.Hash
				if len(hash) > 16 {
					hash = hash[:16]
				}
				fmt.Printf("index=%d workflow=%s job=%s step=%q hash=%s\n",
					r.Index, r.Workflow, r.Job, r.Step, hash)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "verify <ledger.jsonl>",
		Short: "Verify chain links and signatures",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := audit.OpenLedger(args[0])
			if err != nil {
				return err
			}
			if err := ledger.VerifyChain(); err != nil {
				return fmt.Errorf("chain verification failed: %w", err)
			}
			if err := ledger.VerifySignatures(); err != nil {
				return fmt.Errorf("signature verification failed: %w", err)
			}
			fmt.Printf("ledger ok: %d records\n", len(ledger.Records()))
			return nil
		},
	})

	return cmd
}
