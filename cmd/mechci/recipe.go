package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mechci/internal/recipe"
)

func recipeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recipe <meta.yaml>",
		Short: "Lint a package recipe file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := recipe.Load(args[0])
			if err != nil {
				return err
			}
			if err := r.Validate(); err != nil {
				return err
			}
			fmt.Printf("%s %s: %d run requirements against %d channels, ok\n",
				r.Package.Name, r.Package.Version, len(r.Requirements.Run), len(r.Channels))
			return nil
		},
	}
}
