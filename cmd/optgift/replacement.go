package main

import (
	"github.com/spf13/cobra"

	"github.com/Jegankumard/OptGiftAI/core"
)

func newReplacementCmd(configPath *string) *cobra.Command {
	var exclude []int64

	cmd := &cobra.Command{
		Use:     "replacement",
		Short:   "Pick a replacement product not already shown",
		Example: `  optgift replacement --exclude 3,7,12`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			p, ok := a.catalog.Replacement(exclude)
			if !ok {
				return core.NewDomainError(core.ModuleCatalog, core.ErrorCodeNotFound, "no more items")
			}
			return writeJSON(cmd.OutOrStdout(), p)
		},
	}
	cmd.Flags().Int64SliceVar(&exclude, "exclude", nil, "Product ids already shown")
	return cmd
}
