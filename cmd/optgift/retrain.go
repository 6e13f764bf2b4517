package main

import (
	"github.com/spf13/cobra"
)

func newRetrainCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "retrain",
		Short: "Retrain the quality model from purchases",
		Long: `Relabels every product as purchased / not purchased from the interaction
log and refits the quality classifier. The refit is skipped when all products
fall into one class.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			r, err := a.recommender(cmd.Context())
			if err != nil {
				return err
			}
			trained, err := r.Retrain(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"trained": trained,
				"version": r.Quality().Version(),
			})
		},
	}
}
