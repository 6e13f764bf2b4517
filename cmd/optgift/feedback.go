package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Jegankumard/OptGiftAI/core"
	"github.com/Jegankumard/OptGiftAI/feedback"
)

func newFeedbackCmd(configPath *string) *cobra.Command {
	var rating int

	cmd := &cobra.Command{
		Use:   "feedback <user> <product-id> <action>",
		Short: "Record like / dislike / purchase feedback",
		Long: `Updates the user's weights (relevance, novelty, price) and appends the
interaction to the log. Unknown actions are logged without changing weights.`,
		Example: `  optgift feedback u1 42 like
  optgift feedback u1 42 purchase --rating 5`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid product id %q: %w", args[1], err)
			}
			a, err := loadApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			ev := feedback.Event{UserID: args[0], ProductID: productID, Action: core.ParseAction(args[2])}
			if cmd.Flags().Changed("rating") {
				ev.Rating = &rating
			}
			weights, err := a.feedback().Submit(cmd.Context(), ev)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"status":     "success",
				"rl_weights": weights,
			})
		},
	}
	cmd.Flags().IntVar(&rating, "rating", 0, "Optional rating stored with the interaction")
	return cmd
}
