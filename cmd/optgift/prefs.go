package main

import (
	"github.com/spf13/cobra"
)

func newPrefsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or update a user's preferences",
	}

	get := &cobra.Command{
		Use:   "get <user>",
		Short: "Show stored preferences and learned weights",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			prefs, err := a.prefs.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			weights, err := a.weights.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"preferences": prefs,
				"rl_weights":  weights,
			})
		},
	}

	var (
		interests []string
		priority  string
		occasion  string
	)
	set := &cobra.Command{
		Use:     "set <user>",
		Short:   "Replace stored preferences",
		Example: `  optgift prefs set u1 --interest photography --interest travel --occasion birthday`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			prefs, err := a.prefs.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("interest") {
				prefs.Interests = interests
			}
			if cmd.Flags().Changed("priority") {
				prefs.Priority = priority
			}
			if cmd.Flags().Changed("occasion") {
				prefs.Occasion = occasion
			}
			if err := a.prefs.Save(cmd.Context(), args[0], prefs); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), prefs)
		},
	}
	set.Flags().StringSliceVar(&interests, "interest", nil, "Interest tags")
	set.Flags().StringVar(&priority, "priority", "", "Priority hint, e.g. price or quality")
	set.Flags().StringVar(&occasion, "occasion", "", "Default occasion")

	cmd.AddCommand(get, set)
	return cmd
}
