/*
Package main is the entry point for the optgift CLI.

optgift recommends gifts from a product catalog with three strategies
(content-based, collaborative, hybrid) and learns per-user weights from
feedback.

Usage:

	optgift [command]

Available Commands:

	recommend    Recommend gifts for a query or an occasion
	feedback     Record like / dislike / purchase feedback
	retrain      Retrain the quality model from purchases
	cart         Manage a user's cart
	prefs        Show or update a user's preferences
	replacement  Pick a replacement product
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "optgift",
		Short: "Gift recommendation engine",
		Long: `optgift recommends gifts from a product catalog.

Configuration is read from --config (or OPTGIFT_CONFIG, or ./optgift.yaml)
and may be overridden with OPTGIFT_* environment variables, e.g.
OPTGIFT_ENGINE__FUSION_POLICY=semantic.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the YAML config file")

	rootCmd.AddCommand(newRecommendCmd(&configPath))
	rootCmd.AddCommand(newFeedbackCmd(&configPath))
	rootCmd.AddCommand(newRetrainCmd(&configPath))
	rootCmd.AddCommand(newCartCmd(&configPath))
	rootCmd.AddCommand(newPrefsCmd(&configPath))
	rootCmd.AddCommand(newReplacementCmd(&configPath))
	return rootCmd
}
