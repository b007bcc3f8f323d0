package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "ephemeral",
	Short: "Let memories decay and keep only their traces",
	Long: "Ephemeral takes a piece of text, an image or a sound and lets it decay " +
		"through one of six forgetting algorithms. Only a trace survives in the archive.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $EPHEMERAL_CONFIG or ~/.config/ephemeral/config.toml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(forgetCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(algorithmsCmd)
}
