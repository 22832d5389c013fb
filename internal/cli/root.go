// Package cli implements the tiled command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/tiles/internal/config"
	"github.com/kailas-cloud/tiles/internal/version"
)

// NewRootCmd returns the tiled root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "tiled",
		Short:   "tiled - tile data server",
		Version: version.String(),
		Long: `tiled serves tiles: independently addressable fragments of a page whose
configuration travels on the query string or lives in durable storage.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("env", config.GetEnv(), "configuration environment (config/<env>.yaml)")

	rootCmd.AddCommand(ServeCmd())
	rootCmd.AddCommand(TypesCmd())
	rootCmd.AddCommand(EncodeCmd())
	rootCmd.AddCommand(DecodeCmd())
	rootCmd.AddCommand(ESICmd())
	rootCmd.AddCommand(StoredCmd())
	rootCmd.AddCommand(ContextsCmd())
	rootCmd.AddCommand(PurgeCmd())
	return rootCmd
}

func envFlag(cmd *cobra.Command) string {
	env, err := cmd.Flags().GetString("env")
	if err != nil || env == "" {
		return config.GetEnv()
	}
	return env
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(envFlag(cmd))
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
