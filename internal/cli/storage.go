package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tiles/internal/domain/tile"
	logpkg "github.com/kailas-cloud/tiles/internal/logger"
)

// withApp loads the configuration, opens the store and runs fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	env := envFlag(cmd)
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

// StoredCmd returns the stored command.
func StoredCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stored [context-path]",
		Short: "List tiles with durable data on a context",
		Long: `List the ids of persistent tiles whose data is stored on a context.
The context defaults to the site root.

Examples:
  tiled stored
  tiled stored /site/news`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				ids, err := a.data.StoredTileIDs(ctx, tile.Context{Path: path})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(ids) == 0 {
					fmt.Fprintln(out, "No stored tiles")
					return nil
				}
				for _, id := range ids {
					fmt.Fprintln(out, id)
				}
				return nil
			})
		},
	}
}

// ContextsCmd returns the contexts command.
func ContextsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "contexts",
		Short: "List contexts carrying tile annotations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				paths, err := a.annotations.Contexts(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, p := range paths {
					keys, err := a.annotations.Keys(ctx, p)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s\t%d\n", color.New(color.FgCyan).Sprint(displayPath(p)), len(keys))
				}
				return nil
			})
		},
	}
}

// PurgeCmd returns the purge command.
func PurgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge CONTEXT-PATH",
		Short: "Delete all tile annotations of a context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				path := tile.Context{Path: args[0]}.NormalizedPath()
				if err := a.annotations.Purge(ctx, path); err != nil {
					return err
				}
				a.logger.Info("purged tile annotations", zap.String("context", path))
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.New(color.FgGreen).Sprint("purged"), displayPath(path))
				return nil
			})
		},
	}
}

func displayPath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
