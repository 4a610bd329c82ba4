package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/rulemaker/pkg/cache"
	"github.com/matzehuels/rulemaker/pkg/editor"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the layout cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var (
		state    bool
		stateDir string
		maxAge   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop every cached layout and rendering",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openCache(ctx, false)
			if err != nil {
				return err
			}
			defer store.Close()

			clearer, ok := store.(cache.Clearer)
			if !ok {
				printInfo("Cache backend %q holds nothing to clear", c.cfg.Cache.Backend)
			} else if err := clearer.Clear(ctx); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			} else {
				printSuccess("Cleared %s cache", c.cfg.Cache.Backend)
			}

			if !state {
				return nil
			}
			states, err := editor.NewStateStore(stateDir)
			if err != nil {
				return err
			}
			n, err := states.Cleanup(ctx, maxAge)
			if err != nil {
				return err
			}
			printSuccess("Removed %d stale editor states", n)
			printDetail("Directory: %s", states.Path())
			return nil
		},
	}

	cmd.Flags().BoolVar(&state, "state", false, "also remove stale editor state")
	cmd.Flags().StringVar(&stateDir, "state-dir", "", "editor state directory (default: $XDG_CONFIG_HOME/rulemaker/state)")
	cmd.Flags().DurationVar(&maxAge, "max-age", 30*24*time.Hour, "editor state older than this is stale")

	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the cache lives",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch c.cfg.Cache.Backend {
			case cache.BackendRedis:
				prefix := c.cfg.Cache.Prefix
				if prefix == "" {
					prefix = cache.DefaultRedisPrefix
				}
				fmt.Fprintf(output, "redis://%s/%d %s*\n", c.cfg.Cache.RedisAddr, c.cfg.Cache.RedisDB, prefix)
			case cache.BackendNone:
				fmt.Fprintln(output, "caching disabled")
			default:
				dir := c.cfg.Cache.Dir
				if dir == "" {
					d, err := cache.DefaultDir()
					if err != nil {
						return fmt.Errorf("get cache dir: %w", err)
					}
					dir = d
				}
				fmt.Fprintln(output, dir)
			}
			return nil
		},
	}
}
