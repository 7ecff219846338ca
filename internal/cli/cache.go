package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/placetree/internal/config"
	"github.com/matzehuels/placetree/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage saved tree view state",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePruneCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget every saved tree view",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Cache.Backend == config.CacheNone {
				printInfo("Cache is disabled")
				return nil
			}
			cc, err := c.openCache(cmd.Context())
			if err != nil {
				return err
			}
			defer cc.Close()

			clearer, ok := cc.(cache.Clearer)
			if !ok {
				return fmt.Errorf("clear cache: %T cannot be cleared", cc)
			}
			if err := clearer.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			printSuccess("Cleared saved tree views")
			switch c.cfg.Cache.Backend {
			case config.CacheRedis:
				printDetail("Redis: %s", valueOr(c.cfg.Cache.RedisAddr, c.cfg.Cache.RedisURL))
			default:
				printDetail("Directory: %s", c.cacheDir())
			}
			return nil
		},
	}
}

// cachePruneCommand creates the "cache prune" subcommand.
func (c *CLI) cachePruneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired tree views",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Cache.Backend == config.CacheNone {
				printInfo("Cache is disabled")
				return nil
			}
			cc, err := c.openCache(cmd.Context())
			if err != nil {
				return err
			}
			defer cc.Close()

			pruner, ok := cc.(cache.Pruner)
			if !ok {
				printInfo("The %s backend expires entries itself", c.cfg.Cache.Backend)
				return nil
			}
			n, err := pruner.Prune(cmd.Context())
			if err != nil {
				return err
			}
			printSuccess("Pruned %d expired entries", n)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the view state directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(c.Out, c.cacheDir())
			return nil
		},
	}
}
