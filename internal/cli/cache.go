package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/coloriage/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the quantization cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var redisAddr string
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached quantizations and results",
		RunE: func(cmd *cobra.Command, args []string) error {
			if redisAddr != "" {
				return c.clearRedis(cmd.Context(), redisAddr)
			}

			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo(c.Out, "Cache is empty")
				return nil
			}

			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return err
			}
			if err := fc.Clear(); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			printSuccess(c.Out, "Cache cleared")
			printDetail(c.Out, "Directory: %s", dir)
			return nil
		},
	}
	cmd.Flags().StringVar(&redisAddr, "redis", "", "clear the Redis cache at host:port instead")
	return cmd
}

func (c *CLI) clearRedis(ctx context.Context, addr string) error {
	rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{Addr: addr, Prefix: appName + ":"})
	if err != nil {
		return err
	}
	defer rc.Close()
	n, err := rc.Clear(ctx)
	if err != nil {
		return fmt.Errorf("clear redis: %w", err)
	}
	printSuccess(c.Out, "Cleared %d cached entries", n)
	printDetail(c.Out, "Redis: %s", addr)
	return nil
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(c.Out, dir)
			return nil
		},
	}
}
