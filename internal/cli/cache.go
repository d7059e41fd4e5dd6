package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zarrlens/zarrlens/pkg/cache"
	"github.com/zarrlens/zarrlens/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the metadata and thumbnail cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())
	cmd.AddCommand(c.cacheStatsCommand())

	return cmd
}

// fileCache opens the file cache, or reports why there is none.
func (c *CLI) fileCache(cmd *cobra.Command) (*cache.FileCache, bool, error) {
	if c.cfg.Cache.Backend != config.BackendFile {
		newPrinter(cmd.OutOrStdout()).info("Cache backend is %q, nothing stored locally", c.cfg.Cache.Backend)
		return nil, false, nil
	}
	dir, err := c.cfg.CacheDir()
	if err != nil {
		return nil, false, fmt.Errorf("get cache dir: %w", err)
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		newPrinter(cmd.OutOrStdout()).info("Cache is empty")
		return nil, false, nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, false, err
	}
	return fc, true, nil
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached metadata documents and thumbnails",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, ok, err := c.fileCache(cmd)
			if !ok {
				return err
			}
			count, _, err := fc.Stats()
			if err != nil {
				return err
			}
			if err := fc.Clear(); err != nil {
				return err
			}

			p := newPrinter(cmd.OutOrStdout())
			p.success("Cleared %d cached entries", count)
			p.detail("Directory: %s", fc.Dir())
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.cfg.CacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

// cacheStatsCommand creates the "cache stats" subcommand.
func (c *CLI) cacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the number and total size of cached entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, ok, err := c.fileCache(cmd)
			if !ok {
				return err
			}
			count, size, err := fc.Stats()
			if err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout())
			p.keyValue("Entries", fmt.Sprint(count))
			p.keyValue("Size", formatBytes(size))
			p.keyValue("Directory", fc.Dir())
			return nil
		},
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
