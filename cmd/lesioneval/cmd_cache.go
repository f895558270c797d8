package main

import (
	"fmt"
	"path/filepath"

	"github.com/spboyer/lesioneval/internal/cache"
	"github.com/spf13/cobra"
)

var cacheDir string

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the report cache",
		Long: `Inspect or clear the report cache.

Cached reports are keyed by the resolved configuration, the selected
estimators, the bootstrap seed and the contents of every input table, so a
run over unchanged inputs is served from disk.`,
	}
	cmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "Cache directory (default: cache.dir from the config)")

	cmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Show the cache directory and how many reports it holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := openCache()
			if err != nil {
				return err
			}
			n, err := c.Entries()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d cached reports\n", c.Dir(), n)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached report",
		Long: `Remove every cached report. The next run re-evaluates all estimators.

The directory is only removed when it holds nothing but cache entries.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := openCache()
			if err != nil {
				return err
			}
			n, err := c.Entries()
			if err != nil {
				return err
			}
			if err := c.Clear(); err != nil {
				return fmt.Errorf("clearing cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared: %s (%d reports)\n", c.Dir(), n)
			return nil
		},
	})

	return cmd
}

// openCache resolves --cache-dir, or cache.dir of the config, to an
// absolute directory.
func openCache() (*cache.Cache, error) {
	dir := cacheDir
	if dir == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		dir = cfg.Resolve(cfg.Cache.Dir)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving cache directory: %w", err)
	}
	return cache.New(abs), nil
}
