package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/krun-dev/krun/internal/cache"
	"github.com/krun-dev/krun/internal/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the build cache",
}

var cacheClearCmd = &cobra.Command{
	Use:          "clear",
	Short:        "Delete all cached artifacts, scriptlets and metadata",
	RunE:         runCacheClear,
	SilenceUsage: true,
}

var cacheStatsCmd = &cobra.Command{
	Use:          "stats",
	Short:        "Show cache entry count and artifact size",
	RunE:         runCacheStats,
	SilenceUsage: true,
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
}

func openStore(cmd *cobra.Command) (*cache.Store, *config.Config, error) {
	cfg, err := config.NewLoader().LoadForRun(cmd, nil)
	if err != nil {
		return nil, nil, err
	}

	store, err := cache.New(cfg.CacheDir)
	if err != nil {
		return nil, nil, err
	}

	return store, cfg, nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	store, _, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Clear(); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared")

	return nil
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	store, cfg, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	count, size, err := store.Stats()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Builds: %d\nArtifact size: %d bytes\n", count, size)

	if cfg.Verbose {
		records, err := store.Journal().Builds()
		if err != nil {
			return err
		}

		for _, rec := range records {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s -> %s (%s, %dms)\n",
				rec.Digest, rec.Script, rec.Artifact, rec.EntryClass, rec.DurationMillis)
		}
	}

	return nil
}
