package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/minios-linux/arbkit/cache"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the translation cache",
		Long: `The cache keeps every machine translation keyed by language pair and
source text. It lives in .arbkit/cache.db, or in Redis when cache.redis_url
(or ARBKIT_REDIS_URL) is set.`,
	}
	cmd.AddCommand(newCacheStatsCmd(), newCachePruneCmd(), newCacheClearCmd())
	return cmd
}

// withCache opens the project cache, runs fn and closes the cache.
func withCache(ctx context.Context, fn func(store cache.Store) error) error {
	proj, err := loadProject()
	if err != nil {
		return err
	}
	store, err := cache.Open(ctx, proj.CacheOptions(false))
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the number of cached translations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd.Context(), func(store cache.Store) error {
				st, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "  %-10s %s\n", "Backend:", st.Backend)
				if s, ok := store.(*cache.SQLiteStore); ok {
					fmt.Fprintf(os.Stderr, "  %-10s %s\n", "File:", s.Path())
				}
				fmt.Fprintf(os.Stderr, "  %-10s %d\n", "Entries:", st.Entries)
				return nil
			})
		},
	}
}

func newCachePruneCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove translations not used for a number of days",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 {
				return fmt.Errorf("--days must be at least 1")
			}
			return withCache(cmd.Context(), func(store cache.Store) error {
				n, err := store.Prune(cmd.Context(), time.Duration(days)*24*time.Hour)
				if err != nil {
					return err
				}
				logSuccess("Removed %d entr(ies) unused for %d day(s)", n, days)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "Remove entries unused for this many days")
	return cmd
}

func newCacheClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached translation",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirm(os.Stdin, "Remove every cached translation?") {
				logInfo("Cancelled")
				return nil
			}
			return withCache(cmd.Context(), func(store cache.Store) error {
				if err := store.Clear(cmd.Context()); err != nil {
					return err
				}
				logSuccess("Cache cleared")
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
