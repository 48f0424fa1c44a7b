package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"wheelhouse/internal/bootstrap"
	"wheelhouse/internal/config"
	"wheelhouse/internal/wheelcache"
)

var errCacheDisabled = errors.New("no wheel cache configured (set paths.cache_dir)")

type cacheEntryView struct {
	Filename string `json:"filename"`
	Name     string `json:"name"`
	Version  string `json:"version"`
	Platform string `json:"platform"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
}

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the wheel cache",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCachePathCommand(ctx))
	cacheCmd.AddCommand(newCacheAddCommand(ctx))

	return cacheCmd
}

func openCache(ctx *commandContext) (*wheelcache.Cache, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.CacheEnabled() {
		return nil, errCacheDisabled
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return nil, err
	}
	return bootstrap.OpenCache(cfg, logger)
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached wheels",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCache(ctx)
			if err != nil {
				return err
			}
			entries, err := cache.List()
			if err != nil {
				return err
			}

			const stampLayout = "2006-01-02 15:04"
			views := make([]cacheEntryView, 0, len(entries))
			var total int64
			for _, entry := range entries {
				total += entry.Size
				views = append(views, cacheEntryView{
					Filename: entry.Name(),
					Name:     entry.Wheel.CanonicalName(),
					Version:  entry.Wheel.Version,
					Platform: entry.Wheel.Platform,
					Size:     entry.Size,
					Modified: entry.ModTime.Local().Format(stampLayout),
				})
			}
			if jsonOutput {
				return writeJSON(cmd, views)
			}

			out := cmd.OutOrStdout()
			if len(views) == 0 {
				fmt.Fprintf(out, "No wheels cached in %s\n", cache.Dir())
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, view := range views {
				rows = append(rows, []string{view.Name, view.Version, view.Platform, humanize.Bytes(uint64(view.Size)), view.Modified})
			}
			fmt.Fprintln(out, renderTable([]string{"Name", "Version", "Platform", "Size", "Modified"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft}))
			fmt.Fprintf(out, "%d wheels, %s in %s\n", len(views), humanize.Bytes(uint64(total)), cache.Dir())
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newCachePathCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the wheel cache directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.CacheEnabled() {
				return errCacheDisabled
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg.Paths.CacheDir)
			return nil
		},
	}
}

func newCacheAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <wheel>...",
		Short: "Copy wheel files into the cache",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCache(ctx)
			if err != nil {
				return err
			}
			unlock, err := cache.Lock()
			if err != nil {
				return err
			}
			defer unlock()

			out := cmd.OutOrStdout()
			for _, arg := range args {
				src, err := config.ExpandPath(strings.TrimSpace(arg))
				if err != nil {
					return err
				}
				entry, err := cache.Add(src)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Cached %s (%s)\n", entry.Name(), humanize.Bytes(uint64(entry.Size)))
			}
			return nil
		},
	}
}
