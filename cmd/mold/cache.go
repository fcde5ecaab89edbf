// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/moldrun/mold/internal/mold"
	"github.com/moldrun/mold/pkg/moldmod"
)

// newCacheCommand creates the `mold cache` command tree, which inspects the
// state directory of the discovered moldfile without opening it.
func newCacheCommand(app *App, opts *rootOptions) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the state directory",
		Long: `Inspect the state directory.

The state directory (.mold next to the root moldfile unless cache_dir is
configured) holds one checkout per remote and the inline scripts of shell
recipes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the fetched remotes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := app.stateCache(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return listCache(app, cache)
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clean",
		Short: "Delete the state directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := app.stateCache(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if err := cache.Clean(); err != nil {
				return err
			}
			fmt.Fprintf(app.stdout, "%s Removed %s\n", SuccessStyle.Render("✓"), cache.Dir())
			return nil
		},
	})

	return cacheCmd
}

// stateCache returns the cache of the discovered moldfile. It never fetches.
func (app *App) stateCache(ctx context.Context, opts *rootOptions) (*moldmod.Cache, error) {
	cfg, err := app.Config.Load(ctx, app.loadOptions(opts))
	if err != nil {
		return nil, err
	}
	file, err := app.locate(opts.file, cfg.DefaultFile)
	if err != nil {
		return nil, err
	}
	return moldmod.NewCache(mold.StateDirFor(file, cfg.CacheDir), nil), nil
}

func listCache(app *App, cache *moldmod.Cache) error {
	entries, err := cache.Remotes()
	if err != nil {
		return err
	}

	p := newPalette(app.stdout)
	fmt.Fprintf(app.stdout, "%s %s\n", p.title.Render("Remotes in"), cache.Dir())
	if len(entries) == 0 {
		fmt.Fprintf(app.stdout, "  %s\n", p.muted.Render("(none fetched)"))
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(app.stdout, "  %s\n", p.key.Render(e.Remote().String()))
		fmt.Fprintf(app.stdout, "    folder:  %s\n", e.Folder)
		fmt.Fprintf(app.stdout, "    fetched: %s\n", e.FetchedAt.Format(time.RFC3339))
		if !e.UpdatedAt.IsZero() {
			fmt.Fprintf(app.stdout, "    updated: %s\n", e.UpdatedAt.Format(time.RFC3339))
		}
	}
	return nil
}
