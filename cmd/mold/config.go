// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/moldrun/mold/internal/config"
)

// newConfigCommand creates the `mold config` command tree.
func newConfigCommand(app *App, opts *rootOptions) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage mold configuration",
		Long: `Manage mold configuration.

Configuration is stored in:
  - Linux: ~/.config/mold/config.cue
  - macOS: ~/Library/Application Support/mold/config.cue
  - Windows: %APPDATA%\mold\config.cue

Every key can be overridden with a MOLD_ environment variable, e.g.
MOLD_RUNTIME=virtual or MOLD_UI_QUIET=true.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd, app, opts)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app, opts)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(app, opts)
		},
	})

	var format string
	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config.Load(cmd.Context(), app.loadOptions(opts))
			if err != nil {
				return err
			}
			switch format {
			case "cue":
				fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			case "json":
				data, err := config.GenerateJSON(cfg)
				if err != nil {
					return err
				}
				fmt.Fprint(app.stdout, string(data))
			default:
				return fmt.Errorf("unknown format %q (valid: cue, json)", format)
			}
			return nil
		},
	}
	dumpCmd.Flags().StringVar(&format, "format", "cue", "output format: cue or json")
	cfgCmd.AddCommand(dumpCmd)

	return cfgCmd
}

func showConfig(cmd *cobra.Command, app *App, opts *rootOptions) error {
	ctx := cmd.Context()
	cfg, err := app.Config.Load(ctx, app.loadOptions(opts))
	if err != nil {
		return err
	}
	path, err := app.Config.Path(ctx, app.loadOptions(opts))
	if err != nil {
		return err
	}

	p := newPalette(app.stdout)
	w := app.stdout
	value := func(key string, v any) {
		fmt.Fprintf(w, "%s: %s\n", p.key.Render(key), p.success.Render(fmt.Sprint(v)))
	}

	fmt.Fprintln(w, p.title.Render("Current Configuration"))
	fmt.Fprintln(w)
	if path != "" {
		fmt.Fprintf(w, "%s: %s\n", p.key.Render("Config file"), path)
	} else {
		fmt.Fprintf(w, "%s: %s\n", p.key.Render("Config file"), p.muted.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	value("cache_dir", orDefault(cfg.CacheDir, ".mold next to the moldfile"))
	value("default_file", orDefault(cfg.DefaultFile, "(none)"))
	value("runtime", orDefault(string(cfg.Runtime), string(config.RuntimeNative)))
	value("use_git", cfg.UseGit)
	value("environments", orDefault(strings.Join(cfg.Environments, ", "), "(none)"))
	value("strict_expressions", cfg.StrictExpressions)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", p.key.Render("ui"))
	fmt.Fprintf(w, "  color_scheme: %s\n", p.success.Render(string(cfg.UI.ColorScheme)))
	fmt.Fprintf(w, "  verbose: %s\n", p.success.Render(fmt.Sprint(cfg.UI.Verbose)))
	fmt.Fprintf(w, "  quiet: %s\n", p.success.Render(fmt.Sprint(cfg.UI.Quiet)))
	return nil
}

func showConfigPath(app *App, opts *rootOptions) error {
	if opts.configFile != "" {
		fmt.Fprintf(app.stdout, "Config file: %s\n", opts.configFile)
		return nil
	}
	path, err := config.DefaultPath(app.ConfigDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "Config file: %s\n", path)
	return nil
}

func initConfig(app *App, opts *rootOptions) error {
	path := opts.configFile
	if path == "" {
		var err error
		if path, err = config.DefaultPath(app.ConfigDir); err != nil {
			return err
		}
	}

	wrote, err := config.CreateDefaultConfig(path)
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	if !wrote {
		fmt.Fprintf(app.stdout, "Configuration already exists at %s\n", path)
		return nil
	}
	fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
