// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/moldrun/mold/internal/app/execute"
	"github.com/moldrun/mold/internal/mold"
	"github.com/moldrun/mold/internal/runtime"
	"github.com/moldrun/mold/pkg/moldmod"
)

var (
	// Version is the semantic version (set via -ldflags). It is checked
	// against the version requirement of every moldfile.
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootOptions holds the flags of one command tree.
type rootOptions struct {
	file       string
	configFile string
	envs       []string
	runtime    string
	update     bool
	clean      bool
	explain    bool
	shVars     bool
	git        bool
	dry        bool
	verbose    bool
	quiet      bool
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// newRootCommand builds the mold command tree around app.
func newRootCommand(app *App) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "mold [flags] [recipe...]",
		Short: "A fresh task runner",
		Long: TitleStyle.Render("mold") + SubtitleStyle.Render(" - a fresh task runner") + `

mold runs the recipes declared in a moldfile (mold.cue, mold.yaml,
mold.yml or moldfile), found in the current directory or one of its
parents. Recipes run a command, a shell snippet or an inline script;
module recipes expose the recipes of a moldfile in a git repository.

` + SubtitleStyle.Render("Examples:") + `
  mold                      List the recipes
  mold build                Run 'build' after its requirements
  mold -e prod deploy       Run 'deploy' with the prod environment active
  mold tools/lint           Run 'lint' from the 'tools' module
  mold --explain build      Show how 'build' resolves
  eval "$(mold --sh-vars)"  Export the moldfile variables into a shell`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, app, opts, args)
		},
		ValidArgsFunction: func(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return completeRecipes(cmd, app, opts)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.file, "file", "f", "", "moldfile to use (default: discovered from the current directory)")
	pf.StringVar(&opts.configFile, "config", "", "config file (default is $XDG_CONFIG_HOME/mold/config.cue)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVarP(&opts.quiet, "quiet", "q", false, "don't print the commands before running them")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	f := rootCmd.Flags()
	f.StringSliceVarP(&opts.envs, "env", "e", nil, "activate an environment (repeatable, comma-separated)")
	f.StringVar(&opts.runtime, "runtime", "", "runtime to run tasks with: native or virtual (default from config)")
	f.BoolVarP(&opts.update, "update", "u", false, "fetch and check out every remote before running")
	f.BoolVar(&opts.clean, "clean", false, "delete the state directory before running")
	f.BoolVar(&opts.explain, "explain", false, "describe the given recipes instead of running them")
	f.BoolVar(&opts.shVars, "sh-vars", false, "print the moldfile variables as shell export statements")
	f.BoolVar(&opts.git, "git", false, "fetch remotes with the git binary instead of the built-in client")
	f.BoolVar(&opts.dry, "dry", false, "print the tasks without running them")
	rootCmd.MarkFlagsMutuallyExclusive("explain", "sh-vars", "dry")

	rootCmd.AddCommand(newConfigCommand(app, opts))
	rootCmd.AddCommand(newCacheCommand(app, opts))

	return rootCmd
}

// Execute runs the mold command line and exits the process.
func Execute() {
	app := NewApp(Dependencies{})
	err := fang.Execute(
		context.Background(),
		newRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
	os.Exit(app.exitCode(err))
}

func runRoot(cmd *cobra.Command, app *App, opts *rootOptions, targets []string) error {
	ctx := cmd.Context()
	s, err := app.newSession(ctx, opts, cmd.Flags().Changed)
	if err != nil {
		return err
	}

	if opts.explain && len(targets) == 0 {
		return errors.New("--explain needs at least one recipe")
	}

	if opts.clean {
		cache := moldmod.NewCache(mold.StateDirFor(s.file, s.cfg.CacheDir), nil)
		if err := cache.Clean(); err != nil {
			return err
		}
		app.status(s, "removed %s", cache.Dir())
		if len(targets) == 0 && !opts.update {
			return nil
		}
	}

	m, err := app.open(ctx, s)
	if err != nil {
		return err
	}

	if opts.update {
		if err := m.UpdateAll(ctx); err != nil {
			return err
		}
		app.status(s, "updated %d remote(s)", len(m.Remotes()))
		if len(targets) == 0 {
			return nil
		}
		// Reopen so the namespace reflects the checked-out refs.
		if m, err = app.open(ctx, s); err != nil {
			return err
		}
	}

	switch {
	case opts.shVars:
		for _, line := range m.ShVars() {
			fmt.Fprintln(app.stdout, line)
		}
		return nil
	case opts.explain:
		return app.explain(ctx, m, targets)
	case len(targets) == 0:
		app.printer(s, false).Listing("recipes", m.Recipes())
		return nil
	}

	tasks, err := m.Resolve(ctx, targets)
	if err != nil {
		return err
	}
	rt, err := execute.ResolveRuntime(app.Runtimes, s.runtime)
	if err != nil {
		return err
	}

	orch := &execute.Orchestrator{
		Runtime: rt,
		Printer: app.printer(s, opts.dry),
		DryRun:  opts.dry,
		IO:      runtime.IOContext{Stdin: app.stdin, Stdout: app.stdout, Stderr: app.stderr},
	}
	if err := orch.Run(ctx, tasks); err != nil {
		var exitErr *runtime.NonZeroExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Code: exitErr.Code, Err: err}
		}
		return err
	}
	return nil
}

// status prints a progress line on stderr unless the session is quiet.
func (app *App) status(s *session, format string, args ...any) {
	if s.quiet {
		return
	}
	fmt.Fprintf(app.stderr, "%s %s\n", SuccessStyle.Render("✓"), fmt.Sprintf(format, args...))
}

// completeRecipes offers the recipe names of the discovered moldfile.
func completeRecipes(cmd *cobra.Command, app *App, opts *rootOptions) ([]string, cobra.ShellCompDirective) {
	s, err := app.newSession(cmd.Context(), opts, cmd.Flags().Changed)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	m, err := app.open(cmd.Context(), s)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var names []string
	for _, r := range m.Recipes() {
		names = append(names, r.Name+"\t"+r.Help)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

var _ execute.Printer = (*stylePrinter)(nil)
