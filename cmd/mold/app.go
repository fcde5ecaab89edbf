// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/moldrun/mold/internal/app/execute"
	"github.com/moldrun/mold/internal/config"
	"github.com/moldrun/mold/internal/issue"
	"github.com/moldrun/mold/internal/mold"
	"github.com/moldrun/mold/internal/runtime"
	"github.com/moldrun/mold/internal/vars"
	"github.com/moldrun/mold/pkg/moldfile"
	"github.com/moldrun/mold/pkg/moldmod"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every Cobra handler receives an App and reaches
	// configuration, runtimes and the process streams through it.
	App struct {
		Config   config.Provider
		Runtimes *runtime.Registry
		// Fetcher overrides the git fetcher chosen from --git and use_git.
		Fetcher moldmod.Fetcher
		// Env resolves names that are not mold variables.
		Env vars.EnvProvider
		// ConfigDir overrides the configuration directory.
		ConfigDir string
		// WorkDir is where moldfile discovery starts.
		WorkDir string

		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer

		// Settings of the running invocation, used when rendering its failure.
		colorScheme config.ColorScheme
		verbose     bool
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config    config.Provider
		Runtimes  *runtime.Registry
		Fetcher   moldmod.Fetcher
		Env       vars.EnvProvider
		ConfigDir string
		WorkDir   string
		Stdin     io.Reader
		Stdout    io.Writer
		Stderr    io.Writer
	}

	// session is one invocation's settings: the loaded configuration merged
	// with the command-line flags.
	session struct {
		cfg     *config.Config
		file    string
		envs    []string
		runtime config.RuntimeMode
		useGit  bool
		verbose bool
		quiet   bool
	}
)

// NewApp builds an App, filling unset dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:    deps.Config,
		Runtimes:  deps.Runtimes,
		Fetcher:   deps.Fetcher,
		Env:       deps.Env,
		ConfigDir: deps.ConfigDir,
		WorkDir:   deps.WorkDir,
		stdin:     deps.Stdin,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.Runtimes == nil {
		app.Runtimes = runtime.DefaultRegistry()
	}
	if app.Env == nil {
		app.Env = vars.OSEnv{}
	}
	if app.stdin == nil {
		app.stdin = os.Stdin
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

func (app *App) loadOptions(opts *rootOptions) config.LoadOptions {
	return config.LoadOptions{
		ConfigFilePath: opts.configFile,
		ConfigDirPath:  app.ConfigDir,
	}
}

// newSession loads the configuration and applies the flags that were set
// on the command line over it.
func (app *App) newSession(ctx context.Context, opts *rootOptions, changed func(string) bool) (*session, error) {
	cfg, err := app.Config.Load(ctx, app.loadOptions(opts))
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:     cfg,
		envs:    cfg.Environments,
		runtime: cfg.Runtime,
		useGit:  cfg.UseGit || opts.git,
		verbose: cfg.UI.Verbose,
		quiet:   cfg.UI.Quiet,
	}
	if changed("env") {
		s.envs = opts.envs
	}
	if changed("runtime") {
		mode := config.RuntimeMode(opts.runtime)
		if ok, errs := mode.IsValid(); !ok {
			return nil, errors.Join(errs...)
		}
		s.runtime = mode
	}
	if changed("verbose") {
		s.verbose, s.quiet = opts.verbose, false
	}
	if changed("quiet") {
		s.quiet, s.verbose = opts.quiet, false
	}

	app.colorScheme = cfg.UI.ColorScheme
	app.verbose = s.verbose
	slog.SetDefault(newLogger(app.stderr, s.verbose, s.quiet))

	s.file, err = app.locate(opts.file, cfg.DefaultFile)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// locate returns the moldfile to open: the --file flag, else the first
// moldfile found from the working directory up, else the configured
// default file.
func (app *App) locate(flagFile, defaultFile string) (string, error) {
	wd := app.WorkDir
	if wd == "" {
		var err error
		if wd, err = os.Getwd(); err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
	}

	if flagFile != "" {
		path := flagFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(wd, path)
		}
		if !fileExists(path) {
			return "", moldfileNotFound(&moldfile.NotFoundError{Dir: filepath.Dir(path), Tried: []string{filepath.Base(path)}})
		}
		return path, nil
	}

	path, err := moldfile.Discover(wd, "")
	if err == nil {
		return path, nil
	}
	if errors.Is(err, moldfile.ErrMoldfileNotFound) && defaultFile != "" && fileExists(defaultFile) {
		slog.Debug("no moldfile discovered, using the configured default", "file", defaultFile)
		return filepath.Abs(defaultFile)
	}
	return "", moldfileNotFound(err)
}

func moldfileNotFound(err error) error {
	return issue.NewErrorContext().
		WithOperation("find a moldfile").
		WithSuggestion(
			"Create a mold.yaml in the project root",
			"Pass the moldfile explicitly with --file",
			"Set default_file in the mold configuration",
		).
		Wrap(err).
		Build()
}

// open initializes the namespace of the session's moldfile.
func (app *App) open(ctx context.Context, s *session) (*mold.Mold, error) {
	m, err := mold.Init(ctx, s.file, mold.Options{
		Environments:      s.envs,
		Version:           Version,
		StateDir:          s.cfg.CacheDir,
		Fetcher:           app.fetcher(s),
		Env:               app.Env,
		StrictExpressions: s.cfg.StrictExpressions,
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("opened moldfile", "file", m.RootFile(), "state", m.StateDir(), "environments", s.envs)
	return m, nil
}

func (app *App) fetcher(s *session) moldmod.Fetcher {
	switch {
	case app.Fetcher != nil:
		return app.Fetcher
	case s.useGit:
		return &moldmod.GitCLIFetcher{}
	default:
		return moldmod.NewGoGitFetcher()
	}
}

// printer picks the task printer. Terminals get colors; pipes get plain
// lines that are stable to parse. Dry runs print the tasks to stdout since
// they are the output; quiet runs print no command lines.
func (app *App) printer(s *session, dry bool) execute.Printer {
	out := app.stderr
	switch {
	case dry:
		out = app.stdout
	case s.quiet:
		out = nil
	}
	if isTerminal(app.stdout) {
		return newStylePrinter(out, app.stdout)
	}
	return &execute.PlainPrinter{Out: out, ListOut: app.stdout}
}

// exitCode renders the guidance for err and returns the process exit code.
func (app *App) exitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	isExit := errors.As(err, &exitErr)
	if !isExit || app.verbose {
		fmt.Fprint(app.stderr, issue.Hints(err, app.verbose))
		renderGuidance(app.stderr, err, glamourStyle(app.colorScheme, app.stderr))
	}
	if isExit {
		return int(exitErr.Code)
	}
	return 1
}

// newLogger returns the slog logger used by the library packages, backed
// by a charmbracelet/log handler on w.
func newLogger(w io.Writer, verbose, quiet bool) *slog.Logger {
	level := log.WarnLevel
	switch {
	case verbose:
		level = log.DebugLevel
	case quiet:
		level = log.ErrorLevel
	}
	return slog.New(log.NewWithOptions(w, log.Options{
		Level:  level,
		Prefix: "mold",
	}))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
