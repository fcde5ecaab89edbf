// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/lipgloss"

	"github.com/moldrun/mold/internal/config"
	"github.com/moldrun/mold/internal/dag"
	"github.com/moldrun/mold/internal/issue"
	"github.com/moldrun/mold/internal/mold"
	"github.com/moldrun/mold/internal/runtime"
	"github.com/moldrun/mold/internal/vars"
	"github.com/moldrun/mold/pkg/cueutil"
	"github.com/moldrun/mold/pkg/moldfile"
	"github.com/moldrun/mold/pkg/moldmod"
)

// ExitError makes mold exit with the code of a failed recipe. Err is the
// recipe failure; fang prints it before exiting.
type ExitError struct {
	Code runtime.ExitCode
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// classifyError maps a failure to the issue catalog entry that explains it.
// It returns 0 when no entry applies.
func classifyError(err error) issue.Id {
	if guide := issue.Guidance(err); guide != nil {
		return guide.Id()
	}

	var spawnErr *runtime.SpawnError
	switch {
	case errors.Is(err, moldfile.ErrMoldfileNotFound):
		return issue.MoldfileNotFoundId
	case errors.Is(err, moldfile.ErrInvalidMoldfile), errors.Is(err, cueutil.ErrSchema):
		return issue.MoldfileParseErrorId
	case errors.Is(err, moldfile.ErrVersionMismatch), errors.Is(err, moldfile.ErrInvalidRequirement):
		return issue.VersionMismatchId
	case errors.Is(err, mold.ErrIncludeCycle):
		return issue.IncludeCycleId
	case errors.Is(err, dag.ErrCycle):
		return issue.DependencyCycleId
	case errors.Is(err, mold.ErrModuleNotFound):
		return issue.ModuleNotFoundId
	case errors.Is(err, mold.ErrRecipeNotFound):
		return issue.RecipeNotFoundId
	case errors.Is(err, moldmod.ErrFetch):
		return issue.FetchFailedId
	case errors.Is(err, vars.ErrShellSplit):
		return issue.InvalidCommandLineId
	case errors.Is(err, runtime.ErrRuntimeNotFound), errors.Is(err, config.ErrInvalidConfigRuntimeMode):
		return issue.InvalidRuntimeId
	case errors.As(err, &spawnErr):
		if spawnErr.Reason == runtime.SpawnPermissionDenied {
			return issue.PermissionDeniedId
		}
		return issue.CommandNotFoundId
	case errors.Is(err, runtime.ErrNonZeroExit):
		return issue.RecipeFailedId
	case errors.Is(err, config.ErrInvalidConfig):
		return issue.ConfigLoadFailedId
	default:
		return 0
	}
}

// renderGuidance writes the catalog entry for err, if any, to w.
func renderGuidance(w io.Writer, err error, style string) {
	id := classifyError(err)
	if id == 0 {
		return
	}
	entry := issue.Get(id)
	if entry == nil {
		return
	}

	rendered, renderErr := entry.Render(style)
	if renderErr != nil {
		slog.Warn("failed to render issue catalog entry", "issueID", id, "error", renderErr)
		return
	}
	fmt.Fprint(w, rendered)
}

// glamourStyle returns the glamour style for output on w. Non-terminals
// get the unstyled renderer.
func glamourStyle(scheme config.ColorScheme, w io.Writer) string {
	if !isTerminal(w) {
		return "notty"
	}
	switch scheme {
	case config.ColorSchemeLight:
		return "light"
	case config.ColorSchemeDark:
		return "dark"
	default:
		if lipgloss.HasDarkBackground() {
			return "dark"
		}
		return "light"
	}
}
