// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kballard/go-shellquote"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// VirtualRuntime executes a task's argv through an embedded POSIX shell
// interpreter. Programs are still started from PATH; the interpreter
// provides the process setup, so no system shell is required for command
// recipes.
type VirtualRuntime struct {
	// Environ returns the host environment. Nil means os.Environ.
	Environ func() []string
}

// NewVirtualRuntime creates a new virtual runtime.
func NewVirtualRuntime() *VirtualRuntime {
	return &VirtualRuntime{}
}

// Name returns the runtime name.
func (r *VirtualRuntime) Name() string {
	return string(RuntimeTypeVirtual)
}

// Execute runs the task in a fresh interpreter.
func (r *VirtualRuntime) Execute(ctx *ExecutionContext) *Result {
	if err := validate(ctx); err != nil {
		return Failed(err)
	}

	// Quoting the argv keeps every word literal inside the interpreter.
	script := shellquote.Join(ctx.Args...)
	prog, err := syntax.NewParser().Parse(strings.NewReader(script), ctx.Name)
	if err != nil {
		return Failed(fmt.Errorf("failed to parse command of %s: %w", ctx.Name, err))
	}

	host := os.Environ()
	if r.Environ != nil {
		host = r.Environ()
	}

	runner, err := interp.New(
		interp.Dir(ctx.WorkDir),
		interp.Env(expand.ListEnviron(Environ(host, ctx.Vars)...)),
		interp.StdIO(ctx.IO.Stdin, ctx.IO.Stdout, ctx.IO.Stderr),
		interp.ExecHandlers(r.execHandler(ctx.Name)),
	)
	if err != nil {
		return Failed(fmt.Errorf("failed to create interpreter: %w", err))
	}

	err = runner.Run(contextOf(ctx), prog)
	if err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return Exited(ExitCode(exitStatus))
		}
		var spawnErr *SpawnError
		if errors.As(err, &spawnErr) {
			return Failed(spawnErr)
		}
		return Failed(fmt.Errorf("recipe %s: %w", ctx.Name, err))
	}
	return Exited(0)
}

// execHandler reports programs missing from PATH as a SpawnError instead of
// the interpreter's exit status 127, matching the native runtime.
func (r *VirtualRuntime) execHandler(recipe string) func(interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
		return func(ctx context.Context, args []string) error {
			hc := interp.HandlerCtx(ctx)
			if _, err := interp.LookPathDir(hc.Dir, hc.Env, args[0]); err != nil {
				return lookupError(recipe, args[0], err)
			}
			return next(ctx, args)
		}
	}
}

// lookupError classifies a lookup failure from the interpreter, whose
// errors do not wrap the os/exec or io/fs sentinels.
func lookupError(recipe, program string, err error) *SpawnError {
	reason := SpawnNotFound
	if strings.Contains(err.Error(), "permission denied") {
		reason = SpawnPermissionDenied
	}
	return &SpawnError{Recipe: recipe, Program: program, Reason: reason, Err: err}
}
