// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"os"
	"os/exec"
)

// NativeRuntime executes a task's argv directly as a child process.
type NativeRuntime struct {
	// Environ returns the host environment. Nil means os.Environ.
	Environ func() []string
}

// NewNativeRuntime creates a new native runtime.
func NewNativeRuntime() *NativeRuntime {
	return &NativeRuntime{}
}

// Name returns the runtime name.
func (r *NativeRuntime) Name() string {
	return string(RuntimeTypeNative)
}

// Execute starts the task and waits for it to finish.
func (r *NativeRuntime) Execute(ctx *ExecutionContext) *Result {
	if err := validate(ctx); err != nil {
		return Failed(err)
	}

	cmd := exec.CommandContext(contextOf(ctx), ctx.Args[0], ctx.Args[1:]...)
	cmd.Dir = ctx.WorkDir
	cmd.Env = Environ(r.hostEnv(), ctx.Vars)
	cmd.Stdin = ctx.IO.Stdin
	cmd.Stdout = ctx.IO.Stdout
	cmd.Stderr = ctx.IO.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Exited(ClampExitCode(exitErr.ExitCode()))
		}
		return Failed(newSpawnError(ctx.Name, ctx.Args[0], err))
	}
	return Exited(0)
}

func (r *NativeRuntime) hostEnv() []string {
	if r.Environ != nil {
		return r.Environ()
	}
	return os.Environ()
}
