// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
)

const (
	// SpawnNotFound means the program does not exist or is not on PATH.
	SpawnNotFound SpawnReason = "not found"
	// SpawnPermissionDenied means the program exists but cannot be executed.
	SpawnPermissionDenied SpawnReason = "permission denied"
	// SpawnOther covers every other start failure.
	SpawnOther SpawnReason = "other"
)

var (
	// ErrSpawn is the sentinel error wrapped by SpawnError.
	ErrSpawn = errors.New("failed to start command")

	// ErrNonZeroExit is the sentinel error wrapped by NonZeroExitError.
	ErrNonZeroExit = errors.New("command exited with non-zero status")

	// ErrRuntimeNotFound is the sentinel error wrapped by RuntimeNotFoundError.
	ErrRuntimeNotFound = errors.New("runtime not found")
)

type (
	// SpawnReason classifies why a process could not be started.
	SpawnReason string

	// SpawnError is returned when a task's program could not be started.
	SpawnError struct {
		Recipe  string
		Program string
		Reason  SpawnReason
		Err     error
	}

	// NonZeroExitError is returned when a task's process exits unsuccessfully.
	NonZeroExitError struct {
		Recipe string
		Code   ExitCode
	}

	// RuntimeNotFoundError is returned when a runtime name is not registered.
	RuntimeNotFoundError struct {
		Name      RuntimeType
		Available []RuntimeType
	}
)

// Error implements the error interface.
func (e *SpawnError) Error() string {
	switch e.Reason {
	case SpawnNotFound:
		return fmt.Sprintf("recipe %s: command not found: %s", e.Recipe, e.Program)
	case SpawnPermissionDenied:
		return fmt.Sprintf("recipe %s: permission denied: %s", e.Recipe, e.Program)
	default:
		return fmt.Sprintf("recipe %s: failed to start %s: %v", e.Recipe, e.Program, e.Err)
	}
}

// Unwrap returns ErrSpawn and the underlying error.
func (e *SpawnError) Unwrap() []error { return []error{ErrSpawn, e.Err} }

// Error implements the error interface.
func (e *NonZeroExitError) Error() string {
	return fmt.Sprintf("recipe %s failed with exit code %d", e.Recipe, e.Code)
}

// Unwrap returns ErrNonZeroExit so callers can use errors.Is for programmatic detection.
func (e *NonZeroExitError) Unwrap() error { return ErrNonZeroExit }

// Error implements the error interface.
func (e *RuntimeNotFoundError) Error() string {
	names := make([]string, len(e.Available))
	for i, n := range e.Available {
		names[i] = string(n)
	}
	return fmt.Sprintf("runtime %q not registered (available: %s)", e.Name, strings.Join(names, ", "))
}

// Unwrap returns ErrRuntimeNotFound so callers can use errors.Is for programmatic detection.
func (e *RuntimeNotFoundError) Unwrap() error { return ErrRuntimeNotFound }

// newSpawnError classifies a start failure returned by os/exec.
func newSpawnError(recipe, program string, err error) *SpawnError {
	reason := SpawnOther
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		reason = SpawnNotFound
	case errors.Is(err, fs.ErrPermission):
		reason = SpawnPermissionDenied
	}
	return &SpawnError{Recipe: recipe, Program: program, Reason: reason, Err: err}
}
