// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/moldrun/mold/internal/mold"
	"github.com/moldrun/mold/pkg/moldfile"
)

// Runtime type constants for the supported execution environments.
const (
	RuntimeTypeNative  RuntimeType = "native"
	RuntimeTypeVirtual RuntimeType = "virtual"
)

type (
	// ExecutionContext contains all information needed to execute a task.
	ExecutionContext struct {
		// Context is the Go context for cancellation.
		Context context.Context
		// Name is the recipe name, used in messages.
		Name string
		// Args is the argv to execute.
		Args []string
		// Vars are exported to the child environment.
		Vars *moldfile.VarMap
		// WorkDir is the directory to run in. Empty means the current directory.
		WorkDir string
		// IO holds the standard streams.
		IO IOContext
	}

	// IOContext groups the standard streams of a task.
	IOContext struct {
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// Runtime defines the interface for task execution.
	Runtime interface {
		// Name returns the runtime name.
		Name() string
		// Execute runs a task in this runtime.
		Execute(ctx *ExecutionContext) *Result
	}

	// RuntimeType identifies the type of runtime.
	//
	//nolint:revive // RuntimeType is more descriptive than Type for external callers
	RuntimeType string

	// Registry holds all available runtimes.
	Registry struct {
		runtimes map[RuntimeType]Runtime
	}
)

// NewExecutionContext creates an execution context for task wired to the
// process's standard streams.
func NewExecutionContext(ctx context.Context, task *mold.Task) *ExecutionContext {
	return &ExecutionContext{
		Context: ctx,
		Name:    task.Name,
		Args:    task.Args,
		Vars:    task.Vars,
		WorkDir: task.WorkDir,
		IO: IOContext{
			Stdin:  os.Stdin,
			Stdout: os.Stdout,
			Stderr: os.Stderr,
		},
	}
}

// NewRegistry creates an empty runtime registry.
func NewRegistry() *Registry {
	return &Registry{
		runtimes: make(map[RuntimeType]Runtime),
	}
}

// DefaultRegistry returns a registry with the native and virtual runtimes.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(RuntimeTypeNative, NewNativeRuntime())
	r.Register(RuntimeTypeVirtual, NewVirtualRuntime())
	return r
}

// Register adds a runtime to the registry.
func (r *Registry) Register(typ RuntimeType, rt Runtime) {
	r.runtimes[typ] = rt
}

// Get returns a runtime by type.
func (r *Registry) Get(typ RuntimeType) (Runtime, error) {
	rt, ok := r.runtimes[typ]
	if !ok {
		return nil, &RuntimeNotFoundError{Name: typ, Available: r.Names()}
	}
	return rt, nil
}

// Names returns the registered runtime types in alphabetical order.
func (r *Registry) Names() []RuntimeType {
	types := make([]RuntimeType, 0, len(r.runtimes))
	for typ := range r.runtimes {
		types = append(types, typ)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Environ builds the child environment: host, without reserved mold
// variables, followed by vars. Later entries win.
func Environ(host []string, vars *moldfile.VarMap) []string {
	env := FilterMoldEnvVars(host)
	return append(env, vars.Environ()...)
}

// FilterMoldEnvVars filters out reserved mold variables from the given
// environment slice.
func FilterMoldEnvVars(environ []string) []string {
	result := make([]string, 0, len(environ))
	for _, e := range environ {
		name, _, ok := strings.Cut(e, "=")
		if ok && slices.Contains(mold.ReservedVars, name) {
			continue
		}
		result = append(result, e)
	}
	return result
}

func validate(ctx *ExecutionContext) error {
	if len(ctx.Args) == 0 {
		return fmt.Errorf("recipe %s has nothing to execute", ctx.Name)
	}
	if ctx.WorkDir == "" {
		return nil
	}
	info, err := os.Stat(ctx.WorkDir)
	if err != nil {
		return fmt.Errorf("working directory of %s: %w", ctx.Name, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("working directory of %s: %s is not a directory", ctx.Name, ctx.WorkDir)
	}
	return nil
}

func contextOf(ctx *ExecutionContext) context.Context {
	if ctx.Context == nil {
		return context.Background()
	}
	return ctx.Context
}
