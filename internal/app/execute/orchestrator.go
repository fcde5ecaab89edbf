// SPDX-License-Identifier: MPL-2.0

package execute

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/kballard/go-shellquote"

	"github.com/moldrun/mold/internal/config"
	"github.com/moldrun/mold/internal/mold"
	"github.com/moldrun/mold/internal/runtime"
)

type (
	// Printer reports progress to the user.
	Printer interface {
		// Command announces a task before it runs.
		Command(name string, args []string)
		// Listing shows the recipes of a module target.
		Listing(name string, recipes []mold.RecipeInfo)
	}

	// Orchestrator runs tasks one at a time and stops at the first failure.
	Orchestrator struct {
		// Runtime executes each task.
		Runtime runtime.Runtime
		// Printer reports each task. Nil prints nothing.
		Printer Printer
		// DryRun prints the tasks without running them.
		DryRun bool
		// IO holds the standard streams handed to each task.
		IO runtime.IOContext
	}

	// PlainPrinter writes unstyled lines.
	PlainPrinter struct {
		// Out receives command lines; mold writes them to stderr so task
		// output on stdout stays clean.
		Out io.Writer
		// ListOut receives module listings.
		ListOut io.Writer
	}
)

// ResolveRuntime picks the runtime named by mode from reg. An empty mode
// selects the native runtime.
func ResolveRuntime(reg *runtime.Registry, mode config.RuntimeMode) (runtime.Runtime, error) {
	if mode == "" {
		mode = config.RuntimeNative
	}
	return reg.Get(runtime.RuntimeType(mode))
}

// Run executes tasks in order. Module listings are printed instead of run.
// The first failing task stops the run and its error is returned.
func (o *Orchestrator) Run(ctx context.Context, tasks []*mold.Task) error {
	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run canceled before %s: %w", task.Name, err)
		}

		if task.IsListing() {
			if o.Printer != nil {
				o.Printer.Listing(task.Name, task.Listing)
			}
			continue
		}

		if o.Printer != nil {
			o.Printer.Command(task.Name, task.Args)
		}
		if o.DryRun {
			continue
		}

		slog.Debug("running task", "recipe", task.Name, "runtime", o.Runtime.Name(), "dir", task.WorkDir)
		execCtx := runtime.NewExecutionContext(ctx, task)
		execCtx.IO = o.IO
		result := o.Runtime.Execute(execCtx)
		if err := result.Err(task.Name); err != nil {
			return err
		}
	}
	return nil
}

// Command implements Printer.
func (p *PlainPrinter) Command(name string, args []string) {
	if p.Out == nil {
		return
	}
	fmt.Fprintf(p.Out, "mold %s $ %s\n", name, shellquote.Join(args...))
}

// Listing implements Printer.
func (p *PlainPrinter) Listing(name string, recipes []mold.RecipeInfo) {
	if p.ListOut == nil {
		return
	}
	fmt.Fprintf(p.ListOut, "%s:\n", name)
	for _, r := range recipes {
		if r.Help != "" {
			fmt.Fprintf(p.ListOut, "  %-20s %s\n", r.Name, r.Help)
		} else {
			fmt.Fprintf(p.ListOut, "  %s\n", r.Name)
		}
	}
}
