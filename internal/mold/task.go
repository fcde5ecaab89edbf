// SPDX-License-Identifier: MPL-2.0

package mold

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/moldrun/mold/pkg/moldfile"
)

// defaultScriptCommand runs an inline script when a shell recipe has no
// shell text of its own.
const defaultScriptCommand = `sh "$` + VarScript + `"`

type (
	// Task is a recipe ready to run.
	Task struct {
		// Name is the recipe name as requested, qualified with module names.
		Name string
		// Args is the argv to execute. Empty for module listings.
		Args []string
		// Vars are the final variables, passed to the process environment.
		Vars *moldfile.VarMap
		// WorkDir is the directory to run in; empty means the current directory.
		WorkDir string
		// Listing holds the recipes of a module when the target was a module
		// recipe itself.
		Listing []RecipeInfo
	}

	// RecipeInfo summarizes a recipe for listings.
	RecipeInfo struct {
		Name     string
		Help     string
		Kind     moldfile.RecipeKind
		Requires []string
	}
)

// IsListing reports whether the task only lists a module's recipes.
func (t *Task) IsListing() bool { return t.Args == nil && t.Listing != nil }

// Resolve expands targets with their dependencies and builds a task for
// each, in execution order.
func (m *Mold) Resolve(ctx context.Context, targets []string) ([]*Task, error) {
	names, err := m.FindAllDependencies(ctx, targets)
	if err != nil {
		return nil, err
	}

	tasks := make([]*Task, 0, len(names))
	for _, name := range names {
		t, err := m.BuildTask(ctx, name)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// BuildTask computes the variables, working directory and argv of the
// recipe name.
func (m *Mold) BuildTask(ctx context.Context, name string) (*Task, error) {
	res, err := m.resolve(ctx, name)
	if err != nil {
		return nil, err
	}
	return res.owner.buildTask(ctx, name, res.local, res.recipe)
}

// buildTask builds the task for the recipe local declared in m. name is
// the name the task is reported under.
func (m *Mold) buildTask(ctx context.Context, name, local string, recipe moldfile.Recipe) (*Task, error) {
	base := recipe.Base()

	reserved := m.reservedVars(local, base)
	workDir := m.workDirFor(base, m.userVars(reserved, base))
	if workDir != "" {
		reserved.Set(VarWorkDir, workDir)
	} else if cwd, err := os.Getwd(); err == nil {
		reserved.Set(VarWorkDir, cwd)
	}
	taskVars := m.userVars(reserved, base)

	task := &Task{Name: name, Vars: taskVars, WorkDir: workDir}

	switch r := recipe.(type) {
	case *moldfile.Command:
		taskVars.Overlay(reserved)
		if r.Line != "" {
			args, err := m.resolver.BuildArgs(r.Line, taskVars)
			if err != nil {
				return nil, fmt.Errorf("recipe %s: %w", name, err)
			}
			task.Args = args
		} else {
			task.Args = make([]string, len(r.Args))
			for i, arg := range r.Args {
				task.Args[i] = m.resolver.Expand(arg, taskVars)
			}
		}

	case *moldfile.Shell:
		text := r.Text
		if r.Script != "" {
			script, err := m.cache.WriteScript(r.Script)
			if err != nil {
				return nil, fmt.Errorf("recipe %s: %w", name, err)
			}
			reserved.Set(VarScript, script)
			if strings.TrimSpace(text) == "" {
				text = defaultScriptCommand
			}
		}
		taskVars.Overlay(reserved)
		task.Args = []string{m.shell(taskVars), "-c", m.resolver.Expand(text, taskVars)}

	case *moldfile.Module:
		taskVars.Overlay(reserved)
		child, err := m.module(ctx, local)
		if err != nil {
			return nil, err
		}
		task.Listing = []RecipeInfo{}
		for _, info := range child.Recipes() {
			info.Name = name + Separator + info.Name
			task.Listing = append(task.Listing, info)
		}
	}

	return task, nil
}

// userVars expands the global variables, then those of the recipe, on top
// of reserved. User values may shadow reserved ones until reserved is
// overlaid again.
func (m *Mold) userVars(reserved *moldfile.VarMap, base *moldfile.RecipeBase) *moldfile.VarMap {
	out := reserved.Clone()
	m.resolver.ExpandOnto(out, m.vars)
	m.resolver.ExpandOnto(out, m.resolver.EnvVars(base, m.active))
	return out
}

// reservedVars returns the variables mold defines for recipe local.
// MOLD_WORK_DIR is filled in once the working directory is known.
func (m *Mold) reservedVars(local string, base *moldfile.RecipeBase) *moldfile.VarMap {
	source := m.sources[local]
	if source == "" {
		source = m.rootDir
	}
	searchDir := base.SearchDir
	if searchDir == "" {
		searchDir = source
	}
	return moldfile.NewVarMap(
		VarRoot, m.rootDir,
		VarDir, m.cache.Dir(),
		VarSource, source,
		VarSearchDir, searchDir,
		VarEnvs, strings.Join(m.active, ","),
	)
}

// workDirFor returns the recipe's working directory: its own dir, else the
// namespace default, expanded and resolved against the root directory.
func (m *Mold) workDirFor(base *moldfile.RecipeBase, taskVars *moldfile.VarMap) string {
	raw := base.Dir
	if raw == "" {
		raw = m.workDir
	}
	if raw == "" {
		return ""
	}
	dir := m.resolver.Expand(raw, taskVars)
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(m.rootDir, dir)
	}
	return filepath.Clean(dir)
}

// shell returns the interpreter for shell recipes: $SHELL, else sh.
func (m *Mold) shell(taskVars *moldfile.VarMap) string {
	if sh := m.resolver.Lookup("SHELL", taskVars); sh != "" {
		return sh
	}
	return "sh"
}
