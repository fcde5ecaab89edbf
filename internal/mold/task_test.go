// SPDX-License-Identifier: MPL-2.0

package mold

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/moldrun/mold/internal/testutil"
	"github.com/moldrun/mold/internal/vars"
	"github.com/moldrun/mold/pkg/moldfile"
)

const taskMoldfile = `
version: "0.6"
dir: work
vars:
  OUT: $MOLD_ROOT/out
  BIN: $OUT/bin
  MODE: debug
  MOLD_ROOT: ignored
environments:
  prod:
    MODE: release
recipes:
  build:
    command: [go, build, -o, $BIN, -tags, $MODE]
  line:
    command: go test $FLAGS ./...
    vars:
      FLAGS: -v -count=1
  quoted:
    command: echo "unterminated
  greet:
    shell: echo "$GREETING from $MOLD_WORK_DIR"
    vars:
      GREETING: hello
    environments:
      prod:
        GREETING: good day
    dir: $MODE/sub
  inline:
    script: |
      echo inline
  inline-custom:
    shell: bash "$MOLD_SCRIPT" --flag
    script: |
      echo custom
  abs:
    command: [pwd]
    dir: /tmp
`

func TestBuildTask_Command(t *testing.T) {
	t.Parallel()

	m := openRoot(t, taskMoldfile, newFetcher())
	task, err := m.BuildTask(context.Background(), "build")
	if err != nil {
		t.Fatalf("BuildTask() error = %v", err)
	}

	bin := filepath.Join(m.RootDir(), "out", "bin")
	if want := []string{"go", "build", "-o", bin, "-tags", "debug"}; !slices.Equal(task.Args, want) {
		t.Errorf("Args = %v, want %v", task.Args, want)
	}
	if want := filepath.Join(m.RootDir(), "work"); task.WorkDir != want {
		t.Errorf("WorkDir = %q, want %q", task.WorkDir, want)
	}

	reserved := map[string]string{
		VarRoot:      m.RootDir(),
		VarDir:       m.StateDir(),
		VarSource:    m.RootDir(),
		VarSearchDir: m.RootDir(),
		VarWorkDir:   task.WorkDir,
		VarEnvs:      "",
	}
	for k, want := range reserved {
		if got, ok := task.Vars.Get(k); !ok || got != want {
			t.Errorf("%s = %q, want %q", k, got, want)
		}
	}
	if _, ok := task.Vars.Get(VarScript); ok {
		t.Errorf("%s should only be set for inline scripts", VarScript)
	}
}

func TestBuildTask_CommandLine(t *testing.T) {
	t.Parallel()

	m := openRoot(t, taskMoldfile, newFetcher())
	task, err := m.BuildTask(context.Background(), "line")
	if err != nil {
		t.Fatalf("BuildTask() error = %v", err)
	}
	if want := []string{"go", "test", "-v", "-count=1", "./..."}; !slices.Equal(task.Args, want) {
		t.Errorf("Args = %v, want %v", task.Args, want)
	}

	_, err = m.BuildTask(context.Background(), "quoted")
	if !errors.Is(err, vars.ErrShellSplit) {
		t.Errorf("expected ErrShellSplit, got %v", err)
	}
}

func TestBuildTask_Environments(t *testing.T) {
	t.Parallel()

	m := openRoot(t, taskMoldfile, newFetcher(), func(o *Options) {
		o.Environments = []string{"prod", "eu"}
	})

	task, err := m.BuildTask(context.Background(), "greet")
	if err != nil {
		t.Fatalf("BuildTask() error = %v", err)
	}
	if want := filepath.Join(m.RootDir(), "release", "sub"); task.WorkDir != want {
		t.Errorf("WorkDir = %q, want %q", task.WorkDir, want)
	}
	if want := []string{"/bin/sh", "-c", `echo "good day from ` + task.WorkDir + `"`}; !slices.Equal(task.Args, want) {
		t.Errorf("Args = %q, want %q", task.Args, want)
	}
	if v, _ := task.Vars.Get(VarEnvs); v != "prod,eu" {
		t.Errorf("%s = %q, want prod,eu", VarEnvs, v)
	}
}

func TestBuildTask_InlineScript(t *testing.T) {
	t.Parallel()

	m := openRoot(t, taskMoldfile, newFetcher())
	task, err := m.BuildTask(context.Background(), "inline")
	if err != nil {
		t.Fatalf("BuildTask() error = %v", err)
	}

	script, ok := task.Vars.Get(VarScript)
	if !ok {
		t.Fatalf("expected %s to be set", VarScript)
	}
	if !strings.HasPrefix(script, m.StateDir()) {
		t.Errorf("script %s is outside the state directory", script)
	}
	if got := testutil.MustReadFile(t, script); got != "echo inline\n" {
		t.Errorf("script content = %q", got)
	}
	if want := []string{"/bin/sh", "-c", `sh "` + script + `"`}; !slices.Equal(task.Args, want) {
		t.Errorf("Args = %q, want %q", task.Args, want)
	}

	custom, err := m.BuildTask(context.Background(), "inline-custom")
	if err != nil {
		t.Fatalf("BuildTask() error = %v", err)
	}
	customScript, _ := custom.Vars.Get(VarScript)
	if customScript == script {
		t.Error("expected different scripts to get different files")
	}
	if want := `bash "` + customScript + `" --flag`; custom.Args[2] != want {
		t.Errorf("shell text = %q, want %q", custom.Args[2], want)
	}
}

func TestBuildTask_AbsoluteDir(t *testing.T) {
	t.Parallel()

	m := openRoot(t, taskMoldfile, newFetcher())
	task, err := m.BuildTask(context.Background(), "abs")
	if err != nil {
		t.Fatalf("BuildTask() error = %v", err)
	}
	if task.WorkDir != "/tmp" {
		t.Errorf("WorkDir = %q, want /tmp", task.WorkDir)
	}
}

func TestBuildTask_NoDir(t *testing.T) {
	t.Parallel()

	m := openRoot(t, "version: '0.6'\nrecipes: {x: {command: [x]}}\n", newFetcher())
	task, err := m.BuildTask(context.Background(), "x")
	if err != nil {
		t.Fatalf("BuildTask() error = %v", err)
	}
	if task.WorkDir != "" {
		t.Errorf("WorkDir = %q, want empty", task.WorkDir)
	}
}

func TestBuildTask_ShellDefaultsToSh(t *testing.T) {
	t.Parallel()

	m := openRoot(t, "version: '0.6'\nrecipes: {x: {shell: 'true'}}\n", newFetcher(), func(o *Options) {
		o.Env = vars.MapEnv{}
	})
	task, err := m.BuildTask(context.Background(), "x")
	if err != nil {
		t.Fatalf("BuildTask() error = %v", err)
	}
	if task.Args[0] != "sh" {
		t.Errorf("Args[0] = %q, want sh", task.Args[0])
	}
}

func TestBuildTask_NotFound(t *testing.T) {
	t.Parallel()

	m := openRoot(t, taskMoldfile, newFetcher())
	_, err := m.BuildTask(context.Background(), "missing")
	var notFound *RecipeNotFoundError
	if !errors.As(err, &notFound) || notFound.Name != "missing" {
		t.Fatalf("expected RecipeNotFoundError, got %v", err)
	}
	if !errors.Is(err, ErrRecipeNotFound) {
		t.Error("expected error to wrap ErrRecipeNotFound")
	}
}

const moduleRoot = `
version: "0.6"
vars:
  SHARED: parent
recipes:
  tools:
    help: shared tooling
    url: example.com/tools.git
    ref: v1
    vars:
      TOOLS_ONLY: overridden
  all:
    command: [echo, all]
    requires: [tools/build]
`

func TestModule_QualifiedNames(t *testing.T) {
	t.Parallel()

	fetcher := newFetcher()
	m := openRoot(t, moduleRoot, fetcher)
	if len(fetcher.Clones) != 0 {
		t.Fatalf("expected modules to be fetched lazily, got %v", fetcher.Clones)
	}

	deps, err := m.FindAllDependencies(context.Background(), []string{"all"})
	if err != nil {
		t.Fatalf("FindAllDependencies() error = %v", err)
	}
	if want := []string{"tools/lint", "tools/build", "all"}; !slices.Equal(deps, want) {
		t.Errorf("FindAllDependencies() = %v, want %v", deps, want)
	}

	task, err := m.BuildTask(context.Background(), "tools/build")
	if err != nil {
		t.Fatalf("BuildTask() error = %v", err)
	}
	if task.Name != "tools/build" || !slices.Equal(task.Args, []string{"tools-build"}) {
		t.Errorf("unexpected task: %+v", task)
	}
	if v, _ := task.Vars.Get("SHARED"); v != "parent" {
		t.Errorf("SHARED = %q, want parent to override the module", v)
	}
	if v, _ := task.Vars.Get("TOOLS_ONLY"); v != "overridden" {
		t.Errorf("TOOLS_ONLY = %q, want the module recipe's value", v)
	}
	if root, _ := task.Vars.Get(VarRoot); root == m.RootDir() {
		t.Errorf("%s should be the module's root, got the parent's", VarRoot)
	}

	if _, err := m.BuildTask(context.Background(), "tools/test"); err != nil {
		t.Fatalf("BuildTask() error = %v", err)
	}
	if len(fetcher.Clones) != 1 {
		t.Errorf("expected the module to be fetched once, got %v", fetcher.Clones)
	}
}

func TestModule_Listing(t *testing.T) {
	t.Parallel()

	m := openRoot(t, moduleRoot, newFetcher())
	task, err := m.BuildTask(context.Background(), "tools")
	if err != nil {
		t.Fatalf("BuildTask() error = %v", err)
	}
	if !task.IsListing() {
		t.Fatalf("expected a listing task, got %+v", task)
	}
	var names []string
	for _, info := range task.Listing {
		names = append(names, info.Name)
	}
	if want := []string{"tools/build", "tools/lint", "tools/test"}; !slices.Equal(names, want) {
		t.Errorf("Listing = %v, want %v", names, want)
	}
}

func TestModule_MissingRecipe(t *testing.T) {
	t.Parallel()

	m := openRoot(t, moduleRoot, newFetcher())
	_, err := m.BuildTask(context.Background(), "tools/ghost")
	var notFound *RecipeNotFoundError
	if !errors.As(err, &notFound) || notFound.Name != "tools/ghost" {
		t.Fatalf("expected RecipeNotFoundError for tools/ghost, got %v", err)
	}
}

func TestExplain(t *testing.T) {
	t.Parallel()

	m := openRoot(t, moduleRoot, newFetcher())

	ex, err := m.Explain(context.Background(), "tools/build")
	if err != nil {
		t.Fatalf("Explain() error = %v", err)
	}
	if ex.Help != "build with tools" || ex.Kind != moldfile.KindCommand || ex.Source != "tools-build" {
		t.Errorf("unexpected explanation: %+v", ex)
	}
	if !slices.Equal(ex.Requires, []string{"tools/lint"}) {
		t.Errorf("Requires = %v, want [tools/lint]", ex.Requires)
	}
	if ex.Task == nil || !slices.Equal(ex.Task.Args, []string{"tools-build"}) {
		t.Errorf("unexpected task: %+v", ex.Task)
	}

	mod, err := m.Explain(context.Background(), "tools")
	if err != nil {
		t.Fatalf("Explain() error = %v", err)
	}
	if mod.Source != "example.com/tools.git#v1" || mod.Kind != moldfile.KindModule {
		t.Errorf("unexpected module explanation: %+v", mod)
	}
}

func TestShVars(t *testing.T) {
	t.Parallel()

	m := openRoot(t, `
version: "0.6"
vars:
  OUT: $MOLD_ROOT/out
  MSG: it's here
`, newFetcher())

	got := m.ShVars()
	want := []string{
		"export MOLD_ROOT=" + m.RootDir(),
		"export MOLD_DIR=" + m.StateDir(),
		"export OUT=" + m.RootDir() + "/out",
		`export MSG='it'\''s here'`,
	}
	if len(got) != len(want) {
		t.Fatalf("ShVars() = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ShVars()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestUpdateAll(t *testing.T) {
	t.Parallel()

	fetcher := newFetcher()
	m := openRoot(t, `
version: "0.6"
includes: ["example.com/lint.git#/lint/mold.yaml"]
recipes:
  tools: {url: example.com/tools.git, ref: v1}
`, fetcher)

	if err := m.UpdateAll(context.Background()); err != nil {
		t.Fatalf("UpdateAll() error = %v", err)
	}
	// lint was cloned during Init and tools during UpdateAll; both count as fresh.
	if len(fetcher.Clones) != 2 || len(fetcher.Fetches) != 0 {
		t.Errorf("clones=%v fetches=%v", fetcher.Clones, fetcher.Fetches)
	}

	again := openRoot(t, `
version: "0.6"
includes: ["example.com/lint.git#/lint/mold.yaml"]
`, fetcher, func(o *Options) { o.StateDir = m.StateDir() })
	if err := again.UpdateAll(context.Background()); err != nil {
		t.Fatalf("UpdateAll() error = %v", err)
	}
	if len(fetcher.Fetches) != 1 {
		t.Errorf("expected an existing checkout to be fetched, got %v", fetcher.Fetches)
	}
}

func TestModule_UnderIncludePrefix(t *testing.T) {
	t.Parallel()

	fetcher := newFetcher()
	fetcher.AddRepo("example.com/lib.git", "master", testutil.Files{"mold.yaml": `
version: "*"
recipes:
  tools:
    url: example.com/tools.git
    ref: v1
  ci:
    command: [ci]
    requires: [tools/test]
`})
	m := openRoot(t, `
version: "0.6"
includes:
  - url: example.com/lib.git
    prefix: "inc/"
`, fetcher)

	listing, err := m.BuildTask(context.Background(), "inc/tools")
	if err != nil {
		t.Fatalf("BuildTask(inc/tools) error = %v", err)
	}
	if len(listing.Listing) == 0 {
		t.Fatalf("expected a listing task, got %+v", listing)
	}
	for _, info := range listing.Listing {
		if _, err := m.BuildTask(context.Background(), info.Name); err != nil {
			t.Errorf("listed recipe %s does not resolve: %v", info.Name, err)
		}
	}

	task, err := m.BuildTask(context.Background(), "inc/tools/test")
	if err != nil {
		t.Fatalf("BuildTask(inc/tools/test) error = %v", err)
	}
	if !slices.Equal(task.Args, []string{"tools-test"}) {
		t.Errorf("Args = %v, want [tools-test]", task.Args)
	}

	tasks, err := m.Resolve(context.Background(), []string{"inc/ci", "inc/tools/build"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if want := []string{"inc/tools/test", "inc/ci", "inc/tools/lint", "inc/tools/build"}; !slices.Equal(taskNames(tasks), want) {
		t.Errorf("Resolve() = %v, want %v", taskNames(tasks), want)
	}

	_, err = m.BuildTask(context.Background(), "inc/tools/missing")
	var notFound *RecipeNotFoundError
	if !errors.As(err, &notFound) || notFound.Name != "inc/tools/missing" {
		t.Errorf("expected RecipeNotFoundError for inc/tools/missing, got %v", err)
	}
}

func TestBuildTask_ReservedVarsIgnoreEnvironment(t *testing.T) {
	t.Parallel()

	m := openRoot(t, `
version: "0.6"
vars:
  WHERE: $MOLD_WORK_DIR
  SCRIPT: x${MOLD_SCRIPT}x
recipes:
  here:
    command: [echo, $WHERE, $SCRIPT]
    dir: sub
  anywhere:
    command: [echo, $WHERE]
`, newFetcher(), func(o *Options) {
		o.Env = vars.MapEnv{"SHELL": "/bin/sh", VarWorkDir: "/stale", VarScript: "/stale.sh"}
	})

	here, err := m.BuildTask(context.Background(), "here")
	if err != nil {
		t.Fatalf("BuildTask(here) error = %v", err)
	}
	if want := []string{"echo", filepath.Join(m.RootDir(), "sub"), "xx"}; !slices.Equal(here.Args, want) {
		t.Errorf("Args = %q, want %q", here.Args, want)
	}
	if v, _ := here.Vars.Get("WHERE"); v != here.WorkDir {
		t.Errorf("WHERE = %q, want the working directory %q", v, here.WorkDir)
	}

	anywhere, err := m.BuildTask(context.Background(), "anywhere")
	if err != nil {
		t.Fatalf("BuildTask(anywhere) error = %v", err)
	}
	if anywhere.Args[1] == "/stale" || anywhere.Args[1] == "" {
		t.Errorf("WHERE = %q, want the current directory", anywhere.Args[1])
	}
}
