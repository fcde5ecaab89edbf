// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/moldrun/mold/internal/mold"
	"github.com/moldrun/mold/pkg/moldfile"
)

func newTestContext(args []string, vars *moldfile.VarMap) (*ExecutionContext, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &ExecutionContext{
		Context: context.Background(),
		Name:    "test",
		Args:    args,
		Vars:    vars,
		IO:      IOContext{Stdin: strings.NewReader(""), Stdout: &stdout, Stderr: &stderr},
	}, &stdout, &stderr
}

func testRuntimes() []Runtime {
	hostEnv := func() []string {
		return []string{"PATH=" + os.Getenv("PATH"), "MOLD_SCRIPT=/stale/script.sh", "KEEP=host"}
	}
	return []Runtime{
		&NativeRuntime{Environ: hostEnv},
		&VirtualRuntime{Environ: hostEnv},
	}
}

func TestRuntime_Execute(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	t.Parallel()

	for _, rt := range testRuntimes() {
		t.Run(rt.Name(), func(t *testing.T) {
			t.Parallel()

			tests := []struct {
				name     string
				args     []string
				vars     *moldfile.VarMap
				wantOut  string
				wantCode ExitCode
			}{
				{
					name:    "passes variables",
					args:    []string{"sh", "-c", "echo $GREETING $KEEP"},
					vars:    moldfile.NewVarMap("GREETING", "hello"),
					wantOut: "hello host\n",
				},
				{
					name:    "variables override host",
					args:    []string{"sh", "-c", "echo $KEEP"},
					vars:    moldfile.NewVarMap("KEEP", "task"),
					wantOut: "task\n",
				},
				{
					name:    "drops stale reserved variables",
					args:    []string{"sh", "-c", "echo ${MOLD_SCRIPT:-none}"},
					wantOut: "none\n",
				},
				{
					name:    "arguments stay literal",
					args:    []string{"echo", "$KEEP", "a b", "*"},
					wantOut: "$KEEP a b *\n",
				},
				{
					name:     "exit code",
					args:     []string{"sh", "-c", "exit 3"},
					wantCode: 3,
				},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					t.Parallel()

					ctx, stdout, _ := newTestContext(tt.args, tt.vars)
					result := rt.Execute(ctx)
					if result.Error != nil {
						t.Fatalf("Execute() error = %v", result.Error)
					}
					if result.ExitCode != tt.wantCode {
						t.Errorf("ExitCode = %d, want %d", result.ExitCode, tt.wantCode)
					}
					if got := stdout.String(); got != tt.wantOut {
						t.Errorf("stdout = %q, want %q", got, tt.wantOut)
					}
				})
			}
		})
	}
}

func TestRuntime_WorkDir(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	t.Parallel()

	dir := t.TempDir()
	want, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatal(err)
	}

	for _, rt := range testRuntimes() {
		t.Run(rt.Name(), func(t *testing.T) {
			t.Parallel()

			ctx, stdout, _ := newTestContext([]string{"sh", "-c", "pwd -P"}, nil)
			ctx.WorkDir = dir
			if result := rt.Execute(ctx); !result.Success() {
				t.Fatalf("Execute() = %+v", result)
			}
			if got := strings.TrimSpace(stdout.String()); got != want {
				t.Errorf("pwd = %q, want %q", got, want)
			}

			ctx, _, _ = newTestContext([]string{"true"}, nil)
			ctx.WorkDir = filepath.Join(dir, "missing")
			if result := rt.Execute(ctx); result.Error == nil {
				t.Error("expected an error for a missing working directory")
			}
		})
	}
}

func TestRuntime_SpawnErrors(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	t.Parallel()

	noExec := filepath.Join(t.TempDir(), "script.sh")
	if err := os.WriteFile(noExec, []byte("#!/bin/sh\necho hi\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, rt := range testRuntimes() {
		t.Run(rt.Name(), func(t *testing.T) {
			t.Parallel()

			tests := []struct {
				name       string
				program    string
				wantReason SpawnReason
			}{
				{name: "not on path", program: "mold-no-such-program", wantReason: SpawnNotFound},
				{name: "missing path", program: "/nonexistent/mold-program", wantReason: SpawnNotFound},
				{name: "not executable", program: noExec, wantReason: SpawnPermissionDenied},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					t.Parallel()

					ctx, _, _ := newTestContext([]string{tt.program}, nil)
					result := rt.Execute(ctx)
					if result.Success() {
						t.Fatal("expected a failure")
					}
					var spawnErr *SpawnError
					if !errors.As(result.Err("test"), &spawnErr) {
						t.Fatalf("expected *SpawnError, got %v", result.Err("test"))
					}
					if spawnErr.Reason != tt.wantReason {
						t.Errorf("Reason = %q, want %q (%v)", spawnErr.Reason, tt.wantReason, spawnErr)
					}
					if !errors.Is(spawnErr, ErrSpawn) {
						t.Error("expected error to wrap ErrSpawn")
					}
				})
			}
		})
	}
}

func TestRuntime_EmptyArgs(t *testing.T) {
	t.Parallel()

	for _, rt := range testRuntimes() {
		ctx, _, _ := newTestContext(nil, nil)
		if result := rt.Execute(ctx); result.Error == nil {
			t.Errorf("%s: expected an error for an empty argv", rt.Name())
		}
	}
}

func TestSpawnError_Messages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  *SpawnError
		want string
	}{
		{&SpawnError{Recipe: "b", Program: "gcc", Reason: SpawnNotFound}, "recipe b: command not found: gcc"},
		{&SpawnError{Recipe: "b", Program: "./x", Reason: SpawnPermissionDenied}, "recipe b: permission denied: ./x"},
		{&SpawnError{Recipe: "b", Program: "x", Reason: SpawnOther, Err: errors.New("boom")}, "recipe b: failed to start x: boom"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := DefaultRegistry()
	if want := []RuntimeType{RuntimeTypeNative, RuntimeTypeVirtual}; !slices.Equal(r.Names(), want) {
		t.Errorf("Names() = %v, want %v", r.Names(), want)
	}

	rt, err := r.Get(RuntimeTypeVirtual)
	if err != nil || rt.Name() != "virtual" {
		t.Fatalf("Get(virtual) = %v, %v", rt, err)
	}

	_, err = r.Get("container")
	var notFound *RuntimeNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected *RuntimeNotFoundError, got %v", err)
	}
	if !errors.Is(err, ErrRuntimeNotFound) {
		t.Error("expected error to wrap ErrRuntimeNotFound")
	}
	if !strings.Contains(err.Error(), "native, virtual") {
		t.Errorf("expected available runtimes in message, got %q", err.Error())
	}
}

func TestFilterMoldEnvVars(t *testing.T) {
	t.Parallel()

	in := []string{
		"PATH=/bin",
		mold.VarRoot + "=/outer",
		mold.VarScript + "=/outer/script",
		"MOLD_CONFIG=/etc/mold",
		"MALFORMED",
	}
	want := []string{"PATH=/bin", "MOLD_CONFIG=/etc/mold", "MALFORMED"}
	if got := FilterMoldEnvVars(in); !slices.Equal(got, want) {
		t.Errorf("FilterMoldEnvVars() = %v, want %v", got, want)
	}
}

func TestNewExecutionContext(t *testing.T) {
	t.Parallel()

	task := &mold.Task{Name: "build", Args: []string{"make"}, Vars: moldfile.NewVarMap("A", "1"), WorkDir: "/src"}
	ctx := NewExecutionContext(context.Background(), task)
	if ctx.Name != "build" || ctx.WorkDir != "/src" || !slices.Equal(ctx.Args, task.Args) {
		t.Errorf("unexpected context: %+v", ctx)
	}
	if ctx.IO.Stdout != os.Stdout || ctx.IO.Stderr != os.Stderr {
		t.Error("expected the process streams")
	}
}
