// SPDX-License-Identifier: MPL-2.0

package vars

import (
	"errors"
	"slices"
	"testing"

	"github.com/moldrun/mold/pkg/moldfile"
)

type scope struct {
	vars moldfile.VarMap
	envs moldfile.EnvMap
}

func (s *scope) OwnVars() *moldfile.VarMap         { return &s.vars }
func (s *scope) OwnEnvironments() *moldfile.EnvMap { return &s.envs }

func newScope() *scope {
	s := &scope{vars: *moldfile.NewVarMap("A", "base", "B", "base")}
	s.envs.Add("prod", moldfile.NewVarMap("A", "prod"))
	s.envs.Add("prod + eu", moldfile.NewVarMap("A", "prod-eu", "C", "eu"))
	s.envs.Add("~prod", moldfile.NewVarMap("B", "dev"))
	s.envs.Add("(broken", moldfile.NewVarMap("B", "never"))
	return s
}

func TestEnvVars(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		active []string
		want   map[string]string
	}{
		{"no environments", nil, map[string]string{"A": "base", "B": "dev"}},
		{"prod", []string{"prod"}, map[string]string{"A": "prod", "B": "base"}},
		{"later overlay wins", []string{"prod", "eu"}, map[string]string{"A": "prod-eu", "B": "base", "C": "eu"}},
	}

	r := &Resolver{Env: MapEnv{}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := r.EnvVars(newScope(), tt.active)
			if got.Len() != len(tt.want) {
				t.Errorf("EnvVars() keys = %v, want %d keys", got.Keys(), len(tt.want))
			}
			for k, want := range tt.want {
				if v, _ := got.Get(k); v != want {
					t.Errorf("EnvVars()[%s] = %q, want %q", k, v, want)
				}
			}
		})
	}
}

func TestEnvVars_DoesNotModifyScope(t *testing.T) {
	t.Parallel()

	s := newScope()
	(&Resolver{}).EnvVars(s, []string{"prod"})
	if v, _ := s.vars.Get("A"); v != "base" {
		t.Errorf("scope variable changed to %q", v)
	}
}

func TestExpand(t *testing.T) {
	t.Parallel()

	r := &Resolver{Env: MapEnv{"HOME": "/home/me", "SHARED": "env"}}
	vars := moldfile.NewVarMap("NAME", "mold", "SHARED", "var")

	tests := []struct {
		in   string
		want string
	}{
		{"hello $NAME", "hello mold"},
		{"${NAME}file", "moldfile"},
		{"$HOME/bin", "/home/me/bin"},
		{"$SHARED", "var"},
		{"[$MISSING]", "[]"},
		{"${MISSING:-fallback}", "fallback"},
		{"${#NAME}", "4"},
		{"no refs", "no refs"},
		{"echo '$NAME'", "echo 'mold'"},
		{"cost: $", "cost: $"},
		{"$(date) $NAME", "$(date) mold"},
		{`printf '%s\n' $NAME`, `printf '%s\n' mold`},
		{`echo a\ b`, `echo a\ b`},
		{`echo "$((1+2))"`, `echo "$((1+2))"`},
		{`echo $1 $@ $? $NAME`, `echo $1 $@ $? mold`},
		{"pid $$NAME", "pid $$NAME"},
		{"${NAME:-x}_${MISSING:-${NAME}}", "mold_mold"},
		{"${NAME", "${NAME"},
		{`C:\dir\$NAME`, `C:\dir\mold`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := r.Expand(tt.in, vars); got != tt.want {
				t.Errorf("Expand(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExpandAll_SeesEarlierValues(t *testing.T) {
	t.Parallel()

	r := &Resolver{Env: MapEnv{"PATH": "/usr/bin", "LATER": "env"}}
	in := moldfile.NewVarMap(
		"OUT", "build",
		"BIN", "$OUT/bin",
		"PATH", "$BIN:$PATH",
		"EARLY", "$LATER",
		"LATER", "var",
	)

	got := r.ExpandAll(in)
	want := map[string]string{
		"OUT":   "build",
		"BIN":   "build/bin",
		"PATH":  "build/bin:/usr/bin",
		"EARLY": "env",
		"LATER": "var",
	}
	for k, w := range want {
		if v, _ := got.Get(k); v != w {
			t.Errorf("ExpandAll()[%s] = %q, want %q", k, v, w)
		}
	}
	if !slices.Equal(got.Keys(), in.Keys()) {
		t.Errorf("ExpandAll() changed order: %v", got.Keys())
	}
}

func TestExpandOnto(t *testing.T) {
	t.Parallel()

	r := &Resolver{Env: MapEnv{}}
	dst := moldfile.NewVarMap("ROOT", "/src")
	r.ExpandOnto(dst, moldfile.NewVarMap("OUT", "$ROOT/out", "ROOT", "/other"))

	if v, _ := dst.Get("OUT"); v != "/src/out" {
		t.Errorf("OUT = %q, want /src/out", v)
	}
	if v, _ := dst.Get("ROOT"); v != "/other" {
		t.Errorf("ROOT = %q, want /other", v)
	}
}

func TestBuildArgs(t *testing.T) {
	t.Parallel()

	r := &Resolver{Env: MapEnv{}}
	vars := moldfile.NewVarMap("MSG", "hello world", "FLAGS", "-v -race")

	tests := []struct {
		in   string
		want []string
	}{
		{"go test $FLAGS ./...", []string{"go", "test", "-v", "-race", "./..."}},
		{`echo "$MSG"`, []string{"echo", "hello world"}},
		{`echo 'a b' c\ d`, []string{"echo", "a b", "c d"}},
		{`printf '%s\n' "$MSG"`, []string{"printf", `%s\n`, "hello world"}},
		{`echo "$((1+2))"`, []string{"echo", "$((1+2))"}},
		{"", nil},
	}
	for _, tt := range tests {
		got, err := r.BuildArgs(tt.in, vars)
		if err != nil {
			t.Errorf("BuildArgs(%q) error = %v", tt.in, err)
			continue
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("BuildArgs(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildArgs_UnbalancedQuotes(t *testing.T) {
	t.Parallel()

	_, err := (&Resolver{Env: MapEnv{}}).BuildArgs(`echo "oops`, nil)
	var splitErr *ShellSplitError
	if !errors.As(err, &splitErr) {
		t.Fatalf("expected *ShellSplitError, got %v", err)
	}
	if !errors.Is(err, ErrShellSplit) {
		t.Error("expected error to wrap ErrShellSplit")
	}
}

func TestLookup_NilEnvUsesProcessEnvironment(t *testing.T) {
	t.Setenv("MOLD_VARS_TEST", "from-os")

	r := &Resolver{}
	if got := r.Lookup("MOLD_VARS_TEST", nil); got != "from-os" {
		t.Errorf("Lookup() = %q, want from-os", got)
	}
}

func TestLookup_Masked(t *testing.T) {
	t.Parallel()

	r := &Resolver{Env: MapEnv{"MOLD_ROOT": "/stale", "HOME": "/home/me"}, Masked: []string{"MOLD_ROOT"}}

	tests := []struct {
		name string
		vars *moldfile.VarMap
		want string
	}{
		{"MOLD_ROOT", nil, ""},
		{"MOLD_ROOT", moldfile.NewVarMap("MOLD_ROOT", "/root"), "/root"},
		{"HOME", nil, "/home/me"},
	}
	for _, tt := range tests {
		if got := r.Lookup(tt.name, tt.vars); got != tt.want {
			t.Errorf("Lookup(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
	if got := r.Expand("$MOLD_ROOT:$HOME", nil); got != ":/home/me" {
		t.Errorf("Expand() = %q, want :/home/me", got)
	}
}
