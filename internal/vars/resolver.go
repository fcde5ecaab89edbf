// SPDX-License-Identifier: MPL-2.0

package vars

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/kballard/go-shellquote"
	"mvdan.cc/sh/v3/shell"

	"github.com/moldrun/mold/pkg/expr"
	"github.com/moldrun/mold/pkg/moldfile"
)

// ErrShellSplit is the sentinel wrapped by ShellSplitError.
var ErrShellSplit = errors.New("cannot split command into words")

type (
	// Scoped is anything that owns variables with conditional overlays:
	// a moldfile or a recipe.
	Scoped interface {
		OwnVars() *moldfile.VarMap
		OwnEnvironments() *moldfile.EnvMap
	}

	// Resolver expands variables against an environment provider.
	Resolver struct {
		// Env resolves names missing from the variable map. Nil means OSEnv.
		Env EnvProvider
		// Strict compiles environment expressions in strict mode.
		Strict bool
		// Masked names resolve only from the variable map, never from Env.
		Masked []string
	}

	// ShellSplitError reports a command line with unbalanced quoting or a
	// trailing escape.
	ShellSplitError struct {
		Command string
		Err     error
	}
)

// Error implements the error interface.
func (e *ShellSplitError) Error() string {
	return fmt.Sprintf("cannot split command %q: %v", e.Command, e.Err)
}

// Unwrap returns ErrShellSplit and the underlying tokenizer error.
func (e *ShellSplitError) Unwrap() []error { return []error{ErrShellSplit, e.Err} }

// New returns a Resolver reading the process environment.
func New() *Resolver {
	return &Resolver{Env: OSEnv{}}
}

func (r *Resolver) env() EnvProvider {
	if r == nil || r.Env == nil {
		return OSEnv{}
	}
	return r.Env
}

// EnvVars returns the variables of scope for the active environments: its
// own variables, then every overlay whose expression holds, in declaration
// order. Later overlays win. Malformed expressions are skipped.
func (r *Resolver) EnvVars(scope Scoped, active []string) *moldfile.VarMap {
	out := scope.OwnVars().Clone()
	for _, entry := range scope.OwnEnvironments().Entries() {
		if expr.Matches(entry.Test, active, expr.WithStrict(r != nil && r.Strict)) {
			out.Overlay(&entry.Vars)
		}
	}
	return out
}

// Lookup resolves name against vars, then the environment provider unless
// name is masked. Missing names resolve to "".
func (r *Resolver) Lookup(name string, vars *moldfile.VarMap) string {
	if v, ok := vars.Get(name); ok {
		return v
	}
	if r != nil && slices.Contains(r.Masked, name) {
		return ""
	}
	if v, ok := r.env().LookupEnv(name); ok {
		return v
	}
	return ""
}

// Expand substitutes $NAME and ${NAME} references in raw, including the
// POSIX parameter forms such as ${NAME:-default}. Every other byte is kept
// as written: quotes, backslashes, command and arithmetic substitutions, and
// special parameters such as $1 are left for the shell that runs the text.
// It never fails.
func (r *Resolver) Expand(raw string, vars *moldfile.VarMap) string {
	lookup := func(name string) string { return r.Lookup(name, vars) }

	var sb strings.Builder
	for i := 0; i < len(raw); {
		c := raw[i]
		if c != '$' || i+1 == len(raw) {
			sb.WriteByte(c)
			i++
			continue
		}
		switch next := raw[i+1]; {
		case next == '$':
			sb.WriteString("$$")
			i += 2
		case next == '{':
			end := closingBrace(raw, i+2)
			if end < 0 {
				sb.WriteString(raw[i:])
				return sb.String()
			}
			sb.WriteString(r.expandParam(raw[i:end+1], lookup))
			i = end + 1
		case isNameStart(next):
			j := i + 2
			for j < len(raw) && isNameByte(raw[j]) {
				j++
			}
			sb.WriteString(lookup(raw[i+1 : j]))
			i = j
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String()
}

// expandParam expands a single ${...} expression.
func (r *Resolver) expandParam(param string, lookup func(string) string) string {
	out, err := shell.Expand(param, lookup)
	if err != nil {
		slog.Debug("falling back to plain variable substitution", "text", param, "error", err)
		return os.Expand(param, lookup)
	}
	return out
}

// closingBrace returns the index of the brace closing a "${" whose body
// starts at from, or -1.
func closingBrace(s string, from int) int {
	depth := 1
	for i := from; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isNameStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isNameByte(c byte) bool {
	return isNameStart(c) || ('0' <= c && c <= '9')
}

// ExpandAll expands every value of vars in order. Each value sees the
// values expanded before it.
func (r *Resolver) ExpandAll(vars *moldfile.VarMap) *moldfile.VarMap {
	out := &moldfile.VarMap{}
	r.ExpandOnto(out, vars)
	return out
}

// ExpandOnto expands every value of src in order and sets it on dst, so
// later values see both dst and the values of src expanded before them.
func (r *Resolver) ExpandOnto(dst, src *moldfile.VarMap) {
	for k, v := range src.All() {
		dst.Set(k, r.Expand(v, dst))
	}
}

// BuildArgs expands command and splits it into words using POSIX shell
// quoting rules.
func (r *Resolver) BuildArgs(command string, vars *moldfile.VarMap) ([]string, error) {
	expanded := r.Expand(command, vars)
	args, err := shellquote.Split(expanded)
	if err != nil {
		return nil, &ShellSplitError{Command: expanded, Err: err}
	}
	return args, nil
}
