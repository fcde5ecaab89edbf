// SPDX-License-Identifier: MPL-2.0

package expr

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
)

// ErrParse is the sentinel error wrapped by ParseError.
var ErrParse = errors.New("expression parse error")

type (
	// Expr is a compiled activation expression. Implementations are immutable.
	Expr interface {
		// Apply reports whether the expression holds for the given active names.
		Apply(active []string) bool
		// String renders the expression in canonical source form.
		String() string

		sealed()
	}

	// And is satisfied when both operands are.
	And struct{ Left, Right Expr }

	// Or is satisfied when either operand is.
	Or struct{ Left, Right Expr }

	// Not negates its operand.
	Not struct{ Inner Expr }

	// Group is a parenthesized expression.
	Group struct{ Inner Expr }

	// Atom is satisfied when Name is active.
	Atom struct{ Name string }

	// Wildcard is always satisfied.
	Wildcard struct{}

	// ParseError is returned by Compile for malformed expressions.
	ParseError struct {
		// Source is the text that failed to compile.
		Source string
		// Reason describes what the parser expected.
		Reason string
	}
)

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid expression %q: %s", e.Source, e.Reason)
}

// Unwrap returns ErrParse so callers can use errors.Is for programmatic detection.
func (e *ParseError) Unwrap() error { return ErrParse }

// Apply implements Expr.
func (e And) Apply(active []string) bool { return e.Left.Apply(active) && e.Right.Apply(active) }

// Apply implements Expr.
func (e Or) Apply(active []string) bool { return e.Left.Apply(active) || e.Right.Apply(active) }

// Apply implements Expr.
func (e Not) Apply(active []string) bool { return !e.Inner.Apply(active) }

// Apply implements Expr.
func (e Group) Apply(active []string) bool { return e.Inner.Apply(active) }

// Apply implements Expr.
func (e Atom) Apply(active []string) bool { return slices.Contains(active, e.Name) }

// Apply implements Expr.
func (Wildcard) Apply([]string) bool { return true }

func (e And) String() string    { return e.Left.String() + " + " + e.Right.String() }
func (e Or) String() string     { return e.Left.String() + " | " + e.Right.String() }
func (e Not) String() string    { return "~" + e.Inner.String() }
func (e Group) String() string  { return "(" + e.Inner.String() + ")" }
func (e Atom) String() string   { return e.Name }
func (Wildcard) String() string { return "*" }

func (And) sealed()      {}
func (Or) sealed()       {}
func (Not) sealed()      {}
func (Group) sealed()    {}
func (Atom) sealed()     {}
func (Wildcard) sealed() {}

// Compile parses text into an Expr.
func Compile(text string, opts ...Option) (Expr, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	tokens, err := lex(text, o.strict)
	if err != nil {
		return nil, err
	}

	p := &parser{source: text, tokens: tokens}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, p.fail("expected end of expression")
	}
	return e, nil
}

// MustCompile is like Compile but panics on error. Intended for tests and
// package-level expressions.
func MustCompile(text string, opts ...Option) Expr {
	e, err := Compile(text, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// Matches compiles text and applies it to active. A malformed expression is
// logged and reported as not satisfied so one bad conditional does not block
// unrelated recipes.
func Matches(text string, active []string, opts ...Option) bool {
	e, err := Compile(text, opts...)
	if err != nil {
		slog.Warn("ignoring malformed environment expression", "expression", text, "error", err)
		return false
	}
	return e.Apply(active)
}
