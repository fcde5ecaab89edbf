// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
)

type (
	// ActionableError is a user-facing error: the operation that failed, the
	// file or name involved, and what the user can do about it. It may link
	// to a catalog entry with long-form guidance.
	//
	//	return issue.NewErrorContext().
	//		WithOperation("find a moldfile").
	//		WithSuggestion("Pass the moldfile explicitly with --file").
	//		Wrap(err).
	//		Build()
	ActionableError struct {
		Operation   string
		Resource    string
		Suggestions []string
		Cause       error
		Issue       Id
	}

	// ErrorContext builds an ActionableError.
	ErrorContext struct {
		err ActionableError
	}
)

// NewErrorContext creates a new ErrorContext builder.
func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

// Error renders "failed to <operation>: <resource>: <cause>".
func (e *ActionableError) Error() string {
	parts := []string{"failed to " + e.Operation}
	if e.Resource != "" {
		parts = append(parts, e.Resource)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying cause error for use with errors.Is/As.
func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// hints renders the suggestions as a bullet list and, when verbose, the
// chain of causes below the error message.
func (e *ActionableError) hints(verbose bool) string {
	var sb strings.Builder
	for _, s := range e.Suggestions {
		sb.WriteString("  • ")
		sb.WriteString(s)
		sb.WriteByte('\n')
	}
	if verbose && e.Cause != nil {
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("Error chain:\n")
		depth := 1
		for err := e.Cause; err != nil; err = errors.Unwrap(err) {
			fmt.Fprintf(&sb, "  %d. %s\n", depth, err.Error())
			depth++
		}
	}
	return sb.String()
}

// WithOperation sets the failed operation, a verb phrase such as
// "load configuration".
func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.err.Operation = op
	return c
}

// WithResource sets the file or name involved.
func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.err.Resource = res
	return c
}

// WithSuggestion appends suggestions, in the order they should be shown.
func (c *ErrorContext) WithSuggestion(sugs ...string) *ErrorContext {
	c.err.Suggestions = append(c.err.Suggestions, sugs...)
	return c
}

// WithIssue links the error to a catalog entry.
func (c *ErrorContext) WithIssue(id Id) *ErrorContext {
	c.err.Issue = id
	return c
}

// Wrap sets the underlying cause.
func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.err.Cause = err
	return c
}

// Build returns the ActionableError, or nil when no operation was set.
// The builder can be reused; later changes do not affect built errors.
func (c *ErrorContext) Build() error {
	if c.err.Operation == "" {
		return nil
	}
	ae := c.err
	ae.Suggestions = append([]string(nil), c.err.Suggestions...)
	return &ae
}

// Guidance returns the catalog entry linked to the first ActionableError in
// err's chain, or nil.
func Guidance(err error) *Issue {
	var ae *ActionableError
	if !errors.As(err, &ae) || ae.Issue == 0 {
		return nil
	}
	return Get(ae.Issue)
}

// Hints returns the suggestions of the first ActionableError in err's chain,
// one bullet per line, followed in verbose mode by its chain of causes. It
// returns "" when there is nothing to add to err's message.
func Hints(err error, verbose bool) string {
	var ae *ActionableError
	if !errors.As(err, &ae) {
		return ""
	}
	return ae.hints(verbose)
}
