// SPDX-License-Identifier: MPL-2.0

package runtime

// Result is the outcome of one task. A task either ran to completion, with
// ExitCode set, or never started, with Error set.
type Result struct {
	ExitCode ExitCode
	Error    error
}

// Exited reports a task that ran and exited with code.
func Exited(code ExitCode) *Result {
	return &Result{ExitCode: code}
}

// Failed reports a task that could not be started or interpreted.
func Failed(err error) *Result {
	return &Result{ExitCode: 1, Error: err}
}

// Success returns true if the task ran and exited with 0.
func (r *Result) Success() bool {
	return r.ExitCode.IsSuccess() && r.Error == nil
}

// Err converts the result into an error for the recipe name: the start
// failure if there was one, a NonZeroExitError for a failing exit code, or nil.
func (r *Result) Err(name string) error {
	if r.Error != nil {
		return r.Error
	}
	if !r.ExitCode.IsSuccess() {
		return &NonZeroExitError{Recipe: name, Code: r.ExitCode}
	}
	return nil
}
