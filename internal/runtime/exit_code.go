// SPDX-License-Identifier: MPL-2.0

package runtime

import "strconv"

// ExitCode is a process exit status in the POSIX range 0-255. mold exits with
// the code of the first failing task.
type ExitCode int

// IsSuccess returns true if the exit code indicates successful execution.
func (c ExitCode) IsSuccess() bool { return c == 0 }

// String returns the decimal form of the code.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }

// ClampExitCode converts a process status into an ExitCode. A negative status,
// reported when a signal terminated the process, maps to 1.
func ClampExitCode(code int) ExitCode {
	switch {
	case code < 0:
		return 1
	case code > 255:
		return 255
	default:
		return ExitCode(code)
	}
}
