// SPDX-License-Identifier: MPL-2.0

// Package runtime executes mold tasks.
//
// Two runtime implementations are available:
//   - native: starts the task's argv as a child process with os/exec
//   - virtual: runs the task's argv through an embedded shell interpreter (mvdan/sh)
//
// Both implement the Runtime interface and are selected by name through a
// Registry. The child environment is the host environment, minus stale mold
// variables inherited from an outer invocation, with the task's variables
// layered on top.
package runtime
