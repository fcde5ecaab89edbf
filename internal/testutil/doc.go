// SPDX-License-Identifier: MPL-2.0

// Package testutil provides test helpers that fail the test on error
// instead of returning it, plus in-memory fakes for mold's collaborators.
package testutil
