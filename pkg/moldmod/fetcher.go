// SPDX-License-Identifier: MPL-2.0

package moldmod

import (
	"context"
	"errors"
	"fmt"
)

// ErrFetch is the sentinel wrapped by FetchError.
var ErrFetch = errors.New("failed to fetch remote")

type (
	// Fetcher performs the version-control operations the cache needs.
	Fetcher interface {
		// Clone clones url into dest, which does not exist yet.
		Clone(ctx context.Context, url, dest string) error
		// Fetch updates the remote-tracking refs and tags of the clone at dest.
		Fetch(ctx context.Context, dest string) error
		// Checkout force-checks out ref in the clone at dest, detaching HEAD.
		// ref is tried as a tag, then a remote branch, then a revision.
		Checkout(ctx context.Context, dest, ref string) error
	}

	// FetchError reports a failed clone, fetch or checkout.
	FetchError struct {
		// Op is "clone", "fetch" or "checkout".
		Op string
		// Remote is the remote in url#ref notation.
		Remote string
		Err    error
	}
)

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Remote, e.Err)
}

// Unwrap returns ErrFetch and the underlying error.
func (e *FetchError) Unwrap() []error { return []error{ErrFetch, e.Err} }
