// SPDX-License-Identifier: MPL-2.0

// Package dag computes ordered dependency closures over named nodes and
// reports cycles.
package dag

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrCycle is the sentinel wrapped by CycleError.
var ErrCycle = errors.New("dependency cycle")

type (
	// CycleError indicates that following edges from a root led back to a
	// node that was still being visited.
	CycleError struct {
		// Cycle lists the nodes on the cycle; the first node is repeated at
		// the end, e.g. [a b c a].
		Cycle []string
	}

	// EdgeFunc returns the direct dependencies of node in declaration order.
	// An error aborts the traversal and is returned unchanged.
	EdgeFunc func(node string) ([]string, error)

	walker struct {
		edges    EdgeFunc
		order    []string
		done     map[string]bool
		visiting []string
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// Unwrap returns ErrCycle so callers can use errors.Is for programmatic detection.
func (e *CycleError) Unwrap() error { return ErrCycle }

// Closure returns every node reachable from roots, each node's dependencies
// before the node itself. Nodes appear once, at the position of their first
// completion, so the result is a post-order of the depth-first traversal
// rather than an arbitrary topological sort.
func Closure(roots []string, edges EdgeFunc) ([]string, error) {
	w := &walker{edges: edges, done: make(map[string]bool)}
	for _, root := range roots {
		if err := w.visit(root); err != nil {
			return nil, err
		}
	}
	return w.order, nil
}

func (w *walker) visit(node string) error {
	if w.done[node] {
		return nil
	}
	if i := slices.Index(w.visiting, node); i >= 0 {
		cycle := append(slices.Clone(w.visiting[i:]), node)
		return &CycleError{Cycle: cycle}
	}

	deps, err := w.edges(node)
	if err != nil {
		return err
	}

	w.visiting = append(w.visiting, node)
	for _, dep := range deps {
		if err := w.visit(dep); err != nil {
			return err
		}
	}
	w.visiting = w.visiting[:len(w.visiting)-1]

	w.done[node] = true
	w.order = append(w.order, node)
	return nil
}
