// SPDX-License-Identifier: MPL-2.0

package moldfile

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// DevVersion is the version reported by builds without release metadata.
// Version requirements are not enforced against it.
const DevVersion = "dev"

var (
	// ErrVersionMismatch is the sentinel wrapped by VersionMismatchError.
	ErrVersionMismatch = errors.New("mold version mismatch")

	// ErrInvalidRequirement is returned for unparseable version requirements.
	ErrInvalidRequirement = errors.New("invalid version requirement")

	comparatorRegex = regexp.MustCompile(`^(\^|~|>=|<=|>|<|=)?\s*v?(\d+)(?:\.(\d+))?(?:\.(\d+))?(-[0-9A-Za-z.-]+)?$`)
)

type (
	// VersionMismatchError is returned when a moldfile requires a mold
	// version other than the running one.
	VersionMismatchError struct {
		Path     string
		Required string
		Running  string
	}

	// Requirement is a parsed version requirement: a comma-separated list of
	// comparators that must all hold. A bare version behaves like ^version.
	Requirement struct {
		source      string
		comparators []comparator
	}

	// comparator is a half-open range [lower, upper). An empty bound is open.
	comparator struct {
		lower, upper string
		lowerExcl    bool
		upperIncl    bool
	}
)

// Error implements the error interface.
func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("%s requires mold %s, but this is mold %s", e.Path, e.Required, e.Running)
}

// Unwrap returns ErrVersionMismatch so callers can use errors.Is for programmatic detection.
func (e *VersionMismatchError) Unwrap() error { return ErrVersionMismatch }

// ParseRequirement parses s. The operators are =, ^, ~, >, >=, < and <=;
// "*" matches every version.
func ParseRequirement(s string) (*Requirement, error) {
	req := &Requirement{source: strings.TrimSpace(s)}
	if req.source == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidRequirement)
	}
	if req.source == "*" {
		return req, nil
	}

	for part := range strings.SplitSeq(req.source, ",") {
		c, err := parseComparator(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		req.comparators = append(req.comparators, c)
	}
	return req, nil
}

func parseComparator(s string) (comparator, error) {
	m := comparatorRegex.FindStringSubmatch(s)
	if m == nil {
		return comparator{}, fmt.Errorf("%w: %q", ErrInvalidRequirement, s)
	}

	op := m[1]
	if op == "" {
		op = "^"
	}
	parts := 1
	nums := [3]int{}
	for i, raw := range m[2:5] {
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return comparator{}, fmt.Errorf("%w: %q: %w", ErrInvalidRequirement, s, err)
		}
		nums[i] = n
		parts = i + 1
	}
	major, minor, patch := nums[0], nums[1], nums[2]
	pre := m[5]
	exact := version(major, minor, patch) + pre

	// next bumps the last written component: 1 -> 2.0.0, 1.2 -> 1.3.0.
	next := func() string {
		switch parts {
		case 1:
			return version(major+1, 0, 0)
		case 2:
			return version(major, minor+1, 0)
		default:
			return version(major, minor, patch+1)
		}
	}

	switch op {
	case "=":
		if parts == 3 {
			return comparator{lower: exact, upper: exact, upperIncl: true}, nil
		}
		return comparator{lower: exact, upper: next()}, nil
	case "^":
		switch {
		case major > 0 || parts == 1:
			return comparator{lower: exact, upper: version(major+1, 0, 0)}, nil
		case minor > 0 || parts == 2:
			return comparator{lower: exact, upper: version(0, minor+1, 0)}, nil
		default:
			return comparator{lower: exact, upper: version(0, 0, patch+1)}, nil
		}
	case "~":
		if parts == 1 {
			return comparator{lower: exact, upper: version(major+1, 0, 0)}, nil
		}
		return comparator{lower: exact, upper: version(major, minor+1, 0)}, nil
	case ">":
		if parts == 3 {
			return comparator{lower: exact, lowerExcl: true}, nil
		}
		return comparator{lower: next()}, nil
	case ">=":
		return comparator{lower: exact}, nil
	case "<":
		return comparator{upper: exact}, nil
	default: // "<="
		if parts == 3 {
			return comparator{upper: exact, upperIncl: true}, nil
		}
		return comparator{upper: next()}, nil
	}
}

func version(major, minor, patch int) string {
	return fmt.Sprintf("v%d.%d.%d", major, minor, patch)
}

func (c comparator) matches(v string) bool {
	if c.lower != "" {
		cmp := semver.Compare(v, c.lower)
		if cmp < 0 || (cmp == 0 && c.lowerExcl) {
			return false
		}
	}
	if c.upper != "" {
		cmp := semver.Compare(v, c.upper)
		if cmp > 0 || (cmp == 0 && !c.upperIncl) {
			return false
		}
	}
	return true
}

// Matches reports whether version satisfies every comparator.
func (r *Requirement) Matches(version string) bool {
	v := canonical(version)
	if v == "" {
		return false
	}
	for _, c := range r.comparators {
		if !c.matches(v) {
			return false
		}
	}
	return true
}

// String returns the requirement as written.
func (r *Requirement) String() string { return r.source }

func canonical(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return semver.Canonical(v)
}

// CheckVersion verifies that the moldfile at path accepts the running mold
// version. Development builds skip the check.
func CheckVersion(path, required, running string) error {
	req, err := ParseRequirement(required)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if running == "" || running == DevVersion || canonical(running) == "" {
		return nil
	}
	if !req.Matches(running) {
		return &VersionMismatchError{Path: path, Required: req.String(), Running: running}
	}
	return nil
}
