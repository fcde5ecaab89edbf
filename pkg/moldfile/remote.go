// SPDX-License-Identifier: MPL-2.0

package moldfile

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"
)

// DefaultRef is the git ref used when a remote does not name one.
const DefaultRef = "master"

type (
	// Remote identifies a moldfile in a git repository pinned to a ref.
	Remote struct {
		// URL is the git URL. A URL without a scheme is tried with https:// first.
		URL string `yaml:"url"`
		// Ref is a branch, tag or commit; empty means DefaultRef.
		Ref string `yaml:"ref"`
		// File is the moldfile path inside the repository; empty means discover.
		File string `yaml:"file"`
	}

	// Include adopts the recipes of a remote moldfile under Prefix.
	Include struct {
		Remote `yaml:",inline"`
		Prefix string `yaml:"prefix"`
	}
)

// ParseRemote parses the `url[#[ref][/file]]` notation:
//
//	https://foo.com/mold.git           ref = master
//	https://foo.com/mold.git#dev       ref = dev
//	https://foo.com/mold.git#dev/x.yml ref = dev, file = x.yml
//	https://foo.com/mold.git#/x.yml    ref = master, file = x.yml
func ParseRemote(s string) Remote {
	url, frag, found := strings.Cut(s, "#")
	if !found {
		return Remote{URL: url, Ref: DefaultRef}
	}

	ref, file, _ := strings.Cut(frag, "/")
	if ref == "" {
		ref = DefaultRef
	}
	return Remote{URL: url, Ref: ref, File: file}
}

// String renders r in the notation accepted by ParseRemote.
func (r Remote) String() string {
	if r.File != "" {
		return fmt.Sprintf("%s#%s/%s", r.URL, r.RefOrDefault(), r.File)
	}
	return fmt.Sprintf("%s#%s", r.URL, r.RefOrDefault())
}

// RefOrDefault returns Ref, or DefaultRef when it is empty.
func (r Remote) RefOrDefault() string {
	if r.Ref == "" {
		return DefaultRef
	}
	return r.Ref
}

// Hash returns the identity of the remote: a hash of its URL and ref.
// The file is not part of the identity since it lives in the same checkout.
func (r Remote) Hash() string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(r.URL+"@"+r.RefOrDefault()))
}

// FolderName returns the cache folder name for the remote: a readable slug
// followed by the ref and the identity hash.
func (r Remote) FolderName() string {
	return fmt.Sprintf("%s-%s-%s", sanitize(slug(r.URL)), sanitize(r.RefOrDefault()), r.Hash())
}

// slug returns the last path segment of a git URL without its .git suffix.
func slug(url string) string {
	s := strings.TrimRight(url, "/")
	if i := strings.LastIndexAny(s, "/:"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(s, ".git")
	if s == "" {
		return "unknown"
	}
	return s
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		default:
			return '-'
		}
	}, s)
}

// UnmarshalYAML accepts either the short `url#ref/file` string form or a
// mapping with url, ref, file and prefix keys.
func (inc *Include) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*inc = Include{Remote: ParseRemote(node.Value)}
		return nil
	}

	type plain Include
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	if p.URL == "" {
		return fmt.Errorf("line %d: include is missing url", node.Line)
	}
	if p.Ref == "" {
		p.Ref = DefaultRef
	}
	*inc = Include(p)
	return nil
}
