// SPDX-License-Identifier: MPL-2.0

package moldfile

import (
	"fmt"
	"iter"
	"slices"

	"gopkg.in/yaml.v3"
)

type (
	// VarMap is an insertion-ordered map of variable names to values.
	// The zero value is an empty map ready to use.
	VarMap struct {
		keys   []string
		values map[string]string
	}

	// EnvEntry is one conditional overlay: when Test holds for the active
	// environments, Vars is layered over the owner's variables.
	EnvEntry struct {
		Test string
		Vars VarMap
	}

	// EnvMap is an ordered list of conditional overlays keyed by their
	// expression source text.
	EnvMap struct {
		entries []EnvEntry
	}
)

// NewVarMap builds a VarMap from alternating key/value pairs.
func NewVarMap(kv ...string) *VarMap {
	if len(kv)%2 != 0 {
		panic("moldfile.NewVarMap: odd number of arguments")
	}
	m := &VarMap{}
	for i := 0; i < len(kv); i += 2 {
		m.Set(kv[i], kv[i+1])
	}
	return m
}

// Len returns the number of variables.
func (m *VarMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Get returns the value for key.
func (m *VarMap) Get(key string) (string, bool) {
	if m == nil || m.values == nil {
		return "", false
	}
	v, ok := m.values[key]
	return v, ok
}

// Set assigns key, keeping the original position when it already exists.
func (m *VarMap) Set(key, value string) {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// SetDefault assigns key only when it is absent and reports whether it did.
func (m *VarMap) SetDefault(key, value string) bool {
	if _, ok := m.Get(key); ok {
		return false
	}
	m.Set(key, value)
	return true
}

// Keys returns the keys in insertion order.
func (m *VarMap) Keys() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys)
}

// All iterates over the variables in insertion order.
func (m *VarMap) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if m == nil {
			return
		}
		for _, k := range m.keys {
			if !yield(k, m.values[k]) {
				return
			}
		}
	}
}

// Overlay copies every variable of other into m, overwriting existing values.
func (m *VarMap) Overlay(other *VarMap) {
	for k, v := range other.All() {
		m.Set(k, v)
	}
}

// Merge copies the variables of other that m does not define yet.
func (m *VarMap) Merge(other *VarMap) {
	for k, v := range other.All() {
		m.SetDefault(k, v)
	}
}

// Clone returns an independent copy.
func (m *VarMap) Clone() *VarMap {
	c := &VarMap{}
	c.Overlay(m)
	return c
}

// Environ renders the map as KEY=VALUE pairs suitable for os/exec.
func (m *VarMap) Environ() []string {
	env := make([]string, 0, m.Len())
	for k, v := range m.All() {
		env = append(env, k+"="+v)
	}
	return env
}

// UnmarshalYAML decodes a mapping node, preserving key order.
func (m *VarMap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: variables must be a mapping", node.Line)
	}
	*m = VarMap{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: variable %q must be a scalar", val.Line, key.Value)
		}
		if _, dup := m.Get(key.Value); dup {
			return fmt.Errorf("line %d: duplicate variable %q", key.Line, key.Value)
		}
		m.Set(key.Value, val.Value)
	}
	return nil
}

// Len returns the number of conditional overlays.
func (m *EnvMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Entries returns the overlays in declaration order.
func (m *EnvMap) Entries() []EnvEntry {
	if m == nil {
		return nil
	}
	return slices.Clone(m.entries)
}

// Add appends an overlay for test.
func (m *EnvMap) Add(test string, vars *VarMap) {
	m.entries = append(m.entries, EnvEntry{Test: test, Vars: *vars.Clone()})
}

// UnmarshalYAML decodes a mapping of expressions to variable maps,
// preserving declaration order.
func (m *EnvMap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: environments must be a mapping", node.Line)
	}
	*m = EnvMap{}
	seen := make(map[string]bool)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if seen[key.Value] {
			return fmt.Errorf("line %d: duplicate environment %q", key.Line, key.Value)
		}
		seen[key.Value] = true

		var vars VarMap
		if err := vars.UnmarshalYAML(val); err != nil {
			return fmt.Errorf("environment %q: %w", key.Value, err)
		}
		m.entries = append(m.entries, EnvEntry{Test: key.Value, Vars: vars})
	}
	return nil
}
