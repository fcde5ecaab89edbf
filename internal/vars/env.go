// SPDX-License-Identifier: MPL-2.0

package vars

import "os"

type (
	// EnvProvider supplies values for names that are not mold variables.
	EnvProvider interface {
		LookupEnv(name string) (string, bool)
	}

	// OSEnv reads the process environment.
	OSEnv struct{}

	// MapEnv is a fixed environment, mostly useful in tests.
	MapEnv map[string]string
)

// LookupEnv implements EnvProvider.
func (OSEnv) LookupEnv(name string) (string, bool) { return os.LookupEnv(name) }

// LookupEnv implements EnvProvider.
func (m MapEnv) LookupEnv(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}
