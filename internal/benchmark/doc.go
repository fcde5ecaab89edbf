// SPDX-License-Identifier: MPL-2.0

// Package benchmark holds benchmarks for the hot paths of a mold run, used to
// generate a PGO profile:
//   - moldfile parsing, YAML and CUE
//   - environment expression compilation
//   - opening a moldfile with its includes and resolving targets
//   - running a task in the virtual runtime
//
// To generate a profile, run:
//
//	go test -run '^$' -bench . -cpuprofile default.pgo ./internal/benchmark
package benchmark
