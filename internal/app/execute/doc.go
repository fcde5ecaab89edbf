// SPDX-License-Identifier: MPL-2.0

// Package execute runs resolved mold tasks. It decouples CLI-layer
// orchestration from runtime selection and from how task lines and module
// listings are printed.
package execute
