// SPDX-License-Identifier: MPL-2.0

// Command mold runs the recipes declared in a moldfile.
//
// Positional arguments name the recipes to run; their requirements run
// first, in order, and the first failure stops the run. Without arguments
// mold lists the recipes of the discovered moldfile. The config and cache
// sub-commands manage the user configuration and the state directory; a
// recipe that shares a sub-command's name is reached after `--`.
package main
