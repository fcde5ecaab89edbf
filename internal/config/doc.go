// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/mold/config.cue (or the XDG equivalent on Linux,
// ~/Library/Application Support/mold/config.cue on macOS, %APPDATA%\mold\config.cue
// on Windows). Every key can be overridden with a MOLD_ environment variable, with dots
// replaced by underscores: MOLD_RUNTIME, MOLD_UI_VERBOSE.
//
// Configuration files are validated against a CUE schema (config_schema.cue) to ensure
// type safety and provide clear error messages for invalid configurations.
package config
