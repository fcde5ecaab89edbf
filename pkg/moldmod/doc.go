// SPDX-License-Identifier: MPL-2.0

// Package moldmod manages the local state directory: checkouts of remote
// moldfile repositories and materialized inline scripts.
//
// Each remote is checked out into a folder whose name is a pure function of
// its URL and ref (see moldfile.Remote.FolderName). A folder that already
// exists is never fetched again unless an update is requested explicitly.
package moldmod
