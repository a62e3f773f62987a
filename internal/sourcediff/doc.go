// Package sourcediff produces the per-cycle orchestrator.Diff that the host
// pipeline feeds into Rebuild, either by rescanning the source directory or
// by diffing git commits.
//
// Paths are project-relative, slash separated and NFC normalized, and are
// already filtered to recognized source files.
package sourcediff
