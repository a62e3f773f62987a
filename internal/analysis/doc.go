// Package analysis defines the capability the orchestrator consumes from a
// language-analysis service: per-file and whole-project emission plus
// per-file diagnostics. The service learns which files exist and whether they
// changed through a Host, which exposes the registry's root set and versions.
//
// Implementations live in subpackages; the orchestrator depends only on the
// interfaces declared here.
package analysis
