// Package orchestrator decides, once per cycle, how much emission work a
// source-tree diff requires and drives the analysis service through it.
//
// The orchestrator is in one of three states:
//
//	INIT      no cycle has run a full build yet
//	STEADY    the previous cycle emitted everything it was asked to
//	DEGRADED  the previous cycle failed
//
// INIT and DEGRADED cycles run a full build over the whole root set; STEADY
// cycles emit only the changed paths. A per-file diff cannot see edits with
// project-wide effects (a renamed heading that another document links to, a
// constant inlined everywhere it is used), so the only recovery from a failed
// cycle is re-deriving every output.
//
// An Orchestrator is not safe for concurrent use. The host runs at most one
// Rebuild at a time.
package orchestrator
