// Package registry tracks per-file versions and the ordered root set that the
// analysis service treats as the project's entry points.
//
// Every path in the root set has a live FileRecord and every live FileRecord
// has exactly one root-set entry. A removed path keeps a tombstoned record so
// that "never seen" and "seen then removed" stay distinguishable.
//
// A Registry is not safe for concurrent use; the orchestrator that owns it runs
// one cycle at a time.
package registry
