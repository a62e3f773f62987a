package registry

import (
	"slices"

	"git.home.luguber.info/inful/incremit/internal/errors"
)

// FileRecord is the per-path version state.
type FileRecord struct {
	Version int
	Removed bool
}

// Registry holds FileRecords and the root set in lockstep.
type Registry struct {
	records map[string]*FileRecord
	roots   []string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{records: make(map[string]*FileRecord)}
}

// MarkChanged records that path changed in the current cycle.
//
// A path seen for the first time starts at version 0 and is appended to the
// root set. A live path has its version incremented. A tombstoned path is
// revived with the next version after the one it was removed at, so a
// version number is never handed out twice for the same path.
func (r *Registry) MarkChanged(path string) {
	rec, ok := r.records[path]
	switch {
	case !ok:
		r.records[path] = &FileRecord{}
		r.appendRoot(path)
	case rec.Removed:
		rec.Removed = false
		rec.Version++
		r.appendRoot(path)
	default:
		rec.Version++
	}
}

// MarkRemoved drops path from the root set and tombstones its record.
// Removing a path that is not live is a contract violation and is reported as
// a consistency error.
func (r *Registry) MarkRemoved(path string) error {
	rec, ok := r.records[path]
	if !ok || rec.Removed {
		return errors.UntrackedRemoval(path)
	}
	rec.Removed = true
	if i := slices.Index(r.roots, path); i >= 0 {
		r.roots = slices.Delete(r.roots, i, i+1)
	}
	return nil
}

// VersionOf returns the current version of a live path. The second result is
// false for paths that were never tracked or have been removed.
func (r *Registry) VersionOf(path string) (int, bool) {
	rec, ok := r.records[path]
	if !ok || rec.Removed {
		return 0, false
	}
	return rec.Version, true
}

// IsTombstoned reports whether path was tracked and then removed.
func (r *Registry) IsTombstoned(path string) bool {
	rec, ok := r.records[path]
	return ok && rec.Removed
}

// IsTracked reports whether path has a live record.
func (r *Registry) IsTracked(path string) bool {
	_, ok := r.VersionOf(path)
	return ok
}

// RootSet returns a copy of the ordered root set.
func (r *Registry) RootSet() []string {
	return slices.Clone(r.roots)
}

// Len returns the number of live paths.
func (r *Registry) Len() int {
	return len(r.roots)
}

func (r *Registry) appendRoot(path string) {
	if !slices.Contains(r.roots, path) {
		r.roots = append(r.roots, path)
	}
}
