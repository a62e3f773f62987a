package orchestrator

// Diff is the host's report of what changed since the previous cycle. Paths
// are project-relative and already filtered to recognized source files.
type Diff struct {
	Changed []string `json:"changed"`
	Removed []string `json:"removed"`
}

// IsEmpty reports whether the diff names no paths.
func (d Diff) IsEmpty() bool {
	return len(d.Changed) == 0 && len(d.Removed) == 0
}

// Normalize drops empty and duplicate entries (first occurrence wins) and any
// changed path that the same diff also removes.
func (d Diff) Normalize() Diff {
	removed := dedupe(d.Removed)
	gone := make(map[string]struct{}, len(removed))
	for _, p := range removed {
		gone[p] = struct{}{}
	}
	var changed []string
	for _, p := range dedupe(d.Changed) {
		if _, ok := gone[p]; !ok {
			changed = append(changed, p)
		}
	}
	return Diff{Changed: changed, Removed: removed}
}

func dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	var out []string
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
