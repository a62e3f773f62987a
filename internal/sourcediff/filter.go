package sourcediff

import (
	"context"
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/incremit/internal/orchestrator"
)

// Source yields the diff for the next cycle.
type Source interface {
	Next(ctx context.Context) (orchestrator.Diff, error)
}

// Filter selects source files by extension, minus excluded suffixes.
// Extensions match case-sensitively: a.md and a.MD would share outputs.
type Filter struct {
	Extensions      []string
	ExcludeSuffixes []string
}

// Match reports whether rel names a source file.
func (f Filter) Match(rel string) bool {
	base := path.Base(rel)
	if strings.HasPrefix(base, ".") {
		return false
	}
	for _, suffix := range f.ExcludeSuffixes {
		if strings.HasSuffix(base, suffix) {
			return false
		}
	}
	ext := path.Ext(base)
	for _, want := range f.Extensions {
		if ext == want {
			return true
		}
	}
	return false
}

// normalizePath returns p slash separated and NFC normalized, so a file
// reported by a macOS filesystem (NFD) and by git (as committed) compare equal.
func normalizePath(p string) string {
	return norm.NFC.String(strings.ReplaceAll(p, "\\", "/"))
}

// hidden reports whether any element of rel starts with a dot.
func hidden(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}
