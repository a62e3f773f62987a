package analysis

import (
	"fmt"
	"os"
	"path/filepath"
)

// VersionSource is the read side of the registry.
type VersionSource interface {
	RootSet() []string
	VersionOf(path string) (int, bool)
}

// ProjectHost answers Host queries from a registry and reads sources from disk.
type ProjectHost struct {
	versions  VersionSource
	sourceDir string
}

// NewProjectHost returns a host rooted at sourceDir.
func NewProjectHost(versions VersionSource, sourceDir string) *ProjectHost {
	return &ProjectHost{versions: versions, sourceDir: sourceDir}
}

func (h *ProjectHost) RootSet() []string { return h.versions.RootSet() }

func (h *ProjectHost) VersionOf(path string) (int, bool) { return h.versions.VersionOf(path) }

// ReadSource reads a project-relative source file.
func (h *ProjectHost) ReadSource(path string) ([]byte, error) {
	full := filepath.Join(h.sourceDir, filepath.FromSlash(path))
	// #nosec G304 - path comes from the project's own diff
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("read source %s: %w", path, err)
	}
	return data, nil
}
