package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// FSStore is a filesystem-based implementation of ArtifactStore. Artifacts
// mirror their project-relative path below the base directory:
//
//	<cache_dir>/
//	  guide/
//	    intro.html
//	    intro.html.map
//	    intro.outline.json
type FSStore struct {
	basePath string
}

// NewFSStore creates the base directory if needed and returns a store rooted there.
func NewFSStore(basePath string) (*FSStore, error) {
	if basePath == "" {
		return nil, fmt.Errorf("cache directory is required")
	}
	if err := os.MkdirAll(basePath, 0750); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", basePath, err)
	}
	return &FSStore{basePath: basePath}, nil
}

// Write stores data at path, creating parent directories.
func (s *FSStore) Write(_ context.Context, p string, data []byte) error {
	full, err := s.resolve(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0750); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}
	// #nosec G306 - artifacts are build outputs meant to be served/read by other tools
	if err := os.WriteFile(full, data, 0644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}

// Read returns the artifact content.
func (s *FSStore) Read(_ context.Context, p string) ([]byte, error) {
	full, err := s.resolve(p)
	if err != nil {
		return nil, err
	}
	// #nosec G304 - full is confined to basePath by resolve
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound{Path: p}
		}
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return data, nil
}

// Exists checks if an artifact is present.
func (s *FSStore) Exists(_ context.Context, p string) (bool, error) {
	full, err := s.resolve(p)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat artifact: %w", err)
	}
	return !info.IsDir(), nil
}

// Remove deletes an artifact and prunes directories it leaves empty.
func (s *FSStore) Remove(_ context.Context, p string) error {
	full, err := s.resolve(p)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound{Path: p}
		}
		return fmt.Errorf("delete artifact: %w", err)
	}
	s.pruneEmptyDirs(filepath.Dir(full))
	return nil
}

// List returns every stored artifact path, sorted.
func (s *FSStore) List(_ context.Context) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.basePath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.basePath, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk artifacts: %w", err)
	}
	slices.Sort(paths)
	return paths, nil
}

// Close releases resources.
func (s *FSStore) Close() error {
	return nil
}

// resolve maps a project-relative artifact path into the base directory,
// rejecting paths that would escape it.
func (s *FSStore) resolve(p string) (string, error) {
	clean := path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	if clean == "/" {
		return "", fmt.Errorf("invalid artifact path %q", p)
	}
	return filepath.Join(s.basePath, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// pruneEmptyDirs removes empty parents up to (not including) the base directory.
func (s *FSStore) pruneEmptyDirs(dir string) {
	base := filepath.Clean(s.basePath)
	for dir != base && strings.HasPrefix(dir, base) {
		if err := os.Remove(dir); err != nil {
			return // not empty, or already gone
		}
		dir = filepath.Dir(dir)
	}
}
