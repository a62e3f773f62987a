// Package storage persists analysis artifacts under the cache directory.
package storage

import (
	"context"
	stdErrors "errors"
)

// ArtifactStore persists emitted artifacts keyed by their project-relative
// path. Paths use forward slashes; implementations map them onto their own
// layout.
type ArtifactStore interface {
	// Write stores data at path, creating parent directories as needed.
	// An existing artifact is replaced.
	Write(ctx context.Context, path string, data []byte) error

	// Read returns the artifact content.
	// Returns ErrNotFound if the artifact doesn't exist.
	Read(ctx context.Context, path string) ([]byte, error)

	// Exists checks if an artifact is present.
	Exists(ctx context.Context, path string) (bool, error)

	// Remove deletes an artifact.
	// Returns ErrNotFound if the artifact doesn't exist.
	Remove(ctx context.Context, path string) error

	// List returns every stored artifact path, sorted.
	List(ctx context.Context) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}

// ErrNotFound is returned when an artifact doesn't exist.
type ErrNotFound struct {
	Path string
}

func (e ErrNotFound) Error() string {
	return "artifact not found: " + e.Path
}

// IsNotFound returns true if the error is ErrNotFound.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return stdErrors.As(err, &nf)
}
