package sourcediff

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"git.home.luguber.info/inful/incremit/internal/orchestrator"
)

// Scanner diffs successive content snapshots of a source directory.
type Scanner struct {
	root     string
	cacheDir string
	filter   Filter
	snapshot map[string]string
}

var _ Source = (*Scanner)(nil)

// NewScanner scans root. cacheDir, when inside root, is never scanned.
func NewScanner(root, cacheDir string, filter Filter) (*Scanner, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve source dir: %w", err)
	}
	s := &Scanner{root: absRoot, filter: filter}
	if cacheDir != "" {
		if s.cacheDir, err = filepath.Abs(cacheDir); err != nil {
			return nil, fmt.Errorf("resolve cache dir: %w", err)
		}
	}
	return s, nil
}

// Next implements Source.
func (s *Scanner) Next(ctx context.Context) (orchestrator.Diff, error) {
	return s.Scan(ctx)
}

// Scan walks the source directory and returns what changed since the previous
// scan. The first scan reports every source file as changed. Both lists are
// sorted.
func (s *Scanner) Scan(ctx context.Context) (orchestrator.Diff, error) {
	current, err := s.walk(ctx)
	if err != nil {
		return orchestrator.Diff{}, err
	}

	var diff orchestrator.Diff
	for p, sum := range current {
		if prev, ok := s.snapshot[p]; !ok || prev != sum {
			diff.Changed = append(diff.Changed, p)
		}
	}
	for p := range s.snapshot {
		if _, ok := current[p]; !ok {
			diff.Removed = append(diff.Removed, p)
		}
	}
	slices.Sort(diff.Changed)
	slices.Sort(diff.Removed)
	s.snapshot = current
	return diff, nil
}

func (s *Scanner) walk(ctx context.Context) (map[string]string, error) {
	files := make(map[string]string)
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == s.root {
			return nil
		}
		if d.IsDir() {
			if p == s.cacheDir || hidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		rel = normalizePath(filepath.ToSlash(rel))
		if !s.filter.Match(rel) {
			return nil
		}
		sum, err := hashFile(p)
		if err != nil {
			return err
		}
		files[rel] = sum
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.root, err)
	}
	return files, nil
}

func hashFile(p string) (string, error) {
	f, err := os.Open(filepath.Clean(p))
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
