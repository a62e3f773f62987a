package sourcediff

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/incremit/internal/orchestrator"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
}

var mdFilter = Filter{Extensions: []string{".md"}, ExcludeSuffixes: []string{".draft.md"}}

func TestScannerFirstScanReportsEverything(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.md", "b")
	writeFile(t, dir, "guide/a.md", "a")
	writeFile(t, dir, "notes.txt", "skip")
	writeFile(t, dir, "wip.draft.md", "skip")
	writeFile(t, dir, ".hidden/x.md", "skip")
	writeFile(t, dir, ".incremit/cache/c.md", "skip")
	writeFile(t, dir, "out/d.md", "skip")

	s, err := NewScanner(dir, filepath.Join(dir, "out"), mdFilter)
	require.NoError(t, err)

	diff, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, orchestrator.Diff{Changed: []string{"b.md", "guide/a.md"}}, diff)
}

func TestScannerReportsContentChangesAndRemovals(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "a")
	writeFile(t, dir, "b.md", "b")
	writeFile(t, dir, "c.md", "c")
	s, err := NewScanner(dir, "", mdFilter)
	require.NoError(t, err)
	ctx := context.Background()
	_, err = s.Scan(ctx)
	require.NoError(t, err)

	diff, err := s.Scan(ctx)
	require.NoError(t, err)
	assert.True(t, diff.IsEmpty())

	writeFile(t, dir, "b.md", "b2")
	writeFile(t, dir, "d.md", "d")
	require.NoError(t, os.Remove(filepath.Join(dir, "c.md")))
	// Rewriting identical content is not a change.
	writeFile(t, dir, "a.md", "a")

	diff, err = s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.md", "d.md"}, diff.Changed)
	assert.Equal(t, []string{"c.md"}, diff.Removed)
}

func TestScannerNormalizesToNFC(t *testing.T) {
	dir := t.TempDir()
	// Decomposed "e" plus combining acute accent.
	writeFile(t, dir, "cafe\u0301.md", "x")
	s, err := NewScanner(dir, "", mdFilter)
	require.NoError(t, err)

	diff, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"caf\u00e9.md"}, diff.Changed)
}

func TestScannerHonorsCancellation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "a")
	s, err := NewScanner(dir, "", mdFilter)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFilterMatch(t *testing.T) {
	f := Filter{Extensions: []string{".md", ".markdown"}, ExcludeSuffixes: []string{".d.md"}}
	assert.True(t, f.Match("a.md"))
	assert.True(t, f.Match("x/y/README.md"))
	assert.False(t, f.Match("x/y/README.MD"))
	assert.True(t, f.Match("a.markdown"))
	assert.False(t, f.Match("types.d.md"))
	assert.False(t, f.Match(".a.md"))
	assert.False(t, f.Match("a.txt"))
}
