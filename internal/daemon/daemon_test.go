package daemon

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/incremit/internal/config"
	"git.home.luguber.info/inful/incremit/internal/sourcediff"
)

func TestWatchRequiresRunner(t *testing.T) {
	err := Watch(t.Context(), Options{Config: config.Default()})
	require.Error(t, err)
}

func TestWatchSetupFailureStopsStartedWork(t *testing.T) {
	tests := []struct {
		name string
		mode config.WatchMode
	}{
		{"fs watcher started before rescan job fails", config.WatchModeFS},
		{"git poll job fails", config.WatchModeGit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			cfg := config.Default()
			cfg.Project.SourceDir = root
			cfg.Project.CacheDir = filepath.Join(root, ".incremit")
			cfg.Watch.Mode = tt.mode
			cfg.Watch.RescanInterval = 0
			cfg.Watch.PollInterval = 0

			scanner, err := sourcediff.NewScanner(root, cfg.Project.CacheDir, sourcediff.Filter{Extensions: []string{".md"}})
			require.NoError(t, err)
			orch, _ := newTestOrchestrator(t)
			runner := NewRunner(scanner, orch, discardLogger())

			before := runtime.NumGoroutine()
			done := make(chan error, 1)
			go func() {
				done <- Watch(t.Context(), Options{Config: cfg, Runner: runner, Logger: discardLogger()})
			}()
			select {
			case err := <-done:
				require.ErrorContains(t, err, "must be positive")
			case <-time.After(3 * time.Second):
				t.Fatal("watch did not return after setup failure")
			}
			assert.Eventually(t, func() bool {
				return runtime.NumGoroutine() <= before
			}, 3*time.Second, 20*time.Millisecond)
			assert.Zero(t, runner.Cycles())
		})
	}
}

func TestWatchRebuildsOnChange(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.md"), []byte("# A\n"), 0o600))

	cfg := config.Default()
	cfg.Project.SourceDir = root
	cfg.Project.CacheDir = filepath.Join(root, ".incremit")
	cfg.Watch.Debounce = 20 * time.Millisecond
	cfg.Watch.RescanInterval = time.Hour

	scanner, err := sourcediff.NewScanner(root, cfg.Project.CacheDir, sourcediff.Filter{Extensions: []string{".md"}})
	require.NoError(t, err)
	orch, store := newTestOrchestrator(t)
	runner := NewRunner(scanner, orch, discardLogger())

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, Options{Config: cfg, Runner: runner, Logger: discardLogger()})
	}()

	require.Eventually(t, func() bool {
		_, ok := store.Snapshot()["a.html"]
		return ok
	}, 3*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "b.md"), []byte("# B\n"), 0o600))
	require.Eventually(t, func() bool {
		_, ok := store.Snapshot()["b.html"]
		return ok
	}, 3*time.Second, 20*time.Millisecond)

	require.NoError(t, os.Remove(filepath.Join(root, "a.md")))
	require.Eventually(t, func() bool {
		_, ok := store.Snapshot()["a.html"]
		return !ok
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not stop")
	}
	assert.GreaterOrEqual(t, runner.Cycles(), 3)
}
