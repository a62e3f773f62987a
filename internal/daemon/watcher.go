package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/incremit/internal/logfields"
)

// sourceWatcher turns filesystem events under the source directory into
// debounced rebuild requests.
type sourceWatcher struct {
	watcher  *fsnotify.Watcher
	root     string
	cacheDir string
	trigger  func()
	logger   *slog.Logger
}

func newSourceWatcher(root, cacheDir string, trigger func(), logger *slog.Logger) (*sourceWatcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve source dir: %w", err)
	}
	if st, statErr := os.Stat(absRoot); statErr != nil || !st.IsDir() {
		return nil, fmt.Errorf("source dir not found or not a directory: %s", absRoot)
	}
	absCache, err := filepath.Abs(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("resolve cache dir: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	sw := &sourceWatcher{watcher: w, root: absRoot, cacheDir: absCache, trigger: trigger, logger: logger}
	if err := sw.addDirsRecursive(absRoot); err != nil {
		_ = w.Close()
		return nil, err
	}
	return sw, nil
}

// run forwards events until ctx is done or the watcher closes.
func (sw *sourceWatcher) run(ctx context.Context) error {
	defer func() { _ = sw.watcher.Close() }()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sw.watcher.Events:
			if !ok {
				return nil
			}
			sw.handle(ev)
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return nil
			}
			sw.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (sw *sourceWatcher) handle(ev fsnotify.Event) {
	if shouldIgnoreEvent(ev.Name) || sw.inCache(ev.Name) {
		return
	}
	if ev.Op.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = sw.addDirsRecursive(ev.Name)
		}
	}
	sw.logger.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	sw.trigger()
}

func (sw *sourceWatcher) inCache(p string) bool {
	return p == sw.cacheDir || strings.HasPrefix(p, sw.cacheDir+string(filepath.Separator))
}

func (sw *sourceWatcher) addDirsRecursive(root string) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if p != sw.root && (strings.HasPrefix(d.Name(), ".") || sw.inCache(p)) {
			return filepath.SkipDir
		}
		if err := sw.watcher.Add(p); err != nil {
			sw.logger.Warn("Watch add failed", logfields.Path(p), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnoreEvent filters hidden files and editor droppings.
func shouldIgnoreEvent(p string) bool {
	base := filepath.Base(p)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "Thumbs.db", base == "4913":
		return true
	}
	return false
}
