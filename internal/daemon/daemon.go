// Package daemon is the host pipeline for watch mode: it decides when to run
// a cycle and guarantees that at most one runs at a time.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/incremit/internal/config"
	"git.home.luguber.info/inful/incremit/internal/errors"
	"git.home.luguber.info/inful/incremit/internal/logfields"
)

// Options configure Watch.
type Options struct {
	Config *config.Config
	Runner *Runner
	// MetricsHandler is served on Config.Metrics.ListenAddr when both are set.
	MetricsHandler http.Handler
	Logger         *slog.Logger
}

// Watch runs an initial cycle, then a cycle after every debounced change,
// until ctx is cancelled. Failed cycles are logged and do not stop the daemon.
func Watch(ctx context.Context, opts Options) error {
	if opts.Config == nil || opts.Runner == nil {
		return fmt.Errorf("daemon: config and runner are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rebuildReq := make(chan struct{}, 1)
	deb := newDebouncer(cfg.Watch.Debounce, rebuildReq)
	defer deb.stop()

	sched, err := NewScheduler(logger)
	if err != nil {
		return err
	}
	defer func() { _ = sched.Stop(context.Background()) }()

	g, gctx := errgroup.WithContext(ctx)
	// abort stops goroutines already started when setup fails.
	abort := func(err error) error {
		cancel()
		_ = g.Wait()
		return err
	}

	switch cfg.Watch.Mode {
	case config.WatchModeGit:
		if _, err := sched.ScheduleEvery("git-poll", cfg.Watch.PollInterval, func() { request(rebuildReq) }); err != nil {
			return abort(err)
		}
	default:
		sw, err := newSourceWatcher(cfg.Project.SourceDir, cfg.Project.CacheDir, deb.trigger, logger)
		if err != nil {
			return abort(err)
		}
		g.Go(func() error { return sw.run(gctx) })
		if _, err := sched.ScheduleEvery("rescan", cfg.Watch.RescanInterval, func() { request(rebuildReq) }); err != nil {
			return abort(err)
		}
	}

	if opts.MetricsHandler != nil && cfg.Metrics.ListenAddr != "" {
		g.Go(func() error { return serveMetrics(gctx, cfg.Metrics.ListenAddr, opts.MetricsHandler, logger) })
	}

	sched.Start(gctx)

	g.Go(func() error {
		runWorker(gctx, opts.Runner, rebuildReq, logger)
		return nil
	})

	logger.Info("Watching for changes",
		slog.String("mode", string(cfg.Watch.Mode)),
		slog.String("source_dir", cfg.Project.SourceDir))
	request(rebuildReq)

	return g.Wait()
}

// runWorker runs one cycle per request. Requests arriving while a cycle runs
// collapse into a single follow-up cycle.
func runWorker(ctx context.Context, runner *Runner, requests <-chan struct{}, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-requests:
			report, err := runner.RunCycle(ctx)
			switch {
			case err != nil && errors.IsCategory(err, errors.CategoryAnalysis):
				// Diagnostics were already logged by the orchestrator.
			case err != nil:
				logger.Error("Rebuild cycle aborted", logfields.Error(err))
			case report != nil:
				logger.Info("Outputs up to date", logfields.CycleID(report.ID))
			}
		}
	}
}
