package commands

import (
	"context"
	"fmt"
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/incremit/internal/analysis"
	"git.home.luguber.info/inful/incremit/internal/analysis/markdown"
	"git.home.luguber.info/inful/incremit/internal/config"
	"git.home.luguber.info/inful/incremit/internal/eventstore"
	"git.home.luguber.info/inful/incremit/internal/logfields"
	"git.home.luguber.info/inful/incremit/internal/metrics"
	"git.home.luguber.info/inful/incremit/internal/notify"
	"git.home.luguber.info/inful/incremit/internal/orchestrator"
	"git.home.luguber.info/inful/incremit/internal/registry"
	"git.home.luguber.info/inful/incremit/internal/sourcediff"
	"git.home.luguber.info/inful/incremit/internal/storage"
)

// historyReplay bounds how many recent cycles the history projection keeps.
const historyReplay = 50

// pipeline is the fully wired host: diff source, orchestrator and the
// optional history and notification observers.
type pipeline struct {
	orch     *orchestrator.Orchestrator
	source   sourcediff.Source
	store    *storage.FSStore
	metrics  *prom.Registry
	history  *eventstore.History
	notifier *notify.Notifier
	logger   *slog.Logger
}

func newPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pipeline, error) {
	p := &pipeline{logger: logger}

	source, err := newSource(cfg)
	if err != nil {
		return nil, err
	}
	p.source = source

	if p.store, err = storage.NewFSStore(cfg.Project.CacheDir); err != nil {
		return nil, fmt.Errorf("open cache dir: %w", err)
	}

	p.metrics = prom.NewRegistry()
	p.metrics.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []orchestrator.Option{
		orchestrator.WithLogger(logger),
		orchestrator.WithRecorder(metrics.NewPrometheusRecorder(p.metrics)),
	}

	if cfg.History.DBPath != "" {
		if p.history, err = eventstore.OpenHistory(ctx, cfg.History.DBPath, historyReplay); err != nil {
			p.Close()
			return nil, fmt.Errorf("open history: %w", err)
		}
		opts = append(opts, orchestrator.WithObserver(p.history))
	}

	if cfg.Notify.NATSURL != "" {
		p.notifier, err = notify.Connect(ctx, notify.Options{
			URL:     cfg.Notify.NATSURL,
			Subject: cfg.Notify.Subject,
			Stream:  cfg.Notify.Stream,
			Logger:  logger,
		})
		if err != nil {
			p.Close()
			return nil, err
		}
		opts = append(opts, orchestrator.WithObserver(p.notifier))
	}

	reg := registry.New()
	svc := markdown.New(analysis.NewProjectHost(reg, cfg.Project.SourceDir), cfg.Outputs,
		markdown.WithLogger(logger),
		markdown.WithExtension(cfg.Sources.Extensions[0]))
	p.orch = orchestrator.New(reg, svc, p.store, cfg.Outputs, opts...)
	return p, nil
}

func newSource(cfg *config.Config) (sourcediff.Source, error) {
	filter := sourceFilter(cfg)
	if cfg.Watch.Mode == config.WatchModeGit {
		return sourcediff.NewGitSource(cfg.Project.SourceDir, filter)
	}
	return sourcediff.NewScanner(cfg.Project.SourceDir, cfg.Project.CacheDir, filter)
}

func sourceFilter(cfg *config.Config) sourcediff.Filter {
	return sourcediff.Filter{Extensions: cfg.Sources.Extensions, ExcludeSuffixes: cfg.Sources.ExcludeSuffixes}
}

// Close releases the store and observers. Errors are logged.
func (p *pipeline) Close() {
	if p.notifier != nil {
		if err := p.notifier.Close(); err != nil {
			p.logger.Warn("Failed to close notifier", logfields.Error(err))
		}
	}
	if p.history != nil {
		if err := p.history.Close(); err != nil {
			p.logger.Warn("Failed to close history", logfields.Error(err))
		}
	}
	if p.store != nil {
		if err := p.store.Close(); err != nil {
			p.logger.Warn("Failed to close artifact store", logfields.Error(err))
		}
	}
}
