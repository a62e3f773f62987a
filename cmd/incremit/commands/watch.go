package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/incremit/internal/daemon"
	"git.home.luguber.info/inful/incremit/internal/metrics"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	MetricsAddr string `name:"metrics-addr" help:"Override metrics.listen_addr"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	if w.MetricsAddr != "" {
		cfg.Metrics.ListenAddr = w.MetricsAddr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p, err := newPipeline(ctx, cfg, g.Logger)
	if err != nil {
		return err
	}
	defer p.Close()

	err = daemon.Watch(ctx, daemon.Options{
		Config:         cfg,
		Runner:         daemon.NewRunner(p.source, p.orch, g.Logger),
		MetricsHandler: metrics.HTTPHandler(p.metrics),
		Logger:         g.Logger,
	})
	g.Logger.Info("Watch stopped")
	return err
}
