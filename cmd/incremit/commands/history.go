package commands

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/incremit/internal/errors"
	"git.home.luguber.info/inful/incremit/internal/eventstore"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of cycles to show" default:"20"`
	ID    string `name:"id" help:"Show the full report of one cycle"`
	JSON  bool   `help:"Print cycles as JSON"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	if cfg.History.DBPath == "" {
		return errors.ValidationFailed("history.db_path", "cycle history is disabled")
	}
	if h.Limit <= 0 {
		return errors.ValidationFailed("limit", "must be positive")
	}

	ctx := context.Background()
	hist, err := eventstore.OpenHistory(ctx, cfg.History.DBPath, h.Limit)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer func() { _ = hist.Close() }()

	if h.ID != "" {
		report, err := hist.Cycle(ctx, h.ID)
		if stdErrors.Is(err, eventstore.ErrCycleNotFound) {
			return errors.ValidationFailed("id", "no cycle recorded with id "+h.ID)
		}
		if err != nil {
			return fmt.Errorf("read history: %w", err)
		}
		return writeReport(g.Out, report, h.JSON)
	}

	reports, err := hist.Recent(ctx, h.Limit)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}

	if h.JSON {
		enc := json.NewEncoder(g.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Summary eventstore.Summary `json:"summary"`
			Cycles  any                `json:"cycles"`
		}{hist.Summary(), reports})
	}

	tw := tabwriter.NewWriter(g.Out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tCYCLE\tMODE\tSTATE\tEMITTED\tFAILED\tERROR")
	for _, r := range reports {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s -> %s\t%d\t%d\t%s\n",
			r.StartedAt.Format(time.RFC3339), r.ID, r.Mode, r.StateBefore, r.StateAfter,
			len(r.Emitted), len(r.Failed), r.Err)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	s := hist.Summary()
	_, err = fmt.Fprintf(g.Out, "\n%d cycles, %d failed (%d full, %d incremental), failure streak %d\n",
		s.Cycles, s.Failed, s.Full, s.Incremental, s.FailureStreak)
	return err
}
