package daemon

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"git.home.luguber.info/inful/incremit/internal/errors"
	"git.home.luguber.info/inful/incremit/internal/logfields"
	"git.home.luguber.info/inful/incremit/internal/orchestrator"
	"git.home.luguber.info/inful/incremit/internal/sourcediff"
)

// Runner pairs a diff source with an orchestrator and runs one cycle at a time.
type Runner struct {
	source sourcediff.Source
	orch   *orchestrator.Orchestrator
	logger *slog.Logger

	mu     sync.Mutex
	cycles int
	// unapplied holds removals from an aborted cycle that the registry still
	// lists as live. The source has already moved past them.
	unapplied []string
}

// NewRunner creates a runner.
func NewRunner(source sourcediff.Source, orch *orchestrator.Orchestrator, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{source: source, orch: orch, logger: logger}
}

// RunCycle computes the next diff and rebuilds. After the first cycle an
// empty diff is skipped and RunCycle returns a nil report. Concurrent calls
// are serialized.
func (r *Runner) RunCycle(ctx context.Context) (*orchestrator.CycleReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	diff, err := r.source.Next(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryRuntime, errors.SeverityError, "failed to compute source diff").
			WithRetryable(true)
	}
	diff = r.withUnapplied(diff)
	if r.cycles > 0 && diff.IsEmpty() {
		r.logger.Debug("No source changes; skipping cycle", logfields.State(r.orch.State().String()))
		return nil, nil
	}

	r.cycles++
	report, err := r.orch.Rebuild(ctx, diff)
	r.unapplied = nil
	for _, p := range diff.Removed {
		if r.orch.IsTracked(p) {
			r.unapplied = append(r.unapplied, p)
		}
	}
	if len(r.unapplied) > 0 {
		r.logger.Warn("Removals not applied; retrying next cycle", slog.Any("paths", r.unapplied))
	}
	return report, err
}

// withUnapplied carries pending removals into diff. A path the source now
// reports as changed again exists on disk and is no longer a removal.
func (r *Runner) withUnapplied(diff orchestrator.Diff) orchestrator.Diff {
	for _, p := range r.unapplied {
		if !slices.Contains(diff.Changed, p) && !slices.Contains(diff.Removed, p) {
			diff.Removed = append(diff.Removed, p)
		}
	}
	return diff
}

// Cycles returns how many cycles have run.
func (r *Runner) Cycles() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cycles
}
