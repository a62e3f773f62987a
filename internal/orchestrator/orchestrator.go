package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/incremit/internal/analysis"
	"git.home.luguber.info/inful/incremit/internal/errors"
	"git.home.luguber.info/inful/incremit/internal/logfields"
	"git.home.luguber.info/inful/incremit/internal/metrics"
	"git.home.luguber.info/inful/incremit/internal/observability"
	"git.home.luguber.info/inful/incremit/internal/outputs"
	"git.home.luguber.info/inful/incremit/internal/registry"
	"git.home.luguber.info/inful/incremit/internal/storage"
)

// Orchestrator owns the run state and drives one rebuild cycle per Rebuild call.
type Orchestrator struct {
	registry  *registry.Registry
	service   analysis.Service
	store     storage.ArtifactStore
	mapping   outputs.Mapping
	run       RunState
	logger    *slog.Logger
	recorder  metrics.Recorder
	observers []Observer
	now       func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithObserver adds an observer notified after every cycle.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// WithClock replaces time.Now for cycle timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// New creates an orchestrator in the INIT state. reg must be the registry the
// analysis service's host reads from.
func New(reg *registry.Registry, svc analysis.Service, store storage.ArtifactStore, mapping outputs.Mapping, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry: reg,
		service:  svc,
		store:    store,
		mapping:  mapping,
		run:      RunState{FirstRun: true},
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.recorder.SetState(o.run.State().String())
	return o
}

// State returns the current recovery state.
func (o *Orchestrator) State() State {
	return o.run.State()
}

// IsTracked reports whether path is live in the registry.
func (o *Orchestrator) IsTracked(path string) bool {
	return o.registry.IsTracked(path)
}

// RunState returns a copy of the run state.
func (o *Orchestrator) RunState() RunState {
	return o.run
}

// Rebuild applies diff to the registry and performs the emission work the
// current state calls for. A returned error means the cycle failed and
// downstream stages should not consume the cache directory; the report is
// returned either way.
func (o *Orchestrator) Rebuild(ctx context.Context, diff Diff) (*CycleReport, error) {
	diff = diff.Normalize()
	start := o.now()
	report := &CycleReport{
		ID:          uuid.NewString(),
		Mode:        o.run.NextMode(),
		StateBefore: o.run.State(),
		Changed:     diff.Changed,
		Removed:     diff.Removed,
		StartedAt:   start,
	}
	ctx = observability.WithCycleID(ctx, report.ID)
	ctx = observability.WithMode(ctx, report.Mode.String())

	observability.InfoContext(ctx, o.logger, "Starting rebuild cycle",
		logfields.State(report.StateBefore.String()),
		logfields.Changed(len(diff.Changed)),
		logfields.Removed(len(diff.Removed)))

	err := o.runCycle(ctx, diff, report)

	report.StateAfter = o.run.State()
	report.Duration = o.now().Sub(start)
	if err != nil {
		report.Err = err.Error()
	}
	o.finish(ctx, report, err)
	return report, err
}

func (o *Orchestrator) runCycle(ctx context.Context, diff Diff, report *CycleReport) error {
	applyCtx, stage := observability.StartStage(ctx, o.logger, "apply_diff")
	err := o.applyDiff(applyCtx, diff, report)
	stage.End(err)
	if err != nil {
		o.run.PreviousRunFailed = true
		return err
	}

	emitCtx, stage := observability.StartStage(ctx, o.logger, "emit")
	if report.Mode == ModeFull {
		err = o.fullBuild(emitCtx, report)
		o.run.FirstRun = false
	} else {
		err = o.emitIncremental(emitCtx, diff.Changed, report)
	}
	stage.End(err)
	o.run.PreviousRunFailed = err != nil
	return err
}

// applyDiff updates the registry and removes stale outputs. Every removal,
// including artifact deletion, completes before emission starts.
func (o *Orchestrator) applyDiff(ctx context.Context, diff Diff, report *CycleReport) error {
	for _, p := range diff.Changed {
		o.registry.MarkChanged(p)
		if o.logger.Enabled(ctx, slog.LevelDebug) {
			v, _ := o.registry.VersionOf(p)
			observability.DebugContext(ctx, o.logger, "Source changed", logfields.Path(p), logfields.Version(v))
		}
	}
	for _, p := range diff.Removed {
		if err := o.registry.MarkRemoved(p); err != nil {
			observability.ErrorContext(ctx, o.logger, "Removal of untracked source", logfields.Path(p))
			return err
		}
		n, err := o.removeStale(ctx, p)
		report.ArtifactsRemoved += n
		if err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) finish(ctx context.Context, report *CycleReport, err error) {
	mode := report.Mode.String()
	outcome := metrics.OutcomeSuccess
	switch {
	case err == nil:
	case errors.IsCategory(err, errors.CategoryAnalysis):
		outcome = metrics.OutcomeFailed
	default:
		outcome = metrics.OutcomeAborted
	}
	o.recorder.ObserveCycleDuration(mode, report.Duration)
	o.recorder.IncCycleOutcome(mode, outcome)
	o.recorder.AddFilesEmitted(mode, len(report.Emitted))
	o.recorder.AddFilesFailed(mode, len(report.Failed))
	o.recorder.AddArtifactsRemoved(report.ArtifactsRemoved)
	o.recorder.SetState(report.StateAfter.String())

	attrs := []slog.Attr{
		logfields.State(report.StateAfter.String()),
		logfields.Artifacts(report.ArtifactsWritten),
		slog.Int("emitted", len(report.Emitted)),
		slog.Int("failed", len(report.Failed)),
		logfields.DurationMS(float64(report.Duration.Microseconds()) / 1000),
	}
	if err != nil {
		observability.ErrorContext(ctx, o.logger, "Rebuild cycle failed", append(attrs, logfields.Error(err))...)
	} else {
		observability.InfoContext(ctx, o.logger, "Rebuild cycle completed", attrs...)
	}

	for _, obs := range o.observers {
		if obsErr := obs.CycleCompleted(ctx, report); obsErr != nil {
			observability.WarnContext(ctx, o.logger, "Cycle observer failed", logfields.Error(obsErr))
		}
	}
}
