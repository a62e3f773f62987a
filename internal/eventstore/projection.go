// Package eventstore records rebuild cycles in SQLite and projects them into
// a history summary.
package eventstore

import (
	"context"
	"slices"
	"sync"
	"time"

	"git.home.luguber.info/inful/incremit/internal/orchestrator"
)

// Summary aggregates every cycle the projection has seen.
type Summary struct {
	Cycles      int                `json:"cycles"`
	Failed      int                `json:"failed"`
	Full        int                `json:"full"`
	Incremental int                `json:"incremental"`
	LastState   orchestrator.State `json:"last_state"`
	LastCycleAt time.Time          `json:"last_cycle_at"`
	// FailureStreak counts consecutive failed cycles up to the latest one.
	FailureStreak int `json:"failure_streak"`
}

// HistoryProjection keeps an in-memory view of cycle history rebuilt from a Store.
type HistoryProjection struct {
	mu      sync.RWMutex
	store   Store
	summary Summary
	recent  []*orchestrator.CycleReport // newest first
	maxSize int
}

// NewHistoryProjection creates a projection keeping up to maxRecent reports.
func NewHistoryProjection(store Store, maxRecent int) *HistoryProjection {
	if maxRecent <= 0 {
		maxRecent = 100
	}
	return &HistoryProjection{store: store, maxSize: maxRecent}
}

// Rebuild replays every stored event.
func (p *HistoryProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.summary = Summary{}
	p.recent = nil
	for _, e := range events {
		p.applyLocked(e)
	}
	return nil
}

// Apply folds one event into the projection. Events of other types are ignored.
func (p *HistoryProjection) Apply(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyLocked(e)
}

func (p *HistoryProjection) applyLocked(e Event) {
	report, err := DecodeCycleReport(e)
	if err != nil {
		return
	}

	p.summary.Cycles++
	if report.Mode == orchestrator.ModeFull {
		p.summary.Full++
	} else {
		p.summary.Incremental++
	}
	if report.Succeeded() {
		p.summary.FailureStreak = 0
	} else {
		p.summary.Failed++
		p.summary.FailureStreak++
	}
	p.summary.LastState = report.StateAfter
	p.summary.LastCycleAt = report.StartedAt

	p.recent = slices.Insert(p.recent, 0, report)
	if len(p.recent) > p.maxSize {
		p.recent = p.recent[:p.maxSize]
	}
}

// Summary returns the aggregate counters.
func (p *HistoryProjection) Summary() Summary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.summary
}

// Recent returns up to limit reports, newest first.
func (p *HistoryProjection) Recent(limit int) []*orchestrator.CycleReport {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if limit <= 0 || limit > len(p.recent) {
		limit = len(p.recent)
	}
	return slices.Clone(p.recent[:limit])
}
