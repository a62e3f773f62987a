package eventstore

import (
	"context"
	"errors"
	"fmt"

	"git.home.luguber.info/inful/incremit/internal/orchestrator"
)

// History persists cycle reports and keeps a projection current. It is an
// orchestrator.Observer.
type History struct {
	store      Store
	projection *HistoryProjection
}

var _ orchestrator.Observer = (*History)(nil)

// ErrCycleNotFound is returned by Cycle when no report carries the id.
var ErrCycleNotFound = errors.New("cycle not found")

// OpenHistory opens the SQLite database at dbPath and replays it.
func OpenHistory(ctx context.Context, dbPath string, maxRecent int) (*History, error) {
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		return nil, err
	}
	h := NewHistory(store, maxRecent)
	if err := h.projection.Rebuild(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("rebuild history projection: %w", err)
	}
	return h, nil
}

// NewHistory wraps an open store. The projection starts empty.
func NewHistory(store Store, maxRecent int) *History {
	return &History{store: store, projection: NewHistoryProjection(store, maxRecent)}
}

// CycleCompleted records report.
func (h *History) CycleCompleted(ctx context.Context, report *orchestrator.CycleReport) error {
	e, err := NewCycleCompleted(report)
	if err != nil {
		return err
	}
	if err := h.store.Append(ctx, e); err != nil {
		return err
	}
	h.projection.Apply(e)
	return nil
}

// Recent returns up to limit stored reports, newest first, read from the store.
func (h *History) Recent(ctx context.Context, limit int) ([]*orchestrator.CycleReport, error) {
	events, err := h.store.Recent(ctx, TypeCycleCompleted, limit)
	if err != nil {
		return nil, err
	}
	reports := make([]*orchestrator.CycleReport, 0, len(events))
	for _, e := range events {
		r, err := DecodeCycleReport(e)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}

// Cycle returns the stored report for cycleID.
func (h *History) Cycle(ctx context.Context, cycleID string) (*orchestrator.CycleReport, error) {
	events, err := h.store.GetByCycleID(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	for _, e := range events {
		if e.Type() == TypeCycleCompleted {
			return DecodeCycleReport(e)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCycleNotFound, cycleID)
}

// Summary returns the projection's aggregate counters.
func (h *History) Summary() Summary {
	return h.projection.Summary()
}

// Close closes the underlying store.
func (h *History) Close() error {
	return h.store.Close()
}
