package orchestrator

import (
	"context"
	"time"

	"git.home.luguber.info/inful/incremit/internal/analysis"
)

// CycleReport summarizes one Rebuild call.
type CycleReport struct {
	ID               string                `json:"id"`
	Mode             Mode                  `json:"mode"`
	StateBefore      State                 `json:"state_before"`
	StateAfter       State                 `json:"state_after"`
	Changed          []string              `json:"changed,omitempty"`
	Removed          []string              `json:"removed,omitempty"`
	Emitted          []string              `json:"emitted,omitempty"`
	Failed           []string              `json:"failed,omitempty"`
	ArtifactsWritten int                   `json:"artifacts_written"`
	ArtifactsRemoved int                   `json:"artifacts_removed"`
	Diagnostics      []analysis.Diagnostic `json:"diagnostics,omitempty"`
	StartedAt        time.Time             `json:"started_at"`
	Duration         time.Duration         `json:"duration"`
	Err              string                `json:"error,omitempty"`
}

// Succeeded reports whether the cycle returned no error.
func (r *CycleReport) Succeeded() bool {
	return r.Err == ""
}

// Observer is notified after every cycle. Observer errors are logged and
// never change the cycle's outcome.
type Observer interface {
	CycleCompleted(ctx context.Context, report *CycleReport) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, report *CycleReport) error

func (f ObserverFunc) CycleCompleted(ctx context.Context, report *CycleReport) error {
	return f(ctx, report)
}
