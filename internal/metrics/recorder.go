package metrics

import "time"

// OutcomeLabel enumerates cycle outcome categories for counters.
type OutcomeLabel string

const (
	OutcomeSuccess OutcomeLabel = "success"
	OutcomeFailed  OutcomeLabel = "failed"
	OutcomeAborted OutcomeLabel = "aborted"
)

// Recorder defines observability hooks for rebuild cycles. Implementations
// may forward to Prometheus or any other backend.
type Recorder interface {
	ObserveCycleDuration(mode string, d time.Duration)
	IncCycleOutcome(mode string, outcome OutcomeLabel)
	AddFilesEmitted(mode string, n int)
	AddFilesFailed(mode string, n int)
	AddArtifactsRemoved(n int)
	SetState(state string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveCycleDuration(string, time.Duration) {}
func (NoopRecorder) IncCycleOutcome(string, OutcomeLabel)       {}
func (NoopRecorder) AddFilesEmitted(string, int)                {}
func (NoopRecorder) AddFilesFailed(string, int)                 {}
func (NoopRecorder) AddArtifactsRemoved(int)                    {}
func (NoopRecorder) SetState(string)                            {}
