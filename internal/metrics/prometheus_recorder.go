package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// States lists every orchestrator state the state gauge reports on.
var States = []string{"init", "steady", "degraded"}

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	cycleDuration    *prom.HistogramVec
	cycleOutcome     *prom.CounterVec
	filesEmitted     *prom.CounterVec
	filesFailed      *prom.CounterVec
	artifactsRemoved prom.Counter
	state            *prom.GaugeVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		cycleDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "incremit",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of rebuild cycles by mode",
			Buckets:   prom.DefBuckets,
		}, []string{"mode"}),
		cycleOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "incremit",
			Name:      "cycle_outcomes_total",
			Help:      "Rebuild cycle outcomes by mode",
		}, []string{"mode", "outcome"}),
		filesEmitted: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "incremit",
			Name:      "files_emitted_total",
			Help:      "Source files emitted successfully",
		}, []string{"mode"}),
		filesFailed: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "incremit",
			Name:      "files_failed_total",
			Help:      "Source files whose emission was skipped because of errors",
		}, []string{"mode"}),
		artifactsRemoved: prom.NewCounter(prom.CounterOpts{
			Namespace: "incremit",
			Name:      "stale_artifacts_removed_total",
			Help:      "Artifacts deleted for removed sources",
		}),
		state: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "incremit",
			Name:      "orchestrator_state",
			Help:      "1 for the orchestrator's current state, 0 otherwise",
		}, []string{"state"}),
	}
	reg.MustRegister(pr.cycleDuration, pr.cycleOutcome, pr.filesEmitted, pr.filesFailed, pr.artifactsRemoved, pr.state)
	return pr
}

func (p *PrometheusRecorder) ObserveCycleDuration(mode string, d time.Duration) {
	if p == nil || p.cycleDuration == nil {
		return
	}
	p.cycleDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCycleOutcome(mode string, outcome OutcomeLabel) {
	if p == nil || p.cycleOutcome == nil {
		return
	}
	p.cycleOutcome.WithLabelValues(mode, string(outcome)).Inc()
}

func (p *PrometheusRecorder) AddFilesEmitted(mode string, n int) {
	if p == nil || p.filesEmitted == nil || n <= 0 {
		return
	}
	p.filesEmitted.WithLabelValues(mode).Add(float64(n))
}

func (p *PrometheusRecorder) AddFilesFailed(mode string, n int) {
	if p == nil || p.filesFailed == nil || n <= 0 {
		return
	}
	p.filesFailed.WithLabelValues(mode).Add(float64(n))
}

func (p *PrometheusRecorder) AddArtifactsRemoved(n int) {
	if p == nil || p.artifactsRemoved == nil || n <= 0 {
		return
	}
	p.artifactsRemoved.Add(float64(n))
}

func (p *PrometheusRecorder) SetState(state string) {
	if p == nil || p.state == nil {
		return
	}
	for _, s := range States {
		v := 0.0
		if s == state {
			v = 1
		}
		p.state.WithLabelValues(s).Set(v)
	}
}
