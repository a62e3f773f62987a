// Package metrics provides rebuild-cycle metrics for the orchestrator.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection never needs nil checks:
//
//	orch := orchestrator.New(reg, svc, store, mapping,
//	    orchestrator.WithRecorder(metrics.NewPrometheusRecorder(promReg)))
//
// The daemon exposes the Prometheus registry through HTTPHandler when
// metrics.listen_addr is configured.
package metrics
