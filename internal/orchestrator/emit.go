package orchestrator

import (
	"context"
	"log/slog"
	"slices"

	"git.home.luguber.info/inful/incremit/internal/analysis"
	"git.home.luguber.info/inful/incremit/internal/errors"
	"git.home.luguber.info/inful/incremit/internal/logfields"
	"git.home.luguber.info/inful/incremit/internal/observability"
)

// fullBuild emits the whole root set in one pass. Whatever the service
// emitted is written even when it also reported errors; the errors still fail
// the cycle.
func (o *Orchestrator) fullBuild(ctx context.Context, report *CycleReport) error {
	roots := o.registry.RootSet()
	observability.InfoContext(ctx, o.logger, "Running full build", slog.Int("roots", len(roots)))

	res, err := o.service.EmitProject(ctx)
	if err != nil {
		return errors.AnalysisServiceFailed("emit_project", err)
	}
	if err := o.writeArtifacts(ctx, res.Artifacts, report); err != nil {
		return err
	}

	o.logDiagnostics(ctx, res.Diagnostics)
	report.Diagnostics = append(report.Diagnostics, res.Diagnostics...)

	errs := analysis.Errors(res.Diagnostics)
	failed := filesOf(errs)
	for _, p := range roots {
		if !slices.Contains(failed, p) {
			report.Emitted = append(report.Emitted, p)
		}
	}
	report.Failed = failed

	if len(errs) > 0 || res.Skipped {
		return errors.AnalysisFailed(len(failed), analysis.Lines(errs))
	}
	return nil
}

// emitIncremental emits each changed path on its own, in diff order. Outputs
// of paths that succeed are kept even when a later path fails.
func (o *Orchestrator) emitIncremental(ctx context.Context, changed []string, report *CycleReport) error {
	var failedDiags []analysis.Diagnostic
	for _, p := range changed {
		res, err := o.service.EmitFile(ctx, p)
		if err != nil {
			return errors.AnalysisServiceFailed("emit_file", err).WithContext("path", p)
		}

		if res.Skipped {
			diags, err := o.service.Diagnostics(ctx, p)
			if err != nil {
				return errors.AnalysisServiceFailed("diagnostics", err).WithContext("path", p)
			}
			observability.WarnContext(ctx, o.logger, "Emission skipped", logfields.Path(p), logfields.Diagnostics(len(diags)))
			o.logDiagnostics(ctx, diags)
			report.Diagnostics = append(report.Diagnostics, diags...)
			report.Failed = append(report.Failed, p)
			failedDiags = append(failedDiags, diags...)
			continue
		}

		o.logDiagnostics(ctx, res.Diagnostics)
		report.Diagnostics = append(report.Diagnostics, res.Diagnostics...)
		if err := o.writeArtifacts(ctx, res.Artifacts, report); err != nil {
			return err
		}
		report.Emitted = append(report.Emitted, p)
		observability.DebugContext(ctx, o.logger, "Emitted", logfields.Path(p), logfields.Artifacts(len(res.Artifacts)))
	}

	if len(report.Failed) > 0 {
		lines := analysis.Lines(analysis.Errors(failedDiags))
		if len(lines) == 0 {
			lines = analysis.Lines(failedDiags)
		}
		return errors.AnalysisFailed(len(report.Failed), lines)
	}
	return nil
}

func (o *Orchestrator) writeArtifacts(ctx context.Context, artifacts []analysis.Artifact, report *CycleReport) error {
	for _, a := range artifacts {
		if err := o.store.Write(ctx, a.TargetPath, a.Content); err != nil {
			return errors.ArtifactIOFailed("write", a.TargetPath, err)
		}
		report.ArtifactsWritten++
	}
	return nil
}

// logDiagnostics writes one line per diagnostic, in order.
func (o *Orchestrator) logDiagnostics(ctx context.Context, diags []analysis.Diagnostic) {
	for _, d := range diags {
		level := slog.LevelWarn
		if d.IsError() {
			level = slog.LevelError
		}
		observability.Log(ctx, o.logger, level, d.String(), slog.String("kind", string(d.Kind)))
	}
}

// filesOf returns the distinct files named by diags, in first-seen order.
func filesOf(diags []analysis.Diagnostic) []string {
	var files []string
	for _, d := range diags {
		if d.File != "" && !slices.Contains(files, d.File) {
			files = append(files, d.File)
		}
	}
	return files
}
