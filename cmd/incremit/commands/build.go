package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"git.home.luguber.info/inful/incremit/internal/orchestrator"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	JSON bool `help:"Print the cycle report as JSON"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	ctx := context.Background()
	p, err := newPipeline(ctx, cfg, g.Logger)
	if err != nil {
		return err
	}
	defer p.Close()

	diff, err := p.source.Next(ctx)
	if err != nil {
		return fmt.Errorf("compute source diff: %w", err)
	}
	report, err := p.orch.Rebuild(ctx, diff)
	if report != nil {
		if werr := writeReport(g.Out, report, b.JSON); werr != nil {
			return werr
		}
	}
	return err
}

func writeReport(w io.Writer, report *orchestrator.CycleReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	status := "ok"
	if report.Err != "" {
		status = "failed"
	}
	_, err := fmt.Fprintf(w, "%s %s build: %d emitted, %d failed, %d artifacts written, %d removed (%s -> %s)\n",
		status, report.Mode, len(report.Emitted), len(report.Failed),
		report.ArtifactsWritten, report.ArtifactsRemoved, report.StateBefore, report.StateAfter)
	if err != nil {
		return err
	}
	for _, d := range report.Diagnostics {
		if _, err := fmt.Fprintf(w, "  %s: %s\n", d.Severity, d.String()); err != nil {
			return err
		}
	}
	return nil
}
