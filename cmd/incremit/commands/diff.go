package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"git.home.luguber.info/inful/incremit/internal/sourcediff"
)

// DiffCmd implements the 'diff' command.
type DiffCmd struct {
	From string `required:"" help:"Base revision"`
	To   string `default:"HEAD" help:"Target revision"`
	JSON bool   `help:"Print the diff as JSON"`
}

func (d *DiffCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	src, err := sourcediff.NewGitSource(cfg.Project.SourceDir, sourceFilter(cfg))
	if err != nil {
		return err
	}
	diff, err := src.Diff(context.Background(), d.From, d.To)
	if err != nil {
		return err
	}

	if d.JSON {
		return json.NewEncoder(g.Out).Encode(diff)
	}
	for _, p := range diff.Changed {
		if _, err := fmt.Fprintf(g.Out, "M\t%s\n", p); err != nil {
			return err
		}
	}
	for _, p := range diff.Removed {
		if _, err := fmt.Fprintf(g.Out, "D\t%s\n", p); err != nil {
			return err
		}
	}
	return nil
}
