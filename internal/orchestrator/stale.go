package orchestrator

import (
	"context"

	"git.home.luguber.info/inful/incremit/internal/errors"
	"git.home.luguber.info/inful/incremit/internal/logfields"
	"git.home.luguber.info/inful/incremit/internal/observability"
	"git.home.luguber.info/inful/incremit/internal/storage"
)

// removeStale deletes the outputs of a removed source. No primary artifact
// means the source was never built (or is already clean). Once the primary
// exists the whole set must: a missing sibling means the cache and the
// registry have diverged.
func (o *Orchestrator) removeStale(ctx context.Context, source string) (int, error) {
	targets := o.mapping.Outputs(source)
	exists, err := o.store.Exists(ctx, targets[0])
	if err != nil {
		return 0, errors.ArtifactIOFailed("stat", targets[0], err)
	}
	if !exists {
		observability.DebugContext(ctx, o.logger, "No outputs to remove", logfields.Path(source))
		return 0, nil
	}

	removed := 0
	for _, target := range targets {
		if err := o.store.Remove(ctx, target); err != nil {
			if storage.IsNotFound(err) {
				return removed, errors.MissingArtifact(source, target)
			}
			return removed, errors.ArtifactIOFailed("remove", target, err)
		}
		removed++
	}
	observability.InfoContext(ctx, o.logger, "Removed stale outputs", logfields.Path(source), logfields.Artifacts(removed))
	return removed, nil
}
