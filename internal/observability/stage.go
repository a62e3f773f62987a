package observability

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/incremit/internal/logfields"
)

// Stage times one section of a rebuild cycle.
type Stage struct {
	ctx    context.Context
	logger *slog.Logger
	name   string
	start  time.Time
}

// StartStage records the stage on the returned context so that logs written
// inside it carry a "stage" attribute.
func StartStage(ctx context.Context, logger *slog.Logger, name string) (context.Context, *Stage) {
	ctx = WithStage(ctx, name)
	return ctx, &Stage{ctx: ctx, logger: logger, name: name, start: time.Now()}
}

// End logs the stage duration at debug level and returns it. A non-nil err
// is attached to the log line.
func (s *Stage) End(err error) time.Duration {
	d := time.Since(s.start)
	attrs := []slog.Attr{logfields.DurationMS(float64(d.Microseconds()) / 1000)}
	if err != nil {
		attrs = append(attrs, logfields.Error(err))
	}
	DebugContext(s.ctx, s.logger, "Stage finished", attrs...)
	return d
}
