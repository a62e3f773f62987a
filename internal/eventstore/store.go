package eventstore

import (
	"context"
	"time"
)

// Store persists and retrieves cycle events.
type Store interface {
	Append(ctx context.Context, e Event) error

	// GetByCycleID returns every event recorded for one cycle, oldest first.
	GetByCycleID(ctx context.Context, cycleID string) ([]Event, error)

	// GetRange returns events with timestamps in [start, end], oldest first.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// Recent returns up to limit events of eventType, newest first.
	Recent(ctx context.Context, eventType string, limit int) ([]Event, error)

	Close() error
}
