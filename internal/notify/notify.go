// Package notify publishes cycle-completed events to NATS.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/incremit/internal/logfields"
	"git.home.luguber.info/inful/incremit/internal/orchestrator"
)

const publishTimeout = 5 * time.Second

// CycleEvent is the JSON body published after every cycle.
type CycleEvent struct {
	CycleID          string    `json:"cycle_id"`
	Mode             string    `json:"mode"`
	StateBefore      string    `json:"state_before"`
	StateAfter       string    `json:"state_after"`
	Succeeded        bool      `json:"succeeded"`
	Emitted          int       `json:"emitted"`
	Failed           []string  `json:"failed,omitempty"`
	ArtifactsWritten int       `json:"artifacts_written"`
	ArtifactsRemoved int       `json:"artifacts_removed"`
	Diagnostics      int       `json:"diagnostics"`
	Error            string    `json:"error,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
	DurationMS       int64     `json:"duration_ms"`
}

// NewCycleEvent summarizes report.
func NewCycleEvent(report *orchestrator.CycleReport) CycleEvent {
	return CycleEvent{
		CycleID:          report.ID,
		Mode:             report.Mode.String(),
		StateBefore:      report.StateBefore.String(),
		StateAfter:       report.StateAfter.String(),
		Succeeded:        report.Succeeded(),
		Emitted:          len(report.Emitted),
		Failed:           report.Failed,
		ArtifactsWritten: report.ArtifactsWritten,
		ArtifactsRemoved: report.ArtifactsRemoved,
		Diagnostics:      len(report.Diagnostics),
		Error:            report.Err,
		Timestamp:        report.StartedAt,
		DurationMS:       report.Duration.Milliseconds(),
	}
}

// Publisher sends one message.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Close() error
}

// Notifier publishes a CycleEvent for every completed cycle. It is an
// orchestrator.Observer.
type Notifier struct {
	pub     Publisher
	subject string
	logger  *slog.Logger
}

var _ orchestrator.Observer = (*Notifier)(nil)

// New wraps pub.
func New(pub Publisher, subject string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{pub: pub, subject: subject, logger: logger}
}

// CycleCompleted publishes report's event.
func (n *Notifier) CycleCompleted(ctx context.Context, report *orchestrator.CycleReport) error {
	data, err := json.Marshal(NewCycleEvent(report))
	if err != nil {
		return fmt.Errorf("failed to marshal cycle event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := n.pub.Publish(ctx, n.subject, data); err != nil {
		return fmt.Errorf("failed to publish cycle event: %w", err)
	}
	n.logger.Debug("Published cycle event", logfields.CycleID(report.ID), slog.String("subject", n.subject))
	return nil
}

// Close closes the publisher.
func (n *Notifier) Close() error {
	return n.pub.Close()
}

// Options configure Connect.
type Options struct {
	URL     string
	Subject string
	// Stream selects JetStream publishing; empty means core NATS.
	Stream string
	Logger *slog.Logger
}

// Connect dials NATS and returns a Notifier for opts.Subject.
func Connect(ctx context.Context, opts Options) (*Notifier, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("nats url is required")
	}
	conn, err := nats.Connect(opts.URL, nats.Name("incremit"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	pub := &natsPublisher{conn: conn}
	if opts.Stream != "" {
		js, err := jetstream.New(conn)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create JetStream context: %w", err)
		}
		if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:        opts.Stream,
			Description: "incremit rebuild cycles",
			Subjects:    []string{opts.Subject},
			MaxMsgs:     10000,
		}); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create stream %s: %w", opts.Stream, err)
		}
		pub.js = js
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("NATS notifier connected",
		slog.String("url", opts.URL),
		slog.String("subject", opts.Subject),
		slog.Bool("jetstream", pub.js != nil))
	return New(pub, opts.Subject, logger), nil
}

type natsPublisher struct {
	conn *nats.Conn
	js   jetstream.JetStream
}

func (p *natsPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if p.js != nil {
		_, err := p.js.Publish(ctx, subject, data)
		return err
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return err
	}
	return p.conn.FlushWithContext(ctx)
}

func (p *natsPublisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}
