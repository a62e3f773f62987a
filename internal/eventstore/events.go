package eventstore

import (
	"encoding/json"
	"fmt"

	"git.home.luguber.info/inful/incremit/internal/orchestrator"
)

// TypeCycleCompleted is the event type recorded after every rebuild cycle.
const TypeCycleCompleted = "CycleCompleted"

// Metadata keys stored alongside a CycleCompleted event.
const (
	MetaMode    = "mode"
	MetaState   = "state"
	MetaOutcome = "outcome"
)

// NewCycleCompleted encodes report as a CycleCompleted event.
func NewCycleCompleted(report *orchestrator.CycleReport) (*BaseEvent, error) {
	payload, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("marshal cycle report %s: %w", report.ID, err)
	}
	return &BaseEvent{
		EventCycleID:   report.ID,
		EventType:      TypeCycleCompleted,
		EventTimestamp: report.StartedAt,
		EventPayload:   payload,
		EventMetadata: map[string]string{
			MetaMode:    report.Mode.String(),
			MetaState:   report.StateAfter.String(),
			MetaOutcome: outcome(report),
		},
	}, nil
}

// DecodeCycleReport decodes the payload of a CycleCompleted event.
func DecodeCycleReport(e Event) (*orchestrator.CycleReport, error) {
	if e.Type() != TypeCycleCompleted {
		return nil, fmt.Errorf("event %d is %s, not %s", e.ID(), e.Type(), TypeCycleCompleted)
	}
	var report orchestrator.CycleReport
	if err := json.Unmarshal(e.Payload(), &report); err != nil {
		return nil, fmt.Errorf("unmarshal cycle report: %w", err)
	}
	return &report, nil
}

func outcome(report *orchestrator.CycleReport) string {
	if report.Succeeded() {
		return "success"
	}
	return "failed"
}
