package orchestrator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStateTransitions(t *testing.T) {
	tests := []struct {
		run   RunState
		state State
		mode  Mode
	}{
		{RunState{FirstRun: true}, StateInit, ModeFull},
		{RunState{FirstRun: true, PreviousRunFailed: true}, StateInit, ModeFull},
		{RunState{}, StateSteady, ModeIncremental},
		{RunState{PreviousRunFailed: true}, StateDegraded, ModeFull},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.state, tt.run.State(), "%+v", tt.run)
		assert.Equal(t, tt.mode, tt.run.NextMode(), "%+v", tt.run)
	}
}

func TestStateText(t *testing.T) {
	for _, s := range []State{StateInit, StateSteady, StateDegraded} {
		b, err := s.MarshalText()
		require.NoError(t, err)
		var got State
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, s, got)
	}
	var s State
	assert.Error(t, s.UnmarshalText([]byte("broken")))
	assert.Equal(t, "state(9)", State(9).String())
}

func TestReportJSONUsesNames(t *testing.T) {
	b, err := json.Marshal(CycleReport{Mode: ModeIncremental, StateBefore: StateSteady, StateAfter: StateDegraded})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"mode":"incremental"`)
	assert.Contains(t, string(b), `"state_after":"degraded"`)

	var back CycleReport
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, ModeIncremental, back.Mode)
	assert.Equal(t, StateDegraded, back.StateAfter)
}
