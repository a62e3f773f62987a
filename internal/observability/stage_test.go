package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/incremit/internal/logfields"
)

func TestStageLogsWithContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx := WithCycleID(t.Context(), "cycle-1")
	stageCtx, stage := StartStage(ctx, logger, "apply_diff")
	assert.Equal(t, "apply_diff", GetContext(stageCtx).Stage)
	assert.Empty(t, GetContext(ctx).Stage)

	d := stage.End(errors.New("boom"))
	assert.GreaterOrEqual(t, d.Nanoseconds(), int64(0))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Stage finished", entry["msg"])
	assert.Equal(t, "cycle-1", entry["cycle_id"])
	assert.Equal(t, "apply_diff", entry["stage"])
	assert.Equal(t, "boom", entry[logfields.KeyError])
	assert.Contains(t, entry, logfields.KeyDurationMS)
}

func TestStageOmitsErrorOnSuccess(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, stage := StartStage(t.Context(), logger, "emit")
	stage.End(nil)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.NotContains(t, entry, logfields.KeyError)
	assert.IsType(t, float64(0), entry[logfields.KeyDurationMS])
}

func TestStageQuietAboveDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	_, stage := StartStage(t.Context(), logger, "emit")
	stage.End(nil)
	assert.Empty(t, buf.String())
}
