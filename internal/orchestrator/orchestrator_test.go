package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/incremit/internal/analysis"
	"git.home.luguber.info/inful/incremit/internal/analysis/analysistest"
	ierrors "git.home.luguber.info/inful/incremit/internal/errors"
	"git.home.luguber.info/inful/incremit/internal/outputs"
	"git.home.luguber.info/inful/incremit/internal/registry"
	"git.home.luguber.info/inful/incremit/internal/storage"
)

type fixture struct {
	reg     *registry.Registry
	svc     *analysistest.Service
	store   *storage.MockStore
	mapping outputs.Mapping
	orch    *Orchestrator
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	reg := registry.New()
	mapping := outputs.DefaultMapping()
	svc := analysistest.New(analysis.NewProjectHost(reg, t.TempDir()), mapping)
	store := storage.NewMockStore()
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return &fixture{
		reg:     reg,
		svc:     svc,
		store:   store,
		mapping: mapping,
		orch:    New(reg, svc, store, mapping, opts...),
	}
}

func (f *fixture) rebuild(t *testing.T, changed, removed []string) (*CycleReport, error) {
	t.Helper()
	return f.orch.Rebuild(context.Background(), Diff{Changed: changed, Removed: removed})
}

func (f *fixture) requireOutputs(t *testing.T, source string, version int) {
	t.Helper()
	snap := f.store.Snapshot()
	require.Equal(t, analysistest.Content("generated", source, version), snap[f.mapping.Primary(source)])
	require.Equal(t, analysistest.Content("source_map", source, version), snap[f.mapping.SourceMapFor(source)])
	require.Equal(t, analysistest.Content("declaration", source, version), snap[f.mapping.DeclarationFor(source)])
}

func (f *fixture) requireNoOutputs(t *testing.T, source string) {
	t.Helper()
	snap := f.store.Snapshot()
	for _, target := range f.mapping.Outputs(source) {
		require.NotContains(t, snap, target)
	}
}

func ops(calls []analysistest.Call) []analysistest.Op {
	out := make([]analysistest.Op, 0, len(calls))
	for _, c := range calls {
		out = append(out, c.Op)
	}
	return out
}

func TestFirstCycleSucceeds(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, StateInit, f.orch.State())

	report, err := f.rebuild(t, []string{"a.md"}, nil)
	require.NoError(t, err)

	assert.Equal(t, StateSteady, f.orch.State())
	assert.False(t, f.orch.RunState().PreviousRunFailed)
	assert.Equal(t, ModeFull, report.Mode)
	assert.Equal(t, StateInit, report.StateBefore)
	assert.Equal(t, StateSteady, report.StateAfter)
	assert.Equal(t, []string{"a.md"}, report.Emitted)
	assert.Equal(t, 3, report.ArtifactsWritten)
	assert.True(t, report.Succeeded())
	assert.NotEmpty(t, report.ID)
	f.requireOutputs(t, "a.md", 0)
	assert.Equal(t, []analysistest.Op{analysistest.OpEmitProject}, ops(f.svc.Calls()))
}

func TestFirstCycleWithErrorsLeavesInit(t *testing.T) {
	f := newFixture(t)
	f.svc.Fail("b.md", "broken link")

	report, err := f.rebuild(t, []string{"a.md", "b.md"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "errors were found")
	assert.True(t, ierrors.IsCategory(err, ierrors.CategoryAnalysis))
	assert.Equal(t, []string{"b.md:1:1: broken link"}, ierrors.Diagnostics(err))

	assert.Equal(t, StateDegraded, f.orch.State())
	assert.False(t, f.orch.RunState().FirstRun)
	assert.Equal(t, []string{"a.md"}, report.Emitted)
	assert.Equal(t, []string{"b.md"}, report.Failed)
	f.requireOutputs(t, "a.md", 0)
	f.requireNoOutputs(t, "b.md")
}

func TestSteadyCycleIsIncremental(t *testing.T) {
	f := newFixture(t)
	_, err := f.rebuild(t, []string{"a.md", "b.md"}, nil)
	require.NoError(t, err)
	f.svc.Reset()

	report, err := f.rebuild(t, []string{"b.md"}, nil)
	require.NoError(t, err)

	assert.Equal(t, ModeIncremental, report.Mode)
	assert.Equal(t, []analysistest.Call{{Op: analysistest.OpEmitFile, Path: "b.md"}}, f.svc.Calls())
	f.requireOutputs(t, "a.md", 0)
	f.requireOutputs(t, "b.md", 1)
	assert.Equal(t, StateSteady, f.orch.State())
}

func TestSteadyFailureDegrades(t *testing.T) {
	f := newFixture(t)
	_, err := f.rebuild(t, []string{"a.md"}, nil)
	require.NoError(t, err)

	f.svc.Fail("b.md", "missing anchor")
	report, err := f.rebuild(t, []string{"b.md"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "errors were found")

	assert.Equal(t, StateDegraded, f.orch.State())
	assert.True(t, f.orch.RunState().PreviousRunFailed)
	assert.Equal(t, []string{"b.md"}, report.Failed)
	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, 1, report.Diagnostics[0].Line)
	f.requireNoOutputs(t, "b.md")
	f.requireOutputs(t, "a.md", 0)
}

func TestIncrementalKeepsSucceededOutputs(t *testing.T) {
	f := newFixture(t)
	_, err := f.rebuild(t, []string{"a.md", "b.md"}, nil)
	require.NoError(t, err)

	f.svc.Fail("b.md", "bad frontmatter")
	report, err := f.rebuild(t, []string{"a.md", "b.md"}, nil)
	require.Error(t, err)

	assert.Equal(t, []string{"a.md"}, report.Emitted)
	f.requireOutputs(t, "a.md", 1)
	// b.md keeps what the first cycle wrote.
	f.requireOutputs(t, "b.md", 0)
}

func TestDegradedCycleForcesFullBuild(t *testing.T) {
	f := newFixture(t)
	_, err := f.rebuild(t, []string{"a.md"}, nil)
	require.NoError(t, err)
	f.svc.Fail("b.md", "boom")
	_, err = f.rebuild(t, []string{"b.md"}, nil)
	require.Error(t, err)

	f.svc.Heal("b.md")
	f.svc.Reset()
	report, err := f.rebuild(t, []string{"c.md"}, nil)
	require.NoError(t, err)

	assert.Equal(t, ModeFull, report.Mode)
	assert.Equal(t, StateDegraded, report.StateBefore)
	assert.Equal(t, StateSteady, report.StateAfter)
	assert.Equal(t, []analysistest.Op{analysistest.OpEmitProject}, ops(f.svc.Calls()))
	assert.ElementsMatch(t, []string{"a.md", "b.md", "c.md"}, report.Emitted)
	f.requireOutputs(t, "a.md", 0)
	f.requireOutputs(t, "b.md", 0)
	f.requireOutputs(t, "c.md", 0)
}

func TestDegradedRemainsOnFailedFullBuild(t *testing.T) {
	f := newFixture(t)
	f.svc.Fail("a.md", "boom")
	_, err := f.rebuild(t, []string{"a.md"}, nil)
	require.Error(t, err)

	report, err := f.rebuild(t, []string{"c.md"}, nil)
	require.Error(t, err)
	assert.Equal(t, ModeFull, report.Mode)
	assert.Equal(t, StateDegraded, f.orch.State())
}

func TestWarningsDoNotFailCycle(t *testing.T) {
	f := newFixture(t)
	f.svc.Warn("a.md", "no title")

	report, err := f.rebuild(t, []string{"a.md"}, nil)
	require.NoError(t, err)
	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, analysis.SeverityWarning, report.Diagnostics[0].Severity)
	f.requireOutputs(t, "a.md", 0)

	report, err = f.rebuild(t, []string{"a.md"}, nil)
	require.NoError(t, err)
	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, StateSteady, f.orch.State())
}

func TestFullBuildIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.svc.Fail("x.md", "boom")
	_, err := f.rebuild(t, []string{"a.md", "b.md", "x.md"}, nil)
	require.Error(t, err)
	f.svc.Heal("x.md")

	_, err = f.rebuild(t, nil, nil)
	require.NoError(t, err)
	first := f.store.Snapshot()

	// Force another full build with no intervening diff.
	f.orch.run.PreviousRunFailed = true
	report, err := f.rebuild(t, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, ModeFull, report.Mode)
	assert.Equal(t, first, f.store.Snapshot())
}

func TestRemovalDeletesOutputs(t *testing.T) {
	f := newFixture(t)
	_, err := f.rebuild(t, []string{"a.md", "b.md"}, nil)
	require.NoError(t, err)

	report, err := f.rebuild(t, nil, []string{"a.md"})
	require.NoError(t, err)

	assert.Equal(t, []string{"b.md"}, f.reg.RootSet())
	assert.True(t, f.reg.IsTombstoned("a.md"))
	assert.Equal(t, 3, report.ArtifactsRemoved)
	f.requireNoOutputs(t, "a.md")
	f.requireOutputs(t, "b.md", 0)
}

func TestRemovalOfUntrackedPathIsConsistencyError(t *testing.T) {
	f := newFixture(t)
	_, err := f.rebuild(t, []string{"a.md"}, nil)
	require.NoError(t, err)
	_, err = f.rebuild(t, nil, []string{"a.md"})
	require.NoError(t, err)

	_, err = f.rebuild(t, nil, []string{"a.md"})
	require.Error(t, err)
	assert.True(t, ierrors.IsCategory(err, ierrors.CategoryConsistency))
	assert.Equal(t, StateDegraded, f.orch.State())

	_, err = f.rebuild(t, nil, []string{"never.md"})
	require.Error(t, err)
	assert.True(t, ierrors.IsCategory(err, ierrors.CategoryConsistency))
}

func TestRemovalOfNeverBuiltSourceIsSilent(t *testing.T) {
	f := newFixture(t)
	f.svc.Fail("b.md", "boom")
	_, err := f.rebuild(t, []string{"a.md", "b.md"}, nil)
	require.Error(t, err)

	report, err := f.rebuild(t, nil, []string{"b.md"})
	require.NoError(t, err)
	assert.Zero(t, report.ArtifactsRemoved)
	assert.Zero(t, f.store.Calls().Remove)
}

func TestRemovalWithMissingSiblingIsConsistencyError(t *testing.T) {
	f := newFixture(t)
	_, err := f.rebuild(t, []string{"a.md"}, nil)
	require.NoError(t, err)
	require.NoError(t, f.store.Remove(context.Background(), f.mapping.SourceMapFor("a.md")))

	report, err := f.rebuild(t, nil, []string{"a.md"})
	require.Error(t, err)
	assert.True(t, ierrors.IsCategory(err, ierrors.CategoryConsistency))
	assert.Equal(t, 1, report.ArtifactsRemoved)
	assert.Equal(t, StateDegraded, f.orch.State())
}

type recordingStore struct {
	*storage.MockStore
	ops []string
}

func (r *recordingStore) Write(ctx context.Context, path string, data []byte) error {
	r.ops = append(r.ops, "write "+path)
	return r.MockStore.Write(ctx, path, data)
}

func (r *recordingStore) Remove(ctx context.Context, path string) error {
	r.ops = append(r.ops, "remove "+path)
	return r.MockStore.Remove(ctx, path)
}

func TestRemovalCompletesBeforeEmission(t *testing.T) {
	reg := registry.New()
	mapping := outputs.DefaultMapping()
	svc := analysistest.New(analysis.NewProjectHost(reg, t.TempDir()), mapping)
	store := &recordingStore{MockStore: storage.NewMockStore()}
	orch := New(reg, svc, store, mapping, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	_, err := orch.Rebuild(context.Background(), Diff{Changed: []string{"a.md", "b.md"}})
	require.NoError(t, err)
	store.ops = nil

	_, err = orch.Rebuild(context.Background(), Diff{Changed: []string{"b.md"}, Removed: []string{"a.md"}})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"remove a.html", "remove a.html.map", "remove a.outline.json",
		"write b.html", "write b.html.map", "write b.outline.json",
	}, store.ops)
}

func TestWriteFailureAbortsAndDegrades(t *testing.T) {
	f := newFixture(t)
	_, err := f.rebuild(t, []string{"a.md"}, nil)
	require.NoError(t, err)

	f.store.WriteErr = func(string) error { return errors.New("disk full") }
	_, err = f.rebuild(t, []string{"a.md"}, nil)
	require.Error(t, err)
	assert.True(t, ierrors.IsCategory(err, ierrors.CategoryFileSystem))
	assert.Equal(t, StateDegraded, f.orch.State())

	f.store.WriteErr = nil
	report, err := f.rebuild(t, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, ModeFull, report.Mode)
	f.requireOutputs(t, "a.md", 1)
}

func TestServiceErrorAborts(t *testing.T) {
	f := newFixture(t)
	f.svc.Err = errors.New("service crashed")

	_, err := f.rebuild(t, []string{"a.md"}, nil)
	require.Error(t, err)
	assert.True(t, ierrors.IsCategory(err, ierrors.CategoryRuntime))
	assert.Equal(t, StateDegraded, f.orch.State())
}

func TestObserversSeeEveryCycle(t *testing.T) {
	var reports []*CycleReport
	obs := ObserverFunc(func(_ context.Context, r *CycleReport) error {
		reports = append(reports, r)
		return errors.New("observer failures are ignored")
	})
	f := newFixture(t, WithObserver(obs))

	_, err := f.rebuild(t, []string{"a.md"}, nil)
	require.NoError(t, err)
	f.svc.Fail("a.md", "boom")
	_, err = f.rebuild(t, []string{"a.md"}, nil)
	require.Error(t, err)

	require.Len(t, reports, 2)
	assert.True(t, reports[0].Succeeded())
	assert.False(t, reports[1].Succeeded())
	assert.Contains(t, reports[1].Err, "errors were found")
}
