package analysis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/incremit/internal/registry"
)

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{File: "a.md", Line: 3, Column: 7, Message: "cannot find document 'b.md'"}
	require.Equal(t, "a.md:3:7: cannot find document 'b.md'", d.String())

	require.Equal(t, "no inputs", Diagnostic{Message: "no inputs"}.String())
}

func TestErrorsFiltersBySeverity(t *testing.T) {
	diags := []Diagnostic{
		{Message: "w", Severity: SeverityWarning},
		{Message: "e1", Severity: SeverityError},
		{Message: "e2", Severity: SeverityError},
	}
	errs := Errors(diags)
	require.Len(t, errs, 2)
	require.Equal(t, []string{"w", "e1", "e2"}, Lines(diags))
	require.Empty(t, Errors(diags[:1]))
}

func TestProjectHost(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "guide"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "guide", "a.md"), []byte("# A\n"), 0o644))

	reg := registry.New()
	reg.MarkChanged("guide/a.md")
	host := NewProjectHost(reg, dir)

	require.Equal(t, []string{"guide/a.md"}, host.RootSet())
	v, ok := host.VersionOf("guide/a.md")
	require.True(t, ok)
	require.Equal(t, 0, v)

	data, err := host.ReadSource("guide/a.md")
	require.NoError(t, err)
	require.Equal(t, "# A\n", string(data))

	_, err = host.ReadSource("missing.md")
	require.Error(t, err)
}
