package errors

import (
	stdErrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIncremitError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *IncremitError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(CategoryConfig, SeverityFatal, "configuration invalid"),
			expected: "config (fatal): configuration invalid",
		},
		{
			name:     "error with cause",
			err:      Wrap(fmt.Errorf("file not found"), CategoryConfig, SeverityFatal, "failed to load config"),
			expected: "config (fatal): failed to load config: file not found",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := test.err.Error()
			if result != test.expected {
				t.Errorf("Error() = %q, want %q", result, test.expected)
			}
		})
	}
}

func TestIncremitError_WithContext(t *testing.T) {
	err := New(CategoryConsistency, SeverityFatal, "missing").
		WithContext("source", "docs/a.md").
		WithContext("artifact", "docs/a.html.map")

	if err.Context == nil {
		t.Fatal("Context should not be nil")
	}
	if err.Context["source"] != "docs/a.md" {
		t.Errorf("Context[source] = %v, want docs/a.md", err.Context["source"])
	}
	if err.Context["artifact"] != "docs/a.html.map" {
		t.Errorf("Context[artifact] = %v, want docs/a.html.map", err.Context["artifact"])
	}
}

func TestIsCategory(t *testing.T) {
	configErr := New(CategoryConfig, SeverityFatal, "config error")
	analysisErr := AnalysisFailed(1, nil)
	wrapped := fmt.Errorf("cycle: %w", analysisErr)
	standardErr := fmt.Errorf("standard error")

	tests := []struct {
		name     string
		err      error
		category ErrorCategory
		expected bool
	}{
		{"config error matches config category", configErr, CategoryConfig, true},
		{"config error doesn't match analysis category", configErr, CategoryAnalysis, false},
		{"analysis error matches analysis category", analysisErr, CategoryAnalysis, true},
		{"wrapped analysis error still matches", wrapped, CategoryAnalysis, true},
		{"standard error doesn't match any category", standardErr, CategoryConfig, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsCategory(test.err, test.category)
			if result != test.expected {
				t.Errorf("IsCategory() = %v, want %v", result, test.expected)
			}
		})
	}
}

func TestGetCategory(t *testing.T) {
	require.Equal(t, CategoryConsistency, GetCategory(UntrackedRemoval("a.md")))
	require.Equal(t, CategoryInternal, GetCategory(fmt.Errorf("plain")))
}

func TestAnalysisFailed_MessageAndDiagnostics(t *testing.T) {
	lines := []string{"a.md:3:5: cannot find document 'b.md'"}
	err := AnalysisFailed(1, lines)

	require.Contains(t, err.Error(), "errors were found")
	require.Equal(t, lines, Diagnostics(err))
	require.Equal(t, lines, Diagnostics(fmt.Errorf("wrapped: %w", err)))
	require.Nil(t, Diagnostics(stdErrors.New("plain")))

	bare := AnalysisFailed(0, nil)
	require.Equal(t, "errors were found", bare.Message)
}

func TestArtifactIOFailed_UnwrapsCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := ArtifactIOFailed("write", "a.html", cause)
	require.True(t, stdErrors.Is(err, cause))
	require.Equal(t, CategoryFileSystem, err.Category)
	require.Equal(t, "write", err.Context["operation"])
}

func TestCLIErrorAdapter_ExitCodes(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"nil", nil, 0},
		{"plain", fmt.Errorf("boom"), 1},
		{"validation", ValidationFailed("watch.mode", "unknown"), 2},
		{"analysis", AnalysisFailed(2, nil), 3},
		{"consistency", MissingArtifact("a.md", "a.html.map"), 4},
		{"config", ConfigNotFound("incremit.yaml"), 7},
		{"filesystem", ArtifactIOFailed("write", "a.html", fmt.Errorf("x")), 11},
		{"runtime", AnalysisServiceFailed("emit", fmt.Errorf("x")), 12},
		{"internal", InternalError("bug", nil), 10},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.code, adapter.ExitCodeFor(tc.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, nil)
	verbose := NewCLIErrorAdapter(true, nil)

	cfgErr := ConfigNotFound("incremit.yaml")
	require.Equal(t, "configuration file not found", quiet.FormatError(cfgErr))

	analysisErr := AnalysisFailed(1, nil)
	msg := quiet.FormatError(analysisErr)
	require.True(t, strings.HasPrefix(msg, "analysis: "))
	require.Contains(t, msg, "errors were found")

	require.Equal(t, analysisErr.Error(), verbose.FormatError(analysisErr))
	require.Equal(t, "Error: boom", quiet.FormatError(fmt.Errorf("boom")))
	require.Empty(t, quiet.FormatError(nil))
}

func TestIsRetryable(t *testing.T) {
	err := fmt.Errorf("scan: %w", New(CategoryRuntime, SeverityError, "transient").WithRetryable(true))
	require.True(t, IsRetryable(err))
	require.False(t, IsRetryable(ConfigNotFound("x")))
	require.False(t, IsRetryable(fmt.Errorf("plain")))
}
