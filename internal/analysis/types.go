package analysis

import (
	"context"
	"fmt"
)

// Severity separates diagnostics that block emission from advisory ones.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Kind is the analysis phase that produced a diagnostic.
type Kind string

const (
	KindOptions   Kind = "options"
	KindSyntactic Kind = "syntactic"
	KindSemantic  Kind = "semantic"
)

// Diagnostic is one finding. Line and Column are 1-based; both are zero when
// the diagnostic is not tied to a position.
type Diagnostic struct {
	File     string   `json:"file,omitempty"`
	Line     int      `json:"line,omitempty"`
	Column   int      `json:"column,omitempty"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Kind     Kind     `json:"kind"`
}

// String renders "file:line:col: message", or just the message when the
// diagnostic has no file.
func (d Diagnostic) String() string {
	if d.File == "" {
		return d.Message
	}
	return fmt.Sprintf("%s:%d:%d: %s", d.File, d.Line, d.Column, d.Message)
}

// IsError reports whether the diagnostic blocks emission.
func (d Diagnostic) IsError() bool {
	return d.Severity == SeverityError
}

// Artifact is one emitted output file, addressed relative to the cache directory.
type Artifact struct {
	TargetPath string
	Content    []byte
}

// EmitResult is the outcome of emitting a single file. Diagnostics carries
// non-fatal findings that accompanied a successful emit.
type EmitResult struct {
	Skipped     bool
	Artifacts   []Artifact
	Diagnostics []Diagnostic
}

// ProjectResult is the outcome of emitting the whole root set.
type ProjectResult struct {
	Skipped     bool
	Artifacts   []Artifact
	Diagnostics []Diagnostic
}

// Service is the analysis capability.
type Service interface {
	// EmitFile emits exactly one file. Skipped is true when the file has
	// errors and nothing was produced for it.
	EmitFile(ctx context.Context, path string) (*EmitResult, error)

	// EmitProject checks and emits the entire root set in one pass.
	EmitProject(ctx context.Context) (*ProjectResult, error)

	// Diagnostics returns options, syntactic and semantic diagnostics for one
	// file, in that order.
	Diagnostics(ctx context.Context, path string) ([]Diagnostic, error)
}

// Host is what a Service reads about the project. VersionOf returns false for
// files the host does not know; a service must not cache analysis for them.
type Host interface {
	RootSet() []string
	VersionOf(path string) (int, bool)
	ReadSource(path string) ([]byte, error)
}

// Errors returns the subset of diags with error severity.
func Errors(diags []Diagnostic) []Diagnostic {
	var out []Diagnostic
	for _, d := range diags {
		if d.IsError() {
			out = append(out, d)
		}
	}
	return out
}

// Lines renders each diagnostic with String.
func Lines(diags []Diagnostic) []string {
	out := make([]string, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.String())
	}
	return out
}
