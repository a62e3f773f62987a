// Package analysistest provides a scriptable analysis.Service for tests.
package analysistest

import (
	"context"
	"fmt"
	"sync"

	"git.home.luguber.info/inful/incremit/internal/analysis"
	"git.home.luguber.info/inful/incremit/internal/outputs"
)

// Op names a recorded service call.
type Op string

const (
	OpEmitFile    Op = "emit_file"
	OpEmitProject Op = "emit_project"
	OpDiagnostics Op = "diagnostics"
)

// Call is one recorded invocation.
type Call struct {
	Op   Op
	Path string
}

// Service emits one artifact per mapped output for every file it is asked
// about. Artifact content encodes the kind, path and host version so tests
// can tell which cycle produced it. Files marked with Fail produce error
// diagnostics and no artifacts.
type Service struct {
	mu       sync.Mutex
	host     analysis.Host
	mapping  outputs.Mapping
	failures map[string][]analysis.Diagnostic
	warnings map[string][]analysis.Diagnostic
	calls    []Call

	// Err, when set, is returned from every call.
	Err error
}

// New returns a fake service reading the project through host.
func New(host analysis.Host, mapping outputs.Mapping) *Service {
	return &Service{
		host:     host,
		mapping:  mapping,
		failures: make(map[string][]analysis.Diagnostic),
		warnings: make(map[string][]analysis.Diagnostic),
	}
}

// Fail makes path report an error diagnostic at line 1, column 1.
func (s *Service) Fail(path, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = append(s.failures[path], analysis.Diagnostic{
		File: path, Line: 1, Column: 1, Message: message,
		Severity: analysis.SeverityError, Kind: analysis.KindSemantic,
	})
}

// Warn makes path report a warning that does not block emission.
func (s *Service) Warn(path, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnings[path] = append(s.warnings[path], analysis.Diagnostic{
		File: path, Line: 1, Column: 1, Message: message,
		Severity: analysis.SeverityWarning, Kind: analysis.KindSemantic,
	})
}

// Heal clears every scripted diagnostic for path.
func (s *Service) Heal(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, path)
	delete(s.warnings, path)
}

// Calls returns the recorded calls in order.
func (s *Service) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Reset forgets recorded calls.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// EmitFile implements analysis.Service.
func (s *Service) EmitFile(_ context.Context, path string) (*analysis.EmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Op: OpEmitFile, Path: path})
	if s.Err != nil {
		return nil, s.Err
	}
	if len(s.failures[path]) > 0 {
		return &analysis.EmitResult{Skipped: true}, nil
	}
	return &analysis.EmitResult{
		Artifacts:   s.artifactsFor(path),
		Diagnostics: append([]analysis.Diagnostic(nil), s.warnings[path]...),
	}, nil
}

// EmitProject implements analysis.Service.
func (s *Service) EmitProject(_ context.Context) (*analysis.ProjectResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Op: OpEmitProject})
	if s.Err != nil {
		return nil, s.Err
	}
	res := &analysis.ProjectResult{}
	hasErrors := false
	for _, path := range s.host.RootSet() {
		res.Diagnostics = append(res.Diagnostics, s.warnings[path]...)
		if fails := s.failures[path]; len(fails) > 0 {
			hasErrors = true
			res.Diagnostics = append(res.Diagnostics, fails...)
			continue
		}
		res.Artifacts = append(res.Artifacts, s.artifactsFor(path)...)
	}
	res.Skipped = hasErrors && len(res.Artifacts) == 0
	return res, nil
}

// Diagnostics implements analysis.Service.
func (s *Service) Diagnostics(_ context.Context, path string) ([]analysis.Diagnostic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Op: OpDiagnostics, Path: path})
	if s.Err != nil {
		return nil, s.Err
	}
	out := append([]analysis.Diagnostic(nil), s.failures[path]...)
	return append(out, s.warnings[path]...), nil
}

func (s *Service) artifactsFor(path string) []analysis.Artifact {
	version, _ := s.host.VersionOf(path)
	kinds := []string{"generated", "source_map", "declaration"}
	targets := s.mapping.Outputs(path)
	out := make([]analysis.Artifact, 0, len(targets))
	for i, target := range targets {
		out = append(out, analysis.Artifact{
			TargetPath: target,
			Content:    []byte(Content(kinds[i], path, version)),
		})
	}
	return out
}

// Content returns the artifact body the fake writes for kind/path/version.
func Content(kind, path string, version int) string {
	return fmt.Sprintf("%s %s@v%d", kind, path, version)
}
