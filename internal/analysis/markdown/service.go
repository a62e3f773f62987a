package markdown

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/yuin/goldmark"

	"git.home.luguber.info/inful/incremit/internal/analysis"
	"git.home.luguber.info/inful/incremit/internal/logfields"
	"git.home.luguber.info/inful/incremit/internal/outputs"
)

const defaultExtension = ".md"

// Service implements analysis.Service for Markdown sources.
type Service struct {
	host    analysis.Host
	mapping outputs.Mapping
	md      goldmark.Markdown
	ext     string
	logger  *slog.Logger

	mu    sync.Mutex
	cache map[string]*document
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for cache activity.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithExtension sets the source extension; links to other files are not
// checked. The default is ".md".
func WithExtension(ext string) Option {
	return func(s *Service) {
		if ext != "" {
			s.ext = ext
		}
	}
}

// New returns a service reading the project through host.
func New(host analysis.Host, mapping outputs.Mapping, opts ...Option) *Service {
	s := &Service{
		host:    host,
		mapping: mapping,
		md:      newMarkdown(),
		ext:     defaultExtension,
		logger:  slog.Default(),
		cache:   make(map[string]*document),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EmitFile implements analysis.Service.
func (s *Service) EmitFile(_ context.Context, p string) (*analysis.EmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roots := s.host.RootSet()
	doc, diags := s.analyze(p, roots)
	if len(analysis.Errors(diags)) > 0 {
		return &analysis.EmitResult{Skipped: true}, nil
	}
	artifacts, err := s.artifacts(doc)
	if err != nil {
		return nil, err
	}
	return &analysis.EmitResult{Artifacts: artifacts, Diagnostics: diags}, nil
}

// EmitProject implements analysis.Service.
func (s *Service) EmitProject(_ context.Context) (*analysis.ProjectResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roots := s.host.RootSet()
	res := &analysis.ProjectResult{}
	hasErrors := false
	for _, p := range roots {
		doc, diags := s.analyze(p, roots)
		res.Diagnostics = append(res.Diagnostics, diags...)
		if len(analysis.Errors(diags)) > 0 {
			hasErrors = true
			continue
		}
		artifacts, err := s.artifacts(doc)
		if err != nil {
			return nil, err
		}
		res.Artifacts = append(res.Artifacts, artifacts...)
	}
	res.Skipped = hasErrors && len(res.Artifacts) == 0
	s.prune(roots)
	return res, nil
}

// Diagnostics implements analysis.Service.
func (s *Service) Diagnostics(_ context.Context, p string) ([]analysis.Diagnostic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, diags := s.analyze(p, s.host.RootSet())
	return diags, nil
}

// analyze returns the cached document for p plus its full diagnostic list:
// options, syntactic, then semantic findings and warnings.
func (s *Service) analyze(p string, roots []string) (*document, []analysis.Diagnostic) {
	version, tracked := s.host.VersionOf(p)
	if !tracked || !slices.Contains(roots, p) {
		return nil, []analysis.Diagnostic{{
			File: p, Message: "file is not part of the project",
			Severity: analysis.SeverityError, Kind: analysis.KindOptions,
		}}
	}

	doc, err := s.load(p, version)
	if err != nil {
		return nil, []analysis.Diagnostic{{
			File: p, Message: fmt.Sprintf("cannot read source: %v", err),
			Severity: analysis.SeverityError, Kind: analysis.KindOptions,
		}}
	}

	diags := slices.Clone(doc.diags)
	if doc.hasErrors() {
		return doc, diags
	}
	return doc, append(diags, s.check(doc, roots)...)
}

// load returns the document for (p, version), parsing it when the cached
// entry is missing or older.
func (s *Service) load(p string, version int) (*document, error) {
	if doc, ok := s.cache[p]; ok && doc.version == version {
		return doc, nil
	}
	content, err := s.host.ReadSource(p)
	if err != nil {
		return nil, err
	}
	doc := parseDocument(s.md, p, version, content, s.ext)
	s.cache[p] = doc
	s.logger.Debug("Analyzed document", logfields.Path(p), logfields.Version(version))
	return doc, nil
}

// check runs the cross-document checks for doc against the current root set.
func (s *Service) check(doc *document, roots []string) []analysis.Diagnostic {
	var diags []analysis.Diagnostic
	for _, l := range doc.links {
		target := doc
		if l.Target != "" && l.Target != doc.path {
			if !slices.Contains(roots, l.Target) {
				diags = append(diags, semanticError(doc.path, l, fmt.Sprintf("link target %q is not a project document", l.Target)))
				continue
			}
			if l.Fragment == "" {
				continue
			}
			version, _ := s.host.VersionOf(l.Target)
			var err error
			target, err = s.load(l.Target, version)
			if err != nil || target.hasErrors() {
				// The target reports its own diagnostics.
				continue
			}
		}
		if l.Fragment != "" && !target.exports(l.Fragment) {
			diags = append(diags, semanticError(doc.path, l, fmt.Sprintf("anchor %q not found in %s", l.Fragment, target.path)))
		}
	}
	if doc.title == "" {
		diags = append(diags, analysis.Diagnostic{
			File: doc.path, Line: 1, Column: 1, Message: "document has no title and no heading",
			Severity: analysis.SeverityWarning, Kind: analysis.KindSemantic,
		})
	}
	return diags
}

// prune drops cached documents that left the root set.
func (s *Service) prune(roots []string) {
	for p := range s.cache {
		if !slices.Contains(roots, p) {
			delete(s.cache, p)
		}
	}
}

type sourceMap struct {
	Source   string    `json:"source"`
	Version  int       `json:"version"`
	Headings []heading `json:"headings"`
}

type outline struct {
	Source      string   `json:"source"`
	Title       string   `json:"title"`
	Anchors     []string `json:"anchors"`
	Links       []string `json:"links"`
	Fingerprint string   `json:"fingerprint"`
}

func (s *Service) artifacts(doc *document) ([]analysis.Artifact, error) {
	smap, err := json.MarshalIndent(sourceMap{
		Source:   doc.path,
		Version:  doc.version,
		Headings: orEmpty(doc.headings),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode source map for %s: %w", doc.path, err)
	}

	var links []string
	for _, l := range doc.links {
		if l.Target != "" && !slices.Contains(links, l.Target) {
			links = append(links, l.Target)
		}
	}
	decl, err := json.MarshalIndent(outline{
		Source:      doc.path,
		Title:       doc.title,
		Anchors:     orEmpty(doc.anchors),
		Links:       orEmpty(links),
		Fingerprint: doc.fingerprint,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode outline for %s: %w", doc.path, err)
	}

	return []analysis.Artifact{
		{TargetPath: s.mapping.Primary(doc.path), Content: slices.Clone(doc.html)},
		{TargetPath: s.mapping.SourceMapFor(doc.path), Content: append(smap, '\n')},
		{TargetPath: s.mapping.DeclarationFor(doc.path), Content: append(decl, '\n')},
	}, nil
}

func semanticError(file string, l docLink, msg string) analysis.Diagnostic {
	return analysis.Diagnostic{
		File: file, Line: l.Line, Column: l.Column, Message: msg,
		Severity: analysis.SeverityError, Kind: analysis.KindSemantic,
	}
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
