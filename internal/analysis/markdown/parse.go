package markdown

import (
	"bytes"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/incremit/internal/analysis"
)

// heading is an anchor target in the source.
type heading struct {
	ID   string `json:"id"`
	Line int    `json:"line"`
}

// docLink is a relative document link found in the body.
type docLink struct {
	// Target is the project-relative document path, empty for #fragment-only links.
	Target   string
	Fragment string
	Line     int
	Column   int
}

// document is the per-(path, version) analysis result. It holds only what can
// be derived from the file itself; cross-document checks run at emit time.
type document struct {
	path        string
	version     int
	title       string
	headings    []heading
	anchors     []string
	links       []docLink
	html        []byte
	fingerprint string
	// diags are options and syntactic findings, in that order.
	diags []analysis.Diagnostic
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(goldmark.WithParserOptions(parser.WithAutoHeadingID()))
}

// parseDocument runs the file-local analysis of content.
func parseDocument(md goldmark.Markdown, p string, version int, content []byte, ext string) *document {
	doc := &document{path: p, version: version}

	raw, body, _, offset, err := splitFrontmatter(content)
	if err != nil {
		doc.diags = append(doc.diags, syntaxError(p, 1, 1, err.Error()))
		return doc
	}
	fm, err := parseFrontmatter(raw)
	if err != nil {
		doc.diags = append(doc.diags, syntaxError(p, yamlErrorLine(err), 1, "invalid frontmatter: "+err.Error()))
		return doc
	}
	if v := fm.value("title"); v != nil {
		if v.Kind != yaml.ScalarNode || v.Tag != "!!str" {
			doc.diags = append(doc.diags, syntaxError(p, v.Line+1, v.Column, "frontmatter title must be a string"))
			return doc
		}
		doc.title = v.Value
	}

	root := md.Parser().Parse(text.NewReader(body))
	lines := newLineIndex(body, offset)
	doc.headings, doc.links = collect(root, body, p, lines, ext)
	if doc.title == "" && len(doc.headings) > 0 {
		doc.title = headingText(root, body)
	}

	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, body, root); err != nil {
		doc.diags = append(doc.diags, syntaxError(p, 1, 1, "render failed: "+err.Error()))
		return doc
	}
	doc.html = buf.Bytes()
	doc.anchors = exportedAnchors(doc.html)

	doc.fingerprint, err = fm.fingerprint(body)
	if err != nil {
		doc.diags = append(doc.diags, syntaxError(p, 1, 1, "fingerprint failed: "+err.Error()))
	}
	return doc
}

// hasErrors reports whether any file-local diagnostic blocks emission.
func (d *document) hasErrors() bool {
	return len(analysis.Errors(d.diags)) > 0
}

func (d *document) exports(anchor string) bool {
	for _, a := range d.anchors {
		if a == anchor {
			return true
		}
	}
	return false
}

func collect(root gmast.Node, body []byte, p string, lines lineIndex, ext string) ([]heading, []docLink) {
	var headings []heading
	var links []docLink
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Heading:
			id, ok := node.AttributeString("id")
			if !ok {
				break
			}
			line := 0
			if node.Lines().Len() > 0 {
				line, _ = lines.position(node.Lines().At(0).Start)
			}
			headings = append(headings, heading{ID: attrString(id), Line: line})
		case *gmast.Link:
			target, fragment, ok := resolveLink(p, string(node.Destination), ext)
			if !ok {
				break
			}
			line, col := lines.position(inlineOffset(node))
			links = append(links, docLink{Target: target, Fragment: fragment, Line: line, Column: col})
		}
		return gmast.WalkContinue, nil
	})
	return headings, links
}

// resolveLink turns a link destination into a project-relative document path
// and fragment. External links, absolute paths, and non-Markdown targets are
// not document links.
func resolveLink(from, dest, ext string) (target, fragment string, ok bool) {
	u, err := url.Parse(dest)
	if err != nil || u.Scheme != "" || u.Host != "" || strings.HasPrefix(u.Path, "/") {
		return "", "", false
	}
	if u.Path == "" {
		if u.Fragment == "" {
			return "", "", false
		}
		return "", u.Fragment, true
	}
	if path.Ext(u.Path) != ext {
		return "", "", false
	}
	return path.Join(path.Dir(from), u.Path), u.Fragment, true
}

// inlineOffset is the body offset of an inline node's first text segment, or
// of its enclosing block when it has none.
func inlineOffset(n gmast.Node) int {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*gmast.Text); ok {
			// Step back over "[" so the column points at the link itself.
			if t.Segment.Start > 0 {
				return t.Segment.Start - 1
			}
			return t.Segment.Start
		}
	}
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Type() == gmast.TypeBlock && p.Lines().Len() > 0 {
			return p.Lines().At(0).Start
		}
	}
	return 0
}

// headingText is the plain text of the first heading.
func headingText(root gmast.Node, body []byte) string {
	var out strings.Builder
	var found bool
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if found && entering {
			return gmast.WalkStop, nil
		}
		if h, ok := n.(*gmast.Heading); ok && entering {
			_ = gmast.Walk(h, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
				if t, ok := c.(*gmast.Text); ok && entering {
					out.Write(t.Segment.Value(body))
				}
				return gmast.WalkContinue, nil
			})
			found = true
			return gmast.WalkSkipChildren, nil
		}
		return gmast.WalkContinue, nil
	})
	return strings.TrimSpace(out.String())
}

// exportedAnchors lists every id attribute in rendered HTML, in document order.
func exportedAnchors(rendered []byte) []string {
	node, err := html.Parse(bytes.NewReader(rendered))
	if err != nil {
		return nil
	}
	var anchors []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key == "id" && a.Val != "" {
					anchors = append(anchors, a.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	return anchors
}

func attrString(v any) string {
	switch s := v.(type) {
	case []byte:
		return string(s)
	case string:
		return s
	default:
		return fmt.Sprint(v)
	}
}

// yamlErrorLine pulls the first "line N" out of a yaml.v3 error and maps it to
// a source line (the frontmatter starts on line 2).
func yamlErrorLine(err error) int {
	msg := err.Error()
	i := strings.Index(msg, "line ")
	if i < 0 {
		return 1
	}
	n := 0
	for _, r := range msg[i+len("line "):] {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	if n == 0 {
		return 1
	}
	return n + 1
}

func syntaxError(file string, line, col int, msg string) analysis.Diagnostic {
	return analysis.Diagnostic{
		File: file, Line: line, Column: col, Message: msg,
		Severity: analysis.SeverityError, Kind: analysis.KindSyntactic,
	}
}

// lineIndex converts body offsets to 1-based source positions.
type lineIndex struct {
	starts []int
	offset int
}

func newLineIndex(body []byte, offset int) lineIndex {
	starts := []int{0}
	for i, b := range body {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return lineIndex{starts: starts, offset: offset}
}

func (l lineIndex) position(off int) (line, col int) {
	i := len(l.starts) - 1
	for i > 0 && l.starts[i] > off {
		i--
	}
	return i + 1 + l.offset, off - l.starts[i] + 1
}
