// Package markdown is the reference analysis service for Markdown projects.
//
// Each root-set document is parsed with goldmark (auto heading ids), rendered
// to HTML, and checked against the rest of the project: relative links must
// point at documents in the root set and #fragments must name an anchor the
// target exports. Because fragment checks read other documents, an edit to a
// heading can break files that were not part of the diff; the orchestrator's
// full rebuild after a failure is what catches those.
//
// Artifacts per source:
//
//	<stem>.html          rendered body
//	<stem>.html.map      JSON, anchor id to 1-based source line
//	<stem>.outline.json  JSON, title, anchors, document links, mdfp fingerprint
package markdown
