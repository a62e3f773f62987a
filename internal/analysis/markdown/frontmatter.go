package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/inful/mdfp"
	"gopkg.in/yaml.v3"
)

// frontmatter is the YAML block at the top of a document, if any.
type frontmatter struct {
	raw    []byte
	fields map[string]any
	// node is the document's mapping node, used to report positions.
	node *yaml.Node
}

// splitFrontmatter separates a `---` delimited YAML block from the body. The
// returned line offset is the number of source lines that precede the body.
func splitFrontmatter(content []byte) (raw, body []byte, had bool, offset int, err error) {
	nl := "\n"
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		nl = "\r\n"
	}
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, 0, nil
	}

	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		body = rest[len(open):]
		return []byte{}, body, true, 2, nil
	}

	closing := []byte(nl + "---" + nl)
	idx := bytes.Index(rest, closing)
	if idx < 0 {
		return nil, nil, true, 0, fmt.Errorf("frontmatter is missing its closing delimiter")
	}
	raw = rest[:idx+len(nl)]
	body = rest[idx+len(closing):]
	offset = bytes.Count(content[:len(content)-len(body)], []byte("\n"))
	return raw, body, true, offset, nil
}

// parseFrontmatter decodes raw YAML into fields, keeping the node tree for
// position lookups.
func parseFrontmatter(raw []byte) (*frontmatter, error) {
	fm := &frontmatter{raw: raw, fields: map[string]any{}}
	if len(bytes.TrimSpace(raw)) == 0 {
		return fm, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return fm, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("frontmatter must be a mapping, got %s", kindName(root.Kind))
	}
	if err := root.Decode(&fm.fields); err != nil {
		return nil, err
	}
	fm.node = root
	return fm, nil
}

// value returns the node holding key's value, or nil.
func (fm *frontmatter) value(key string) *yaml.Node {
	if fm.node == nil {
		return nil
	}
	for i := 0; i+1 < len(fm.node.Content); i += 2 {
		if fm.node.Content[i].Value == key {
			return fm.node.Content[i+1]
		}
	}
	return nil
}

// fingerprint hashes the frontmatter (minus volatile keys) and body with mdfp.
func (fm *frontmatter) fingerprint(body []byte) (string, error) {
	fields := make(map[string]any, len(fm.fields))
	for k, v := range fm.fields {
		switch k {
		case mdfp.FingerprintField, "lastmod":
			continue
		}
		fields[k] = v
	}

	serialized := ""
	if len(fields) > 0 {
		out, err := yaml.Marshal(fields)
		if err != nil {
			return "", err
		}
		serialized = strings.TrimSuffix(string(out), "\n")
	}
	return mdfp.CalculateFingerprintFromParts(serialized, string(body)), nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}
