// Package outputs maps a project-relative source path to the artifact paths
// the analysis service produces for it. The mapping is a pure suffix
// transformation so stale outputs can be located without consulting the
// analysis service.
package outputs

import (
	"fmt"
	"path"
	"strings"
)

// Mapping holds the suffixes that replace a source file's extension.
type Mapping struct {
	Generated   string `yaml:"generated"`
	SourceMap   string `yaml:"source_map"`
	Declaration string `yaml:"declaration"`
}

// DefaultMapping matches the bundled Markdown analysis service.
func DefaultMapping() Mapping {
	return Mapping{
		Generated:   ".html",
		SourceMap:   ".html.map",
		Declaration: ".outline.json",
	}
}

// Validate checks that the suffixes are usable and pairwise distinct.
func (m Mapping) Validate() error {
	seen := map[string]string{}
	for name, suffix := range map[string]string{
		"generated":   m.Generated,
		"source_map":  m.SourceMap,
		"declaration": m.Declaration,
	} {
		if suffix == "" {
			return fmt.Errorf("outputs.%s: suffix must not be empty", name)
		}
		if strings.ContainsAny(suffix, "/\\") {
			return fmt.Errorf("outputs.%s: suffix %q must not contain a path separator", name, suffix)
		}
		if other, dup := seen[suffix]; dup {
			return fmt.Errorf("outputs.%s: suffix %q duplicates outputs.%s", name, suffix, other)
		}
		seen[suffix] = name
	}
	return nil
}

// Primary returns the generated-code artifact for source. Its presence decides
// whether a removed source still has outputs to clean up.
func (m Mapping) Primary(source string) string {
	return stem(source) + m.Generated
}

// SourceMapFor returns the source-map artifact for source.
func (m Mapping) SourceMapFor(source string) string {
	return stem(source) + m.SourceMap
}

// DeclarationFor returns the declaration artifact for source.
func (m Mapping) DeclarationFor(source string) string {
	return stem(source) + m.Declaration
}

// Outputs returns every artifact for source, primary first.
func (m Mapping) Outputs(source string) []string {
	return []string{m.Primary(source), m.SourceMapFor(source), m.DeclarationFor(source)}
}

func stem(source string) string {
	p := path.Clean(strings.ReplaceAll(source, "\\", "/"))
	return strings.TrimSuffix(p, path.Ext(p))
}
