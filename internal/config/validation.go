package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/incremit/internal/errors"
)

// Validate checks the configuration after defaults are applied.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Project.SourceDir) == "" {
		return errors.ValidationFailed("project.source_dir", "must not be empty")
	}
	if strings.TrimSpace(c.Project.CacheDir) == "" {
		return errors.ValidationFailed("project.cache_dir", "must not be empty")
	}
	if filepath.Clean(c.Project.SourceDir) == filepath.Clean(c.Project.CacheDir) {
		return errors.ValidationFailed("project.cache_dir", "must differ from project.source_dir")
	}

	for _, ext := range c.Sources.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return errors.ValidationFailed("sources.extensions", "extension "+ext+" must start with a dot")
		}
	}
	// Outputs replace the extension, so two extensions would map a.md and
	// a.markdown onto the same artifacts.
	if exts := slices.Compact(slices.Sorted(slices.Values(c.Sources.Extensions))); len(exts) > 1 {
		return errors.ValidationFailed("sources.extensions",
			fmt.Sprintf("only one source extension is supported, got %s", strings.Join(exts, ", ")))
	}
	for _, suffix := range c.Sources.ExcludeSuffixes {
		if suffix == "" {
			return errors.ValidationFailed("sources.exclude_suffixes", "must not contain empty entries")
		}
	}

	if err := c.Outputs.Validate(); err != nil {
		return errors.ValidationFailed("outputs", err.Error())
	}

	mode, err := ParseWatchMode(string(c.Watch.Mode))
	if err != nil {
		return errors.ValidationFailed("watch.mode", err.Error())
	}
	c.Watch.Mode = mode
	if c.Watch.Debounce < 0 {
		return errors.ValidationFailed("watch.debounce", "must not be negative")
	}
	if c.Watch.RescanInterval < 0 || c.Watch.PollInterval < 0 {
		return errors.ValidationFailed("watch", "intervals must not be negative")
	}
	return nil
}
