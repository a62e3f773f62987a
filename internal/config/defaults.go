package config

import (
	"time"

	"git.home.luguber.info/inful/incremit/internal/outputs"
)

const (
	defaultSourceDir      = "docs"
	defaultCacheDir       = ".incremit/cache"
	defaultDebounce       = 300 * time.Millisecond
	defaultRescanInterval = 5 * time.Minute
	defaultPollInterval   = 30 * time.Second
	defaultSubject        = "incremit.cycles"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	return &Config{
		Project: ProjectConfig{
			SourceDir: defaultSourceDir,
			CacheDir:  defaultCacheDir,
		},
		Sources: SourcesConfig{Extensions: []string{".md"}},
		Outputs: outputs.DefaultMapping(),
		Watch: WatchConfig{
			Mode:           WatchModeFS,
			Debounce:       defaultDebounce,
			RescanInterval: defaultRescanInterval,
			PollInterval:   defaultPollInterval,
		},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		Notify:  NotifyConfig{Subject: defaultSubject},
	}
}

// applyDefaults fills fields a config file explicitly emptied and normalizes enums.
func (c *Config) applyDefaults() {
	def := Default()
	if c.Project.SourceDir == "" {
		c.Project.SourceDir = def.Project.SourceDir
	}
	if c.Project.CacheDir == "" {
		c.Project.CacheDir = def.Project.CacheDir
	}
	if len(c.Sources.Extensions) == 0 {
		c.Sources.Extensions = def.Sources.Extensions
	}
	if c.Outputs == (outputs.Mapping{}) {
		c.Outputs = def.Outputs
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = def.Watch.Debounce
	}
	if c.Watch.RescanInterval == 0 {
		c.Watch.RescanInterval = def.Watch.RescanInterval
	}
	if c.Watch.PollInterval == 0 {
		c.Watch.PollInterval = def.Watch.PollInterval
	}
	if c.Notify.Subject == "" {
		c.Notify.Subject = def.Notify.Subject
	}
	c.Logging.Level = NormalizeLogLevel(string(c.Logging.Level))
	c.Logging.Format = NormalizeLogFormat(string(c.Logging.Format))
}
