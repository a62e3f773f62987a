// Package config loads and validates the incremit YAML configuration.
package config

import (
	"bytes"
	stdErrors "errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/incremit/internal/errors"
	"git.home.luguber.info/inful/incremit/internal/outputs"
)

// DefaultPath is the configuration file used when none is given.
const DefaultPath = "incremit.yaml"

// Config is the top-level configuration.
type Config struct {
	Project ProjectConfig   `yaml:"project"`
	Sources SourcesConfig   `yaml:"sources"`
	Outputs outputs.Mapping `yaml:"outputs"`
	Watch   WatchConfig     `yaml:"watch"`
	Logging LoggingConfig   `yaml:"logging"`
	Metrics MetricsConfig   `yaml:"metrics"`
	History HistoryConfig   `yaml:"history"`
	Notify  NotifyConfig    `yaml:"notify"`
}

// ProjectConfig locates the sources and the artifact cache.
type ProjectConfig struct {
	SourceDir string `yaml:"source_dir"`
	CacheDir  string `yaml:"cache_dir"`
}

// SourcesConfig selects which files under SourceDir are sources.
type SourcesConfig struct {
	Extensions []string `yaml:"extensions"`
	// ExcludeSuffixes drops declaration-only files that share an extension.
	ExcludeSuffixes []string `yaml:"exclude_suffixes,omitempty"`
}

// WatchConfig controls the watch daemon.
type WatchConfig struct {
	Mode           WatchMode     `yaml:"mode"`
	Debounce       time.Duration `yaml:"debounce"`
	RescanInterval time.Duration `yaml:"rescan_interval"`
	PollInterval   time.Duration `yaml:"poll_interval"`
}

// MetricsConfig enables the Prometheus endpoint when ListenAddr is set.
type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr,omitempty"`
}

// HistoryConfig enables the SQLite cycle history when DBPath is set.
type HistoryConfig struct {
	DBPath string `yaml:"db_path,omitempty"`
}

// NotifyConfig enables NATS cycle events when NATSURL is set.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject"`
	// Stream, when set, publishes through a JetStream stream of that name
	// (created if missing) instead of core NATS.
	Stream string `yaml:"stream,omitempty"`
}

// Load reads .env files, then the YAML file at configPath with ${VAR}
// references expanded, applies defaults and validates the result.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, errors.ConfigInvalid(".env", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.ConfigNotFound(configPath)
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.ConfigInvalid(configPath, fmt.Errorf("read config: %w", err))
	}

	cfg, err := Parse([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, errors.ConfigInvalid(configPath, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates it. Unknown keys are errors.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !stdErrors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init writes an example configuration to configPath.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	data, err := yaml.Marshal(Example())
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}
	header := "# incremit configuration\n# Values may reference environment variables as ${VAR}; .env and .env.local are loaded first.\n"
	if err := os.WriteFile(configPath, append([]byte(header), data...), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Example is the configuration written by Init.
func Example() *Config {
	cfg := Default()
	cfg.Metrics.ListenAddr = ":9464"
	cfg.History.DBPath = ".incremit/history.db"
	return cfg
}
