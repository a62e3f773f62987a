package config

import (
	"git.home.luguber.info/inful/incremit/internal/foundation/normalization"
)

// LoggingConfig selects the slog level and handler format.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevelNormalizer = normalization.NewNormalizer("log level", map[string]LogLevel{
	"debug":   LogLevelDebug,
	"info":    LogLevelInfo,
	"warn":    LogLevelWarn,
	"warning": LogLevelWarn,
	"error":   LogLevelError,
}, LogLevelInfo)

func NormalizeLogLevel(raw string) LogLevel {
	return logLevelNormalizer.Normalize(raw)
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var logFormatNormalizer = normalization.NewNormalizer("log format", map[string]LogFormat{
	"json": LogFormatJSON,
	"text": LogFormatText,
}, LogFormatText)

func NormalizeLogFormat(raw string) LogFormat {
	return logFormatNormalizer.Normalize(raw)
}

// WatchMode selects how the daemon discovers changes.
type WatchMode string

const (
	// WatchModeFS watches the source directory and rescans on events.
	WatchModeFS WatchMode = "fs"
	// WatchModeGit polls HEAD and diffs commits.
	WatchModeGit WatchMode = "git"
)

var watchModeNormalizer = normalization.NewNormalizer("watch mode", map[string]WatchMode{
	"fs":  WatchModeFS,
	"git": WatchModeGit,
}, WatchModeFS)

// ParseWatchMode validates a watch mode string.
func ParseWatchMode(raw string) (WatchMode, error) {
	return watchModeNormalizer.Parse(raw)
}
