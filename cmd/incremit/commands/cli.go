// Package commands implements the incremit subcommands.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/incremit/internal/config"
	"git.home.luguber.info/inful/incremit/internal/observability"
)

// Global carries state shared by every subcommand.
type Global struct {
	Logger *slog.Logger
	// Out receives command output meant for the user; logs go to stderr.
	Out io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path" default:"incremit.yaml"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Override logging.format (text|json)"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Run one full rebuild of the source directory into the cache"`
	Watch   WatchCmd   `cmd:"" help:"Watch the source directory and rebuild on change"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
	History HistoryCmd `cmd:"" help:"Show recorded rebuild cycles"`
	Diff    DiffCmd    `cmd:"" help:"Print the diff between two git revisions as a rebuild cycle would see it"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	slog.SetDefault(c.newLogger(nil))
	return nil
}

// newLogger builds the process logger. --verbose wins over the configured
// level and --log-format over the configured format.
func (c *CLI) newLogger(cfg *config.Config) *slog.Logger {
	level, format := string(config.LogLevelInfo), string(config.LogFormatText)
	if cfg != nil {
		level, format = string(cfg.Logging.Level), string(cfg.Logging.Format)
	}
	if c.Verbose {
		level = string(config.LogLevelDebug)
	}
	if c.LogFormat != "" {
		format = string(config.NormalizeLogFormat(c.LogFormat))
	}
	return observability.NewLogger(level, format, os.Stderr)
}

// loadConfig loads the configuration and re-targets logging at it.
func (c *CLI) loadConfig(g *Global) (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	g.Logger = c.newLogger(cfg)
	slog.SetDefault(g.Logger)
	return cfg, nil
}
