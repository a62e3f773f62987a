package errors

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI applications.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if ie, ok := As(err); ok {
		return a.exitCodeFromCategory(ie)
	}

	return 1
}

// exitCodeFromCategory maps IncremitError to exit codes.
func (a *CLIErrorAdapter) exitCodeFromCategory(err *IncremitError) int {
	switch err.Category {
	case CategoryValidation:
		return 2 // Invalid usage
	case CategoryAnalysis:
		return 3 // Source errors
	case CategoryConsistency:
		return 4 // Registry and cache diverged
	case CategoryConfig:
		return 7 // Configuration error
	case CategoryFileSystem:
		return 11 // Artifact IO error
	case CategoryRuntime:
		return 12 // Runtime error
	case CategoryInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if ie, ok := As(err); ok {
		return a.formatClassified(ie)
	}

	return fmt.Sprintf("Error: %v", err)
}

// formatClassified formats an IncremitError for display.
func (a *CLIErrorAdapter) formatClassified(err *IncremitError) string {
	if a.verbose {
		return err.Error()
	}

	switch err.Category {
	case CategoryConfig, CategoryValidation:
		return err.Message
	default:
		return fmt.Sprintf("%s: %s", err.Category, err.Message)
	}
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.shouldLog(err) {
		a.logError(err)
	}

	fmt.Fprintf(os.Stderr, "%s\n", message)
	os.Exit(exitCode)
}

// shouldLog determines if an error should be logged.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}

	if ie, ok := As(err); ok {
		// Analysis diagnostics were already logged line by line by the orchestrator.
		if ie.Category == CategoryAnalysis {
			return false
		}
		return ie.Category == CategoryInternal ||
			ie.Category == CategoryRuntime ||
			ie.Severity == SeverityFatal
	}

	return true
}

// logError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) logError(err error) {
	if ie, ok := As(err); ok {
		level := a.slogLevelFromSeverity(ie.Severity)
		attrs := []slog.Attr{
			slog.String("category", string(ie.Category)),
		}
		for k, v := range ie.Context {
			attrs = append(attrs, slog.Any(k, v))
		}
		if ie.Cause != nil {
			attrs = append(attrs, slog.String("cause", ie.Cause.Error()))
		}

		a.logger.LogAttrs(context.Background(), level, ie.Message, attrs...)
		return
	}

	a.logger.Error("Unclassified error", "error", err)
}

// slogLevelFromSeverity converts IncremitError severity to slog level.
func (a *CLIErrorAdapter) slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
