package errors

import "fmt"

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *IncremitError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigInvalid(path string, cause error) *IncremitError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "configuration invalid").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *IncremitError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Rebuild cycle errors

// AnalysisFailed reports a cycle in which the analysis service found errors.
// The message always contains "errors were found"; hosts match on it.
func AnalysisFailed(failedFiles int, diagnostics []string) *IncremitError {
	msg := "errors were found"
	if failedFiles > 0 {
		msg = fmt.Sprintf("errors were found in %d file(s)", failedFiles)
	}
	return New(CategoryAnalysis, SeverityError, msg).
		WithContext("failed_files", failedFiles).
		WithContext("diagnostics", diagnostics)
}

// MissingArtifact reports an artifact that should exist alongside its primary but does not.
func MissingArtifact(source, artifact string) *IncremitError {
	return New(CategoryConsistency, SeverityFatal, "expected output artifact is missing").
		WithContext("source", source).
		WithContext("artifact", artifact)
}

// UntrackedRemoval reports a removal for a path the registry never tracked (or already removed).
func UntrackedRemoval(path string) *IncremitError {
	return New(CategoryConsistency, SeverityFatal, "removal requested for untracked path").
		WithContext("path", path)
}

func ArtifactIOFailed(operation, path string, cause error) *IncremitError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "artifact operation failed").
		WithContext("operation", operation).
		WithContext("path", path)
}

func AnalysisServiceFailed(operation string, cause error) *IncremitError {
	return Wrap(cause, CategoryRuntime, SeverityFatal, "analysis service call failed").
		WithContext("operation", operation)
}

// Internal errors

func InternalError(message string, cause error) *IncremitError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}

// Diagnostics returns the diagnostic lines carried by an analysis error, if any.
func Diagnostics(err error) []string {
	ie, ok := As(err)
	if !ok || ie.Context == nil {
		return nil
	}
	lines, _ := ie.Context["diagnostics"].([]string)
	return lines
}
