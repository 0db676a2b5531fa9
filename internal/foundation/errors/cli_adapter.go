package errors

import (
	"fmt"
	"log/slog"
)

// CLIErrorAdapter handles error presentation and exit code determination for
// the webforge command line.
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

	if classified, ok := AsClassified(err); ok {
		return exitCodeFromClassified(classified)
	}

	// Fallback for unclassified errors
	return 1
}

// exitCodeFromClassified maps ClassifiedError categories to exit codes.
func exitCodeFromClassified(err *ClassifiedError) int {
	switch err.Category() {
	case CategoryValidation:
		return 2 // Invalid usage
	case CategoryConfig, CategoryPrecache:
		return 7 // Configuration error
	case CategoryStage, CategoryBundle, CategoryWorker, CategoryFileSystem:
		return 11 // Build error
	case CategoryHistory, CategoryNotify:
		return 12 // Auxiliary subsystem error
	case CategoryProtocol, CategoryInternal:
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

	classified, ok := AsClassified(err)
	if !ok {
		return fmt.Sprintf("Error: %v", err)
	}

	if a.verbose {
		return classified.Error()
	}

	msg := fmt.Sprintf("Error (%s): %s", classified.Category(), classified.Message())
	if branch, ok := classified.Context()["branch"]; ok {
		msg = fmt.Sprintf("Error (%s, %v branch): %s", classified.Category(), branch, classified.Message())
	}
	return msg
}

// ReportError logs an error with its structured context.
func (a *CLIErrorAdapter) ReportError(err error) {
	if err == nil {
		return
	}
	if classified, ok := AsClassified(err); ok {
		attrs := []any{"category", string(classified.Category()), "severity", string(classified.Severity())}
		for k, v := range classified.Context() {
			attrs = append(attrs, k, v)
		}
		attrs = append(attrs, "error", classified.Message())
		if cause := classified.Cause(); cause != nil {
			attrs = append(attrs, "cause", cause.Error())
		}
		a.logger.Error("Command failed", attrs...)
		return
	}
	a.logger.Error("Command failed", "error", err)
}
