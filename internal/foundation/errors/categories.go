package errors

import "maps"

// ErrorCategory represents the broad category of an error for classification and routing.
type ErrorCategory string

const (
	// CategoryConfig represents user-facing configuration and input errors.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// CategoryStage represents a transform stage failing on a file.
	CategoryStage ErrorCategory = "stage"
	// CategoryProtocol represents stream protocol misuse, such as a write
	// after close on an adapter. Always fatal.
	CategoryProtocol ErrorCategory = "protocol"
	// CategoryBundle represents bundling failures on the bundled branch.
	CategoryBundle ErrorCategory = "bundle"

	// CategoryPrecache represents precache (side) configuration errors.
	CategoryPrecache ErrorCategory = "precache"
	// CategoryWorker represents offline-worker generation failures after a
	// branch stream otherwise succeeded.
	CategoryWorker ErrorCategory = "worker"

	// CategoryFileSystem represents source reading and output writing errors.
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryHistory    ErrorCategory = "history"
	CategoryNotify     ErrorCategory = "notify"
	CategoryInternal   ErrorCategory = "internal"
)

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution completely
	SeverityError   ErrorSeverity = "error"   // Fails the current operation
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// ErrorContext provides structured context for errors.
type ErrorContext map[string]any

// Set adds or updates a context value.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

// Merge combines another context into this one, returning the result.
func (c ErrorContext) Merge(other ErrorContext) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	maps.Copy(c, other)
	return c
}
