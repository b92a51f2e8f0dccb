package apperrors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Application exit codes define the standard exit statuses for the application.
// These codes are used to signal the outcome of the program execution to the OS.
const (
	ExitSuccess        = 0   // Indicates successful execution.
	ExitErrorGeneric   = 1   // Indicates a generic error.
	ExitErrorTimeout   = 2   // Indicates the operation timed out.
	ExitErrorConfig    = 4   // Indicates a configuration error.
	ExitErrorIntegrity = 5   // Indicates the result set failed its integrity checks.
	ExitErrorCanceled  = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

// ConfigError represents a user configuration error, such as invalid flags,
// values or a catalog missing a required column. The batch never starts when
// one is returned.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// LookupError records the failure of a single remote lookup. It is local to
// one catalog row: the worker converts it into a "not found" flag and the
// batch carries on.
type LookupError struct {
	// Index is the catalog row the lookup was issued for.
	Index int
	// Cause is the underlying transport, service or decoding error.
	Cause error
}

// Error returns a message naming the row and the cause.
func (e LookupError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("lookup for row %d failed", e.Index)
	}
	return fmt.Sprintf("lookup for row %d failed: %v", e.Index, e.Cause)
}

// Unwrap returns the original wrapped error, allowing for error chain
// inspection (e.g., using errors.Is or errors.As).
func (e LookupError) Unwrap() error { return e.Cause }

// IntegrityError is returned when the per-row results cannot be joined back
// onto the catalog: a count mismatch, a duplicated index, a missing index or
// an index outside the catalog. It is fatal and no partial output is produced.
type IntegrityError struct {
	// Invariant names the violated property.
	Invariant string
	// Expected is the number of catalog rows.
	Expected int
	// Received is the number of result records handed to the aggregator.
	Received int
	// Missing lists row indices without a result.
	Missing []int
	// Duplicates lists row indices with more than one result.
	Duplicates []int
	// OutOfRange lists result indices outside [0, Expected).
	OutOfRange []int
	// Cause holds every individual violation.
	Cause error
}

// Error returns a message naming the invariant and the offending indices.
func (e IntegrityError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "integrity check %q failed: expected %d results, received %d", e.Invariant, e.Expected, e.Received)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, "; missing indices %s", formatIndices(e.Missing))
	}
	if len(e.Duplicates) > 0 {
		fmt.Fprintf(&b, "; duplicate indices %s", formatIndices(e.Duplicates))
	}
	if len(e.OutOfRange) > 0 {
		fmt.Fprintf(&b, "; out-of-range indices %s", formatIndices(e.OutOfRange))
	}
	return b.String()
}

// Unwrap returns the aggregated violations.
func (e IntegrityError) Unwrap() error { return e.Cause }

// maxListedIndices bounds how many indices an IntegrityError prints.
const maxListedIndices = 10

func formatIndices(indices []int) string {
	shown := indices
	if len(shown) > maxListedIndices {
		shown = shown[:maxListedIndices]
	}
	parts := make([]string, len(shown))
	for i, idx := range shown {
		parts[i] = fmt.Sprint(idx)
	}
	s := "[" + strings.Join(parts, " ")
	if len(indices) > maxListedIndices {
		s += fmt.Sprintf(" ... +%d", len(indices)-maxListedIndices)
	}
	return s + "]"
}

// WorkerError reports a crash of the worker pool itself, as opposed to a
// failed lookup. The batch moves to its failed state.
type WorkerError struct {
	// Index is the row the worker was processing.
	Index int
	// Panic is the recovered panic value.
	Panic any
}

// Error returns a message describing the crash.
func (e WorkerError) Error() string {
	return fmt.Sprintf("worker crashed on row %d: %v", e.Index, e.Panic)
}

// TimeoutError represents an operation that exceeded its deadline. It
// captures the operation name and the duration limit that was exceeded.
type TimeoutError struct {
	// Operation is the name of the operation that timed out.
	Operation string
	// Limit is the duration after which the operation was considered timed out.
	Limit time.Duration
}

// Error returns a formatted message describing the timeout.
func (e TimeoutError) Error() string {
	return fmt.Sprintf("operation %q timed out after %s", e.Operation, e.Limit)
}

// ValidationError represents an input validation failure. It identifies which
// field failed validation and provides a human-readable explanation.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string
	// Message explains the validation failure.
	Message string
}

// Error returns a formatted message describing the validation failure.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for %q: %s", e.Field, e.Message)
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// This allows the wrapped error to be unwrapped with errors.Unwrap() and
// checked with errors.Is() and errors.As().
//
// Parameters:
//   - err: The error to wrap.
//   - format: A format string for the context message.
//   - args: Arguments for the format string.
//
// Returns:
//   - error: The wrapped error, or nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
