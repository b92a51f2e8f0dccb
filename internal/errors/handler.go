package apperrors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ColorProvider supplies the escape sequences used when reporting errors.
// A nil provider prints plain text.
type ColorProvider interface {
	Red() string
	Yellow() string
	Reset() string
}

// ExitCodeFor maps an error returned by a batch run to a process exit code.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var (
		configErr     ConfigError
		validationErr ValidationError
		integrityErr  IntegrityError
		timeoutErr    TimeoutError
	)
	switch {
	case errors.As(err, &configErr), errors.As(err, &validationErr):
		return ExitErrorConfig
	case errors.As(err, &integrityErr):
		return ExitErrorIntegrity
	case errors.As(err, &timeoutErr), errors.Is(err, context.DeadlineExceeded):
		return ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		return ExitErrorCanceled
	default:
		return ExitErrorGeneric
	}
}

// HandleRunError reports a fatal batch error to out and returns the matching
// exit code. Integrity failures print the violated invariant on its own line.
//
// Parameters:
//   - err: The error returned by the batch, or nil.
//   - duration: Time spent before the failure.
//   - out: Destination for the report.
//   - colors: Optional color provider.
//
// Returns:
//   - int: The process exit code.
func HandleRunError(err error, duration time.Duration, out io.Writer, colors ColorProvider) int {
	code := ExitCodeFor(err)
	if code == ExitSuccess {
		return code
	}
	red, yellow, reset := "", "", ""
	if colors != nil {
		red, yellow, reset = colors.Red(), colors.Yellow(), colors.Reset()
	}

	switch code {
	case ExitErrorCanceled:
		fmt.Fprintf(out, "%sRun canceled after %s.%s\n", yellow, duration.Round(time.Millisecond), reset)
	case ExitErrorTimeout:
		fmt.Fprintf(out, "%sRun timed out after %s: %v%s\n", red, duration.Round(time.Millisecond), err, reset)
	case ExitErrorIntegrity:
		var integrityErr IntegrityError
		errors.As(err, &integrityErr)
		fmt.Fprintf(out, "%sResult integrity violated (%s).%s\n", red, integrityErr.Invariant, reset)
		fmt.Fprintf(out, "%s%v%s\n", red, err, reset)
	case ExitErrorConfig:
		fmt.Fprintf(out, "%sConfiguration error: %v%s\n", red, err, reset)
	default:
		fmt.Fprintf(out, "%sError: %v%s\n", red, err, reset)
	}
	return code
}
