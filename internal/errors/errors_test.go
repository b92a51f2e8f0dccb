// Package apperrors provides tests for application error types.
package apperrors

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestConfigError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		err         error
		expected    string
		checkTypeAs bool
	}{
		{
			name:     "Error returns message",
			err:      ConfigError{Message: "catalog is missing column DEC"},
			expected: "catalog is missing column DEC",
		},
		{
			name:     "NewConfigError creates formatted error",
			err:      NewConfigError("invalid value %d for flag %s", 0, "--workers"),
			expected: "invalid value 0 for flag --workers",
		},
		{
			name:        "ConfigError type assertion",
			err:         NewConfigError("test error"),
			expected:    "test error",
			checkTypeAs: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.err.Error() != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, tt.err.Error())
			}
			if tt.checkTypeAs {
				var configErr ConfigError
				if !errors.As(tt.err, &configErr) {
					t.Error("expected error to be ConfigError type")
				}
			}
		})
	}
}

func TestLookupError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		err         LookupError
		expectedMsg string
		checkIs     error
	}{
		{
			name:        "Error names row and cause",
			err:         LookupError{Index: 7, Cause: errors.New("connection reset")},
			expectedMsg: "lookup for row 7 failed: connection reset",
		},
		{
			name:        "Error without cause",
			err:         LookupError{Index: 0},
			expectedMsg: "lookup for row 0 failed",
		},
		{
			name:        "errors.Is finds wrapped deadline",
			err:         LookupError{Index: 3, Cause: context.DeadlineExceeded},
			expectedMsg: "lookup for row 3 failed: context deadline exceeded",
			checkIs:     context.DeadlineExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.err.Error() != tt.expectedMsg {
				t.Errorf("expected %q, got %q", tt.expectedMsg, tt.err.Error())
			}
			if tt.checkIs != nil && !errors.Is(tt.err, tt.checkIs) {
				t.Errorf("errors.Is should find %v in the chain", tt.checkIs)
			}
		})
	}
}

func TestIntegrityError(t *testing.T) {
	t.Parallel()

	t.Run("lists offending indices", func(t *testing.T) {
		t.Parallel()
		err := IntegrityError{
			Invariant:  "one result per row",
			Expected:   3,
			Received:   3,
			Missing:    []int{2},
			Duplicates: []int{1},
		}
		msg := err.Error()
		for _, want := range []string{`"one result per row"`, "expected 3", "missing indices [2]", "duplicate indices [1]"} {
			if !strings.Contains(msg, want) {
				t.Errorf("message %q should contain %q", msg, want)
			}
		}
		if strings.Contains(msg, "out-of-range") {
			t.Errorf("message %q should not mention out-of-range indices", msg)
		}
	})

	t.Run("truncates long index lists", func(t *testing.T) {
		t.Parallel()
		missing := make([]int, 25)
		for i := range missing {
			missing[i] = i
		}
		err := IntegrityError{Invariant: "complete", Expected: 25, Missing: missing}
		if !strings.Contains(err.Error(), "... +15]") {
			t.Errorf("expected truncated list, got %q", err.Error())
		}
	})

	t.Run("unwraps to the cause", func(t *testing.T) {
		t.Parallel()
		sentinel := errors.New("row 2 has no result")
		var err error = IntegrityError{Invariant: "complete", Cause: fmt.Errorf("violations: %w", sentinel)}
		if !errors.Is(err, sentinel) {
			t.Error("errors.Is should reach the wrapped violation")
		}
	})
}

func TestWorkerError(t *testing.T) {
	t.Parallel()
	err := WorkerError{Index: 4, Panic: "nil map write"}
	if got, want := err.Error(), "worker crashed on row 4: nil map write"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestTimeoutError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      TimeoutError
		expected string
	}{
		{
			name:     "Error returns formatted message",
			err:      TimeoutError{Operation: "crossmatch", Limit: 30 * time.Second},
			expected: `operation "crossmatch" timed out after 30s`,
		},
		{
			name:     "Error with subsecond limit",
			err:      TimeoutError{Operation: "ned lookup", Limit: 500 * time.Millisecond},
			expected: `operation "ned lookup" timed out after 500ms`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var err error = tt.err
			if err.Error() != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, err.Error())
			}
			var timeoutErr TimeoutError
			if !errors.As(err, &timeoutErr) || timeoutErr.Limit != tt.err.Limit {
				t.Error("expected error to be TimeoutError type with the same limit")
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      ValidationError
		expected string
	}{
		{
			name:     "Error returns formatted message",
			err:      ValidationError{Field: "radius", Message: "must be positive"},
			expected: `validation error for "radius": must be positive`,
		},
		{
			name:     "Error with different field",
			err:      ValidationError{Field: "workers", Message: "must be at least 1"},
			expected: `validation error for "workers": must be at least 1`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var err error = tt.err
			if err.Error() != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, err.Error())
			}
			var validationErr ValidationError
			if !errors.As(err, &validationErr) {
				t.Error("expected error to be ValidationError type")
			}
		})
	}
}

func TestWrapError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		original    error
		format      string
		args        []any
		expectedMsg string
		expectNil   bool
		checkIs     error
	}{
		{
			name:        "wraps error with context",
			original:    errors.New("file not found"),
			format:      "failed to open catalog",
			expectedMsg: "failed to open catalog: file not found",
		},
		{
			name:        "preserves error chain",
			original:    context.DeadlineExceeded,
			format:      "lookup timed out",
			expectedMsg: "lookup timed out: context deadline exceeded",
			checkIs:     context.DeadlineExceeded,
		},
		{
			name:      "returns nil for nil error",
			original:  nil,
			format:    "some context",
			expectNil: true,
		},
		{
			name:        "supports format arguments",
			original:    errors.New("connection reset"),
			format:      "failed to connect to %s:%d",
			args:        []any{"ned.ipac.caltech.edu", 443},
			expectedMsg: "failed to connect to ned.ipac.caltech.edu:443: connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			wrapped := WrapError(tt.original, tt.format, tt.args...)

			if tt.expectNil {
				if wrapped != nil {
					t.Error("WrapError(nil, ...) should return nil")
				}
				return
			}
			if wrapped == nil {
				t.Fatal("wrapped error should not be nil")
			}
			if wrapped.Error() != tt.expectedMsg {
				t.Errorf("expected %q, got %q", tt.expectedMsg, wrapped.Error())
			}
			if tt.checkIs != nil && !errors.Is(wrapped, tt.checkIs) {
				t.Errorf("wrapped error should preserve %v in the chain", tt.checkIs)
			}
		})
	}
}

func TestIsContextError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"context.Canceled", context.Canceled, true},
		{"context.DeadlineExceeded", context.DeadlineExceeded, true},
		{"wrapped context.Canceled", WrapError(context.Canceled, "batch canceled"), true},
		{"regular error", errors.New("some error"), false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsContextError(tt.err); got != tt.expected {
				t.Errorf("IsContextError(%v) = %v, expected %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestExitCodeFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"config", NewConfigError("bad"), ExitErrorConfig},
		{"validation wrapped", WrapError(ValidationError{Field: "x", Message: "y"}, "parse"), ExitErrorConfig},
		{"integrity", IntegrityError{Invariant: "complete"}, ExitErrorIntegrity},
		{"timeout type", TimeoutError{Operation: "run", Limit: time.Second}, ExitErrorTimeout},
		{"deadline", WrapError(context.DeadlineExceeded, "dispatch"), ExitErrorTimeout},
		{"canceled", context.Canceled, ExitErrorCanceled},
		{"worker crash", WorkerError{Index: 1, Panic: "boom"}, ExitErrorGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExitCodeFor(tt.err); got != tt.want {
				t.Errorf("ExitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

type testColors struct{}

func (testColors) Red() string    { return "<red>" }
func (testColors) Yellow() string { return "<yellow>" }
func (testColors) Reset() string  { return "</>" }

func TestHandleRunError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		colors   ColorProvider
		wantCode int
		contains []string
	}{
		{
			name:     "success prints nothing",
			err:      nil,
			wantCode: ExitSuccess,
		},
		{
			name:     "integrity names invariant",
			err:      IntegrityError{Invariant: "one result per row", Expected: 3, Received: 2, Missing: []int{2}},
			colors:   testColors{},
			wantCode: ExitErrorIntegrity,
			contains: []string{"<red>", "Result integrity violated (one result per row)", "missing indices [2]"},
		},
		{
			name:     "canceled uses warning color",
			err:      context.Canceled,
			colors:   testColors{},
			wantCode: ExitErrorCanceled,
			contains: []string{"<yellow>Run canceled"},
		},
		{
			name:     "plain text without colors",
			err:      errors.New("disk full"),
			wantCode: ExitErrorGeneric,
			contains: []string{"Error: disk full"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			code := HandleRunError(tt.err, time.Second, &buf, tt.colors)
			if code != tt.wantCode {
				t.Errorf("code = %d, want %d", code, tt.wantCode)
			}
			if tt.err == nil && buf.Len() != 0 {
				t.Errorf("expected no output, got %q", buf.String())
			}
			for _, want := range tt.contains {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output %q should contain %q", buf.String(), want)
				}
			}
		})
	}
}

func TestExitCodes(t *testing.T) {
	t.Parallel()
	codes := map[string]int{
		"ExitSuccess":        ExitSuccess,
		"ExitErrorGeneric":   ExitErrorGeneric,
		"ExitErrorTimeout":   ExitErrorTimeout,
		"ExitErrorConfig":    ExitErrorConfig,
		"ExitErrorIntegrity": ExitErrorIntegrity,
		"ExitErrorCanceled":  ExitErrorCanceled,
	}

	if ExitSuccess != 0 {
		t.Errorf("ExitSuccess should be 0, got %d", ExitSuccess)
	}
	if ExitErrorCanceled != 130 {
		t.Errorf("ExitErrorCanceled should be 130 (SIGINT convention), got %d", ExitErrorCanceled)
	}

	seen := make(map[int]string)
	for name, code := range codes {
		if other, dup := seen[code]; dup {
			t.Errorf("%s and %s share exit code %d", name, other, code)
		}
		seen[code] = name
	}
}
