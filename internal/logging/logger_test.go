package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

// decodeLines parses every JSON entry written to buf.
func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("log line %q is not JSON: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestNew(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		opts     Options
		logDebug bool
		contains []string
		excludes []string
	}{
		{
			name:     "json with run id",
			opts:     Options{Level: "info", Format: "json", Component: "nedmatch", RunID: "run-1"},
			contains: []string{`"run_id":"run-1"`, `"component":"nedmatch"`, "hello"},
		},
		{
			name:     "no run id before the run starts",
			opts:     Options{Format: "json", Component: "nedmatch"},
			contains: []string{`"component":"nedmatch"`},
			excludes: []string{"run_id"},
		},
		{
			name:     "debug suppressed at info",
			opts:     Options{Level: "info", Format: "json"},
			logDebug: true,
			excludes: []string{"hello"},
		},
		{
			name:     "level is case-insensitive",
			opts:     Options{Level: "DEBUG", Format: "json"},
			logDebug: true,
			contains: []string{`"level":"debug"`},
		},
		{
			name:     "unknown level falls back to info",
			opts:     Options{Level: "chatty", Format: "json"},
			logDebug: true,
			excludes: []string{"hello"},
		},
		{
			name:     "console format",
			opts:     Options{Level: "debug", Format: "console"},
			logDebug: true,
			contains: []string{"hello"},
			excludes: []string{`"message"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			logger := New(&buf, tt.opts)
			if tt.logDebug {
				logger.Debug("hello")
			} else {
				logger.Info("hello")
			}
			output := buf.String()
			for _, want := range tt.contains {
				if !strings.Contains(output, want) {
					t.Errorf("output should contain %q, got: %s", want, output)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(output, unwanted) {
					t.Errorf("output should not contain %q, got: %s", unwanted, output)
				}
			}
		})
	}
}

func TestLookupFailureLine(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		level string
		want  int
	}{
		{"visible at debug", "debug", 1},
		{"hidden at info", "info", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			logger := New(&buf, Options{Level: tt.level, Format: "json", RunID: "run-7"}).
				With(String("endpoint", "https://ned.ipac.caltech.edu/cgi-bin/objsearch"))
			logger.Debug("lookup failed", Int("row", 12), Err(errors.New("ned: status 503")))

			entries := decodeLines(t, &buf)
			if len(entries) != tt.want {
				t.Fatalf("got %d entries, want %d: %s", len(entries), tt.want, buf.String())
			}
			if tt.want == 0 {
				return
			}
			e := entries[0]
			checks := map[string]any{
				"level":    "debug",
				"message":  "lookup failed",
				"row":      float64(12),
				"error":    "ned: status 503",
				"run_id":   "run-7",
				"endpoint": "https://ned.ipac.caltech.edu/cgi-bin/objsearch",
			}
			for key, want := range checks {
				if e[key] != want {
					t.Errorf("%s = %v, want %v", key, e[key], want)
				}
			}
		})
	}
}

func TestStateTransitionLines(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := New(&buf, Options{Level: "debug", Format: "json"})

	transitions := [][2]string{{"idle", "dispatching"}, {"dispatching", "aggregating"}, {"aggregating", "done"}}
	for _, tr := range transitions {
		logger.Debug("batch state changed", String("from", tr[0]), String("to", tr[1]))
	}

	entries := decodeLines(t, &buf)
	if len(entries) != len(transitions) {
		t.Fatalf("got %d entries, want %d", len(entries), len(transitions))
	}
	for i, tr := range transitions {
		if entries[i]["from"] != tr[0] || entries[i]["to"] != tr[1] {
			t.Errorf("entry %d = %v -> %v, want %s -> %s", i, entries[i]["from"], entries[i]["to"], tr[0], tr[1])
		}
	}
}

func TestSummaryFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := New(&buf, Options{Format: "json"})
	logger.Info("batch complete",
		Int("rows", 4),
		Int("found", 2),
		Int("not_found", 1),
		Int("lookup_failures", 1),
		Duration("duration", 1500*time.Millisecond),
	)

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	want := map[string]any{
		"rows":            float64(4),
		"found":           float64(2),
		"not_found":       float64(1),
		"lookup_failures": float64(1),
		"duration":        float64(1500),
	}
	for key, value := range want {
		if entries[0][key] != value {
			t.Errorf("%s = %v, want %v", key, entries[0][key], value)
		}
	}
}

func TestErrorLine(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		err       error
		wantError any
	}{
		{"with cause", errors.New("listener closed"), "listener closed"},
		{"nil cause", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			New(&buf, Options{Format: "json"}).Error("metrics server stopped", tt.err, String("addr", "127.0.0.1:9464"))

			e := decodeLines(t, &buf)[0]
			if e["level"] != "error" || e["addr"] != "127.0.0.1:9464" {
				t.Errorf("entry = %v", e)
			}
			if e["error"] != tt.wantError {
				t.Errorf("error = %v, want %v", e["error"], tt.wantError)
			}
		})
	}
}

func TestWithDoesNotTagParent(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	parent := New(&buf, Options{Format: "json"})
	child := parent.With(String("endpoint", "http://ned.test"), Int("workers", 8))

	child.Info("catalog loaded")
	parent.Info("output written")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0]["endpoint"] != "http://ned.test" || entries[0]["workers"] != float64(8) {
		t.Errorf("child entry = %v", entries[0])
	}
	if _, ok := entries[1]["endpoint"]; ok {
		t.Errorf("parent entry should not carry child fields: %v", entries[1])
	}
}

func TestNop(t *testing.T) {
	t.Parallel()
	Nop.Info("x", Int("row", 1))
	Nop.Error("x", errors.New("y"))
	Nop.Debug("x")
}
