package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("scrape status = %d", rec.Code)
	}
	return rec.Body.String()
}

func TestRecorder(t *testing.T) {
	t.Parallel()
	r := NewRecorder()
	r.StartBatch(10)
	r.ObserveLookup("matched", 200*time.Millisecond)
	r.ObserveLookup("matched", 300*time.Millisecond)
	r.ObserveLookup("lookup_failed", time.Second)
	r.SetRemaining(7)
	r.SetState("dispatching")
	r.SetState("aggregating")

	body := scrape(t, r.Handler())
	for _, want := range []string{
		`nedmatch_lookups_total{outcome="matched"} 2`,
		`nedmatch_lookups_total{outcome="lookup_failed"} 1`,
		`nedmatch_lookup_duration_seconds_count 3`,
		`nedmatch_rows_total 10`,
		`nedmatch_rows_remaining 7`,
		`nedmatch_batch_state{state="aggregating"} 1`,
		`go_goroutines`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape missing %q", want)
		}
	}
	if strings.Contains(body, `state="dispatching"`) {
		t.Error("previous state should be cleared")
	}
}

func TestServer(t *testing.T) {
	t.Parallel()
	r := NewRecorder()
	srv, err := Listen("127.0.0.1:0", r.Handler())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	for _, path := range []string{"/health", "/metrics"} {
		resp, err := http.Get("http://" + srv.Addr() + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || len(body) == 0 {
			t.Errorf("GET %s = %d %q", path, resp.StatusCode, body)
		}
		if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
			t.Errorf("GET %s is missing the security headers", path)
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestListenBadAddress(t *testing.T) {
	t.Parallel()
	if _, err := Listen("not-an-address", NewRecorder().Handler()); err == nil {
		t.Error("expected an error for an invalid address")
	}
}
