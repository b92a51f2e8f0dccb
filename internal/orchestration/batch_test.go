package orchestration

import (
	"context"
	"errors"
	"io"
	"reflect"
	"sync"
	"testing"

	"github.com/agbru/nedmatch/internal/catalog"
	"github.com/agbru/nedmatch/internal/crossmatch"
	apperrors "github.com/agbru/nedmatch/internal/errors"
)

func newTable(t *testing.T, n int) *catalog.Table {
	t.Helper()
	records := make([][]string, n)
	for i := range records {
		records[i] = []string{"150.1", "2.2", "cosmos"}
	}
	table, err := catalog.NewTable([]string{"RA", "DEC", "SOURCE"}, records)
	if err != nil {
		t.Fatal(err)
	}
	return table
}

// stateLog records the transitions of a batch.
type stateLog struct {
	mu     sync.Mutex
	states []State
}

func (s *stateLog) record(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, st)
}

func TestRunBatch(t *testing.T) {
	t.Parallel()
	table := newTable(t, 3)
	log := &stateLog{}
	task := func(_ context.Context, i int) crossmatch.ResultRecord {
		switch i {
		case 0:
			return crossmatch.ResultRecord{Index: i, Reason: crossmatch.ReasonMatched}
		case 1:
			return crossmatch.ResultRecord{Index: i, NotFound: true, Reason: crossmatch.ReasonLookupFailed}
		default:
			return crossmatch.ResultRecord{Index: i, NotFound: true, Reason: crossmatch.ReasonNoQualifying}
		}
	}

	aug, summary, err := RunBatch(context.Background(), BatchConfig{Concurrency: 2, RunID: "test", OnStateChange: log.record},
		table, task, NullProgressReporter{}, io.Discard)
	if err != nil {
		t.Fatalf("RunBatch() error = %v", err)
	}
	if got := aug.Flags(); !reflect.DeepEqual(got, []int{0, 1, 1}) {
		t.Errorf("flags = %v, want [0 1 1]", got)
	}
	if aug.Column != catalog.DefaultFlagColumn {
		t.Errorf("column = %q", aug.Column)
	}
	if summary.Total != 3 || summary.Found != 1 || summary.NotFound != 2 || summary.Failed != 1 {
		t.Errorf("summary = %+v", summary)
	}
	want := []State{StateDispatching, StateAggregating, StateDone}
	if !reflect.DeepEqual(log.states, want) {
		t.Errorf("states = %v, want %v", log.states, want)
	}
}

func TestBatchRunsOnce(t *testing.T) {
	t.Parallel()
	b := NewBatch(BatchConfig{})
	table := newTable(t, 1)
	if _, _, err := b.Run(context.Background(), table, instantTask, nil, io.Discard); err != nil {
		t.Fatal(err)
	}
	if b.State() != StateDone {
		t.Fatalf("state = %v, want done", b.State())
	}
	_, _, err := b.Run(context.Background(), table, instantTask, nil, io.Discard)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second run error = %v, want ErrInvalidTransition", err)
	}
}

func TestBatchFailures(t *testing.T) {
	t.Parallel()
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name      string
		ctx       context.Context
		task      crossmatch.TaskFunc
		lastState State
		check     func(t *testing.T, err error)
	}{
		{
			name: "integrity violation",
			ctx:  context.Background(),
			task: func(_ context.Context, i int) crossmatch.ResultRecord {
				return crossmatch.ResultRecord{Index: 0}
			},
			lastState: StateAggregating,
			check: func(t *testing.T, err error) {
				var ie apperrors.IntegrityError
				if !errors.As(err, &ie) {
					t.Errorf("expected IntegrityError, got %v", err)
				}
			},
		},
		{
			name: "worker crash",
			ctx:  context.Background(),
			task: func(_ context.Context, i int) crossmatch.ResultRecord {
				panic("boom")
			},
			lastState: StateDispatching,
			check: func(t *testing.T, err error) {
				var we apperrors.WorkerError
				if !errors.As(err, &we) {
					t.Errorf("expected WorkerError, got %v", err)
				}
			},
		},
		{
			name:      "canceled",
			ctx:       canceled,
			task:      instantTask,
			lastState: StateDispatching,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, context.Canceled) {
					t.Errorf("expected context.Canceled, got %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			log := &stateLog{}
			b := NewBatch(BatchConfig{Concurrency: 2, OnStateChange: log.record})
			aug, _, err := b.Run(tt.ctx, newTable(t, 4), tt.task, NullProgressReporter{}, io.Discard)
			if aug != nil {
				t.Error("a failed batch must not produce a catalog")
			}
			tt.check(t, err)
			if b.State() != StateFailed || b.Err() == nil {
				t.Errorf("state = %v, err = %v; want failed", b.State(), b.Err())
			}
			if n := len(log.states); n < 2 || log.states[n-2] != tt.lastState || log.states[n-1] != StateFailed {
				t.Errorf("states = %v, want ... %v failed", log.states, tt.lastState)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()
	for s, want := range map[State]string{
		StateIdle:        "idle",
		StateDispatching: "dispatching",
		StateAggregating: "aggregating",
		StateDone:        "done",
		StateFailed:      "failed",
		State(9):         "state(9)",
	} {
		if s.String() != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), s.String(), want)
		}
	}
}
