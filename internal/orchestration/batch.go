package orchestration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/agbru/nedmatch/internal/catalog"
	"github.com/agbru/nedmatch/internal/crossmatch"
	"github.com/agbru/nedmatch/internal/logging"
)

// State is a stage of a batch run.
type State int

const (
	StateIdle State = iota
	StateDispatching
	StateAggregating
	StateDone
	StateFailed
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDispatching:
		return "dispatching"
	case StateAggregating:
		return "aggregating"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrInvalidTransition is returned for a state change the batch does not
// allow, such as running a batch twice.
var ErrInvalidTransition = errors.New("invalid batch state transition")

var transitions = map[State][]State{
	StateIdle:        {StateDispatching},
	StateDispatching: {StateAggregating, StateFailed},
	StateAggregating: {StateDone, StateFailed},
}

// BatchConfig configures a batch run.
type BatchConfig struct {
	// Concurrency is the worker count. Values below 1 mean DefaultConcurrency.
	Concurrency int
	// Column names the flag column. Empty means catalog.DefaultFlagColumn.
	Column string
	// RunID tags every log line of the run.
	RunID string
	// Logger receives state transitions. Nil discards.
	Logger logging.Logger
	// OnStateChange, when set, is called after every transition.
	OnStateChange func(State)
}

// Batch is one cross-match run. Its state only moves forward:
// Idle, Dispatching, Aggregating, then Done, or Failed from either of the
// two middle states. Per-row lookup failures never fail a batch.
type Batch struct {
	cfg BatchConfig

	mu    sync.Mutex
	state State
	err   error
}

// NewBatch creates an idle batch.
func NewBatch(cfg BatchConfig) *Batch {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Column == "" {
		cfg.Column = catalog.DefaultFlagColumn
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop
	}
	return &Batch{cfg: cfg}
}

// State returns the current state.
func (b *Batch) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Err returns the error that failed the batch, nil otherwise.
func (b *Batch) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

func (b *Batch) transition(to State) error {
	b.mu.Lock()
	from := b.state
	allowed := false
	for _, s := range transitions[from] {
		if s == to {
			allowed = true
			break
		}
	}
	if allowed {
		b.state = to
	}
	b.mu.Unlock()

	if !allowed {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	b.cfg.Logger.Debug("batch state changed",
		logging.String("run_id", b.cfg.RunID),
		logging.String("from", from.String()),
		logging.String("to", to.String()),
	)
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(to)
	}
	return nil
}

func (b *Batch) fail(err error) error {
	b.mu.Lock()
	b.err = err
	b.mu.Unlock()
	if terr := b.transition(StateFailed); terr != nil {
		return errors.Join(err, terr)
	}
	b.cfg.Logger.Error("batch failed", err, logging.String("run_id", b.cfg.RunID))
	return err
}

// Run dispatches one task per table row, then aggregates the records into
// the augmented catalog. A batch can run only once.
func (b *Batch) Run(ctx context.Context, table *catalog.Table, task crossmatch.TaskFunc, reporter ProgressReporter, out io.Writer) (*catalog.Augmented, crossmatch.Summary, error) {
	if err := b.transition(StateDispatching); err != nil {
		return nil, crossmatch.Summary{}, err
	}
	start := time.Now()
	b.cfg.Logger.Info("dispatching lookups",
		logging.String("run_id", b.cfg.RunID),
		logging.Int("rows", table.Len()),
		logging.Int("workers", clampWorkers(b.cfg.Concurrency, table.Len())),
	)

	results, err := Dispatch(ctx, table.Len(), b.cfg.Concurrency, task, reporter, out)
	if err != nil {
		return nil, crossmatch.Summary{}, b.fail(err)
	}

	if err := b.transition(StateAggregating); err != nil {
		return nil, crossmatch.Summary{}, err
	}
	aug, err := crossmatch.Aggregate(table, results, b.cfg.Column)
	if err != nil {
		return nil, crossmatch.Summary{}, b.fail(err)
	}
	summary := crossmatch.Summarize(results, time.Since(start))

	if err := b.transition(StateDone); err != nil {
		return nil, crossmatch.Summary{}, err
	}
	b.cfg.Logger.Info("batch complete",
		logging.String("run_id", b.cfg.RunID),
		logging.Int("rows", summary.Total),
		logging.Int("found", summary.Found),
		logging.Int("not_found", summary.NotFound),
		logging.Int("lookup_failures", summary.Failed),
		logging.Duration("duration", summary.Duration),
	)
	return aug, summary, nil
}

// RunBatch creates a batch from cfg and runs it.
func RunBatch(ctx context.Context, cfg BatchConfig, table *catalog.Table, task crossmatch.TaskFunc, reporter ProgressReporter, out io.Writer) (*catalog.Augmented, crossmatch.Summary, error) {
	return NewBatch(cfg).Run(ctx, table, task, reporter, out)
}
