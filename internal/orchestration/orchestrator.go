package orchestration

import (
	"context"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/agbru/nedmatch/internal/crossmatch"
	apperrors "github.com/agbru/nedmatch/internal/errors"
	"github.com/agbru/nedmatch/internal/progress"
)

// ProgressBufferMultiplier defines the buffer size multiplier for the progress
// channel. A larger buffer reduces the likelihood of blocking workers when the
// UI is slow to consume updates.
const ProgressBufferMultiplier = 5

// DefaultConcurrency is the worker count used when none is configured.
const DefaultConcurrency = 4

// Dispatch runs task once for every index in [0, n) on exactly concurrency
// workers (clamped to [1, n]) and returns the records in completion order.
//
// A task that returns is a finished row, whatever its outcome. A task that
// panics crashes the pool: Dispatch returns an apperrors.WorkerError and no
// records. When ctx is canceled no new rows are started, the workers are
// drained and ctx.Err() is returned.
//
// Every finished row publishes one progress.ProgressUpdate, with Remaining
// strictly decreasing from n-1 to 0. The reporter has returned by the time
// Dispatch does.
func Dispatch(ctx context.Context, n, concurrency int, task crossmatch.TaskFunc, reporter ProgressReporter, out io.Writer) ([]crossmatch.ResultRecord, error) {
	if n < 0 {
		n = 0
	}
	workers := clampWorkers(concurrency, n)
	if reporter == nil {
		reporter = NullProgressReporter{}
	}

	progressChan := make(chan progress.ProgressUpdate, workers*ProgressBufferMultiplier)
	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go reporter.DisplayProgress(&displayWg, progressChan, n, out)

	g, gctx := errgroup.WithContext(ctx)
	indices := make(chan int)
	g.Go(func() error {
		defer close(indices)
		for i := 0; i < n; i++ {
			select {
			case indices <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var mu sync.Mutex
	results := make([]crossmatch.ResultRecord, 0, n)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for idx := range indices {
				rec, err := runTask(gctx, task, idx)
				if err != nil {
					return err
				}
				// The send stays under the lock so updates arrive in
				// completion order.
				mu.Lock()
				results = append(results, rec)
				done := len(results)
				progressChan <- progress.ProgressUpdate{
					Index:     rec.Index,
					Completed: done,
					Remaining: n - done,
					Total:     n,
					NotFound:  rec.NotFound,
					Failed:    rec.Reason == crossmatch.ReasonLookupFailed,
				}
				mu.Unlock()
			}
			return nil
		})
	}

	err := g.Wait()
	close(progressChan)
	displayWg.Wait()

	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// runTask turns a panic into a WorkerError.
func runTask(ctx context.Context, task crossmatch.TaskFunc, index int) (rec crossmatch.ResultRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.WorkerError{Index: index, Panic: r}
		}
	}()
	return task(ctx, index), nil
}

func clampWorkers(concurrency, n int) int {
	if concurrency > n {
		concurrency = n
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return concurrency
}
