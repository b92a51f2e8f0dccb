package crossmatch

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/agbru/nedmatch/internal/catalog"
	apperrors "github.com/agbru/nedmatch/internal/errors"
	"github.com/agbru/nedmatch/internal/logging"
	"github.com/agbru/nedmatch/internal/lookup"
)

const tracerName = "github.com/agbru/nedmatch/internal/crossmatch"

// TaskFunc resolves one catalog row. It is called concurrently by the worker
// pool, once per index.
type TaskFunc func(ctx context.Context, index int) ResultRecord

// Recorder receives one observation per finished lookup. Implementations
// must be safe for concurrent use.
type Recorder interface {
	ObserveLookup(outcome string, elapsed time.Duration)
}

// TaskOptions tunes NewTask.
type TaskOptions struct {
	// Radius is the cone-search radius. Zero means lookup.DefaultSearchRadius.
	Radius lookup.Angle
	// Recorder is optional.
	Recorder Recorder
	// Logger receives a debug line per failed lookup. Nil discards.
	Logger logging.Logger
}

// NewTask builds the per-row task: parse the row's position, query the
// client, classify the outcome. An unparsable row is a failed lookup for
// that row only. The task performs no retries.
func NewTask(table *catalog.Table, client lookup.Client, eval Evaluator, opts TaskOptions) TaskFunc {
	radius := opts.Radius
	if radius <= 0 {
		radius = lookup.DefaultSearchRadius
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop
	}
	tracer := otel.Tracer(tracerName)

	return func(ctx context.Context, index int) ResultRecord {
		ctx, span := tracer.Start(ctx, "crossmatch.lookup")
		defer span.End()
		span.SetAttributes(attribute.Int("catalog.row", index))
		start := time.Now()

		var outcome lookup.Outcome
		row, err := table.Row(index)
		if err != nil {
			outcome = lookup.Failed(apperrors.LookupError{Index: index, Cause: err})
		} else {
			span.SetAttributes(
				attribute.Float64("sky.ra", row.Position.RA),
				attribute.Float64("sky.dec", row.Position.Dec),
				attribute.String("catalog.source", row.Source),
			)
			outcome = lookup.Resolve(ctx, client, index, lookup.Query{Position: row.Position, Radius: radius})
		}

		notFound, reason := eval.Classify(outcome)
		span.SetAttributes(
			attribute.String("crossmatch.reason", reason.String()),
			attribute.Bool("crossmatch.not_found", notFound),
		)
		if err := outcome.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "lookup failed")
			logger.Debug("lookup failed", logging.Int("row", index), logging.Err(err))
		} else {
			span.SetAttributes(attribute.Int("lookup.candidates", len(outcome.Candidates())))
		}
		if opts.Recorder != nil {
			opts.Recorder.ObserveLookup(reason.String(), time.Since(start))
		}
		return ResultRecord{Index: index, NotFound: notFound, Reason: reason}
	}
}
