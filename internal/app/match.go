package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agbru/nedmatch/internal/catalog"
	"github.com/agbru/nedmatch/internal/cli"
	"github.com/agbru/nedmatch/internal/crossmatch"
	apperrors "github.com/agbru/nedmatch/internal/errors"
	"github.com/agbru/nedmatch/internal/logging"
	"github.com/agbru/nedmatch/internal/lookup"
	"github.com/agbru/nedmatch/internal/metrics"
	"github.com/agbru/nedmatch/internal/orchestration"
	"github.com/agbru/nedmatch/internal/progress"
	"github.com/agbru/nedmatch/internal/tui"
)

// runPlan is everything a run needs once the catalog is loaded.
type runPlan struct {
	runID    string
	logger   *logging.ZerologAdapter
	table    *catalog.Table
	groups   []string
	task     crossmatch.TaskFunc
	recorder *metrics.Recorder
	memory   *metrics.MemoryCollector
	format   catalog.Format
}

// prepare loads the catalog and builds the per-row task. Logs go to logOut.
func (a *Application) prepare(ctx context.Context, logOut io.Writer) (*runPlan, error) {
	format, err := a.Config.OutputFormat()
	if err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	logger := logging.New(logOut, logging.Options{
		Level:     a.Config.LogLevel,
		Format:    a.Config.LogFormat,
		Component: "nedmatch",
		RunID:     runID,
	})
	logger.Debug("configuration", logging.String("config", a.Config.String()))

	memory := metrics.NewMemoryCollector()
	table, err := catalog.Load(ctx, a.Config.Catalog)
	if err != nil {
		return nil, err
	}
	table = table.Limit(a.Config.Limit).WithReferenceFrame(a.Config.Frame, a.Config.Equinox)
	if err := table.CheckFlagColumn(a.Config.Column); err != nil {
		return nil, err
	}
	groups := table.SourceGroups()
	logger.Info("catalog loaded",
		logging.String("catalog", a.Config.Catalog),
		logging.Int("rows", table.Len()),
		logging.Int("source_groups", len(groups)),
	)
	logger.Debug("source groups", logging.String("groups", strings.Join(groups, ",")))

	client := a.Client
	if client == nil {
		client = lookup.NewNEDClient(
			lookup.WithEndpoint(a.Config.Endpoint),
			lookup.WithTimeout(a.Config.LookupTimeout),
			lookup.WithUserAgent("nedmatch/"+Version),
		)
	}
	recorder := metrics.NewRecorder()
	recorder.StartBatch(table.Len())
	task := crossmatch.NewTask(table, client, crossmatch.NewEvaluator(a.Config.RedshiftCeiling), crossmatch.TaskOptions{
		Radius:   a.Config.SearchRadius(),
		Recorder: recorder,
		Logger:   logger.With(logging.String("endpoint", a.Config.Endpoint)),
	})

	return &runPlan{
		runID:    runID,
		logger:   logger,
		table:    table,
		groups:   groups,
		task:     task,
		recorder: recorder,
		memory:   memory,
		format:   format,
	}, nil
}

// runInfo describes the plan for the configuration banner.
func (a *Application) runInfo(plan *runPlan) cli.RunInfo {
	return cli.RunInfo{
		RunID:           plan.runID,
		Catalog:         a.Config.Catalog,
		Output:          a.Config.Output,
		Format:          string(plan.format),
		Rows:            plan.table.Len(),
		SourceGroups:    plan.groups,
		Workers:         a.Config.Workers,
		Radius:          a.Config.SearchRadius(),
		RedshiftCeiling: a.Config.RedshiftCeiling,
		Endpoint:        a.Config.Endpoint,
	}
}

// startMetrics serves the recorder on Config.MetricsAddr until the returned
// stop function is called. Without an address it does nothing.
func (a *Application) startMetrics(ctx context.Context, plan *runPlan) (stop func(), err error) {
	if a.Config.MetricsAddr == "" {
		return func() {}, nil
	}
	srv, err := metrics.Listen(a.Config.MetricsAddr, plan.recorder.Handler())
	if err != nil {
		return nil, apperrors.NewConfigError("metrics-addr %s: %v", a.Config.MetricsAddr, err)
	}
	a.servedAddr = srv.Addr()
	plan.logger.Info("serving metrics", logging.String("addr", a.servedAddr))

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(ctx); err != nil {
			plan.logger.Error("metrics server stopped", err)
		}
	}()
	return func() {
		cancel()
		<-done
	}, nil
}

// execute runs the batch and writes the augmented catalog when an output
// location is configured. Nothing is written when the batch fails.
func (a *Application) execute(ctx context.Context, plan *runPlan, reporter orchestration.ProgressReporter, onState func(orchestration.State), out io.Writer) (crossmatch.Summary, error) {
	cfg := orchestration.BatchConfig{
		Concurrency: a.Config.Workers,
		Column:      a.Config.Column,
		RunID:       plan.runID,
		Logger:      plan.logger,
		OnStateChange: func(s orchestration.State) {
			plan.recorder.SetState(s.String())
			if onState != nil {
				onState(s)
			}
		},
	}
	reporter = orchestration.ObservedReporter(reporter, func(u progress.ProgressUpdate) {
		plan.recorder.SetRemaining(u.Remaining)
	})

	aug, summary, err := orchestration.RunBatch(ctx, cfg, plan.table, plan.task, reporter, out)
	if err != nil {
		return summary, err
	}
	if a.Config.Output != "" {
		if err := catalog.Save(ctx, a.Config.Output, aug, plan.format); err != nil {
			return summary, fmt.Errorf("write output: %w", err)
		}
		plan.logger.Info("output written",
			logging.String("location", a.Config.Output),
			logging.String("format", string(plan.format)),
			logging.Int("rows", aug.Len()),
		)
	}
	return summary, nil
}

// runMatch runs the cross-match on the command line.
func (a *Application) runMatch(ctx context.Context, out io.Writer) int {
	start := time.Now()
	ctx, cancel := a.lifecycle(ctx)
	defer cancel()

	plan, err := a.prepare(ctx, a.ErrWriter)
	if err != nil {
		return cli.HandleError(err, time.Since(start), a.ErrWriter)
	}
	stopMetrics, err := a.startMetrics(ctx, plan)
	if err != nil {
		return cli.HandleError(err, time.Since(start), a.ErrWriter)
	}
	defer stopMetrics()

	var reporter orchestration.ProgressReporter = cli.CLIProgressReporter{Interval: a.Config.Poll, Logger: plan.logger}
	progressOut := out
	if a.Config.Quiet {
		reporter = orchestration.NullProgressReporter{}
		progressOut = io.Discard
	} else {
		cli.PrintExecutionConfig(a.runInfo(plan), out)
	}

	summary, err := a.execute(ctx, plan, reporter, nil, progressOut)
	if err != nil {
		return cli.HandleError(a.runError(err), time.Since(start), a.ErrWriter)
	}

	if a.Config.Quiet {
		cli.DisplayQuietSummary(summary, out)
		return apperrors.ExitSuccess
	}
	cli.DisplaySummary(summary, out)
	if a.Config.Output != "" {
		cli.DisplaySaved(a.Config.Output, summary.Total, out)
	}
	cli.DisplayMemoryStats(plan.memory.Snapshot(), out)
	return apperrors.ExitSuccess
}

// runTUI runs the cross-match inside the dashboard. Logs are discarded
// while the dashboard owns the terminal.
func (a *Application) runTUI(ctx context.Context, out io.Writer) int {
	start := time.Now()
	ctx, cancel := a.lifecycle(ctx)
	defer cancel()

	plan, err := a.prepare(ctx, io.Discard)
	if err != nil {
		return cli.HandleError(err, time.Since(start), a.ErrWriter)
	}
	stopMetrics, err := a.startMetrics(ctx, plan)
	if err != nil {
		return cli.HandleError(err, time.Since(start), a.ErrWriter)
	}
	defer stopMetrics()

	opts := tui.Options{
		Version: Version,
		RunID:   plan.runID,
		Catalog: a.Config.Catalog,
		Total:   plan.table.Len(),
	}
	res := tui.Run(ctx, opts, func(ctx context.Context, reporter orchestration.ProgressReporter, onState func(orchestration.State)) (crossmatch.Summary, error) {
		return a.execute(ctx, plan, reporter, onState, io.Discard)
	})
	if res.Err != nil {
		return cli.HandleError(a.runError(res.Err), time.Since(start), a.ErrWriter)
	}

	cli.DisplaySummary(res.Summary, out)
	if a.Config.Output != "" {
		cli.DisplaySaved(a.Config.Output, res.Summary.Total, out)
	}
	return res.ExitCode
}
