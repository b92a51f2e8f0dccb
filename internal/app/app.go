// Package app wires the configuration, the catalog, the lookup client and
// the batch runner into the nedmatch command.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/agbru/nedmatch/internal/cli"
	"github.com/agbru/nedmatch/internal/config"
	apperrors "github.com/agbru/nedmatch/internal/errors"
	"github.com/agbru/nedmatch/internal/lookup"
	"github.com/agbru/nedmatch/internal/ui"
)

// Application represents the nedmatch application instance.
type Application struct {
	Config config.AppConfig
	// Client answers the cone searches. Nil means a NEDClient built from
	// Config.
	Client    lookup.Client
	ErrWriter io.Writer

	// servedAddr is the bound metrics listener address of the current run.
	servedAddr string
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithClient replaces the remote lookup client.
func WithClient(c lookup.Client) AppOption {
	return func(a *Application) { a.Client = c }
}

// New creates an Application by parsing command-line arguments. args[0] is
// the program name.
func New(args []string, errWriter io.Writer, opts ...AppOption) (*Application, error) {
	app := &Application{ErrWriter: errWriter}
	for _, opt := range opts {
		opt(app)
	}

	programName := "nedmatch"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}
	app.Config = cfg
	return app, nil
}

// Run executes the application in the configured mode and returns the
// process exit code.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	if a.Config.Completion != "" {
		return a.runCompletion(out)
	}

	ui.InitTheme(a.Config.NoColor)

	if a.Config.TUI {
		return a.runTUI(ctx, out)
	}
	return a.runMatch(ctx, out)
}

// runCompletion generates shell completion scripts.
func (a *Application) runCompletion(out io.Writer) int {
	if err := cli.GenerateCompletion(out, a.Config.Completion); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error generating completion: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitSuccess
}

// lifecycle derives the run context: the optional overall timeout plus
// SIGINT/SIGTERM cancellation.
func (a *Application) lifecycle(ctx context.Context) (context.Context, context.CancelFunc) {
	cancelTimeout := context.CancelFunc(func() {})
	if a.Config.Timeout > 0 {
		ctx, cancelTimeout = context.WithTimeout(ctx, a.Config.Timeout)
	}
	ctx, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	return ctx, func() {
		stopSignals()
		cancelTimeout()
	}
}

// runError turns the overall deadline into a TimeoutError.
func (a *Application) runError(err error) error {
	if a.Config.Timeout > 0 && errors.Is(err, context.DeadlineExceeded) {
		return apperrors.TimeoutError{Operation: "cross-match", Limit: a.Config.Timeout}
	}
	return err
}

// IsHelpError checks if the error is a help flag error (--help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
