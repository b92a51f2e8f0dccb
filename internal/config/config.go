// Package config parses and validates the nedmatch configuration from
// command-line flags, NEDMATCH_* environment variables, an optional YAML file
// and an optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/agbru/nedmatch/internal/catalog"
	"github.com/agbru/nedmatch/internal/crossmatch"
	apperrors "github.com/agbru/nedmatch/internal/errors"
	"github.com/agbru/nedmatch/internal/lookup"
	"github.com/agbru/nedmatch/internal/orchestration"
	"github.com/agbru/nedmatch/internal/progress"
)

// EnvPrefix prefixes every environment variable read by the configuration.
const EnvPrefix = "NEDMATCH_"

// DefaultEnvFile is loaded when --env-file is not given and the file exists.
const DefaultEnvFile = ".env"

// AppConfig holds the settings of one run.
type AppConfig struct {
	// Catalog is the input location: a path, file:// or a gs:// / s3:// URL.
	Catalog string
	// Output is where the augmented catalog is written; empty skips writing.
	Output string
	// Format is csv, json or parquet; empty infers it from Output.
	Format string
	// Column names the appended flag column.
	Column string
	// Radius is the cone search radius in arcseconds.
	Radius float64
	// RedshiftCeiling is the exclusive upper bound of a matching redshift.
	RedshiftCeiling float64
	// Workers is the number of concurrent lookups.
	Workers int
	// Poll is the progress refresh interval.
	Poll time.Duration
	// Limit keeps only the first Limit rows; 0 keeps all.
	Limit int
	// LookupTimeout bounds one remote query.
	LookupTimeout time.Duration
	// Timeout bounds the whole run; 0 disables it.
	Timeout  time.Duration
	Endpoint string
	Equinox  string
	Frame    string

	Quiet       bool
	Verbose     bool
	TUI         bool
	NoColor     bool
	LogLevel    string
	LogFormat   string
	MetricsAddr string

	ConfigFile string
	EnvFile    string
	Completion string
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() AppConfig {
	return AppConfig{
		Column:          catalog.DefaultFlagColumn,
		Radius:          float64(lookup.DefaultSearchRadius),
		RedshiftCeiling: crossmatch.DefaultRedshiftCeiling,
		Workers:         orchestration.DefaultConcurrency,
		Poll:            progress.DefaultPollInterval,
		LookupTimeout:   lookup.DefaultLookupTimeout,
		Endpoint:        lookup.DefaultNEDEndpoint,
		Equinox:         catalog.DefaultEquinox,
		Frame:           catalog.DefaultFrame,
		LogLevel:        "info",
		LogFormat:       "console",
	}
}

// ParseConfig builds the configuration for args (without the program name).
// Priority is flags, then environment, then the YAML file, then defaults.
// flag.ErrHelp is returned unchanged when help was requested.
func ParseConfig(programName string, args []string, errorWriter io.Writer) (AppConfig, error) {
	cfg := Defaults()
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)
	registerFlags(fs, &cfg)
	fs.Usage = func() { printUsage(fs, programName) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return cfg, err
		}
		return cfg, apperrors.NewConfigError("%v", err)
	}
	if cfg.Catalog == "" && fs.NArg() > 0 {
		cfg.Catalog = fs.Arg(0)
	}
	if fs.NArg() > 1 {
		return cfg, apperrors.NewConfigError("unexpected arguments: %s", strings.Join(fs.Args()[1:], " "))
	}
	if cfg.Completion != "" {
		return cfg, nil
	}

	if err := loadEnvFile(fs, cfg.EnvFile); err != nil {
		return cfg, err
	}
	if !isFlagSet(fs, "config") {
		cfg.ConfigFile = getEnvString("CONFIG", cfg.ConfigFile)
	}
	file, err := loadYAML(cfg.ConfigFile)
	if err != nil {
		return cfg, err
	}
	if err := applyOverrides(&cfg, fs, file); err != nil {
		return cfg, err
	}
	if cfg.Verbose && !isFlagSet(fs, "log-level") {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func registerFlags(fs *flag.FlagSet, cfg *AppConfig) {
	fs.StringVar(&cfg.Catalog, "catalog", cfg.Catalog, "Input catalog (CSV with RA, DEC and SOURCE columns; .gz and .zst accepted).")
	fs.StringVar(&cfg.Output, "output", cfg.Output, "Write the augmented catalog to this location.")
	fs.StringVar(&cfg.Output, "o", cfg.Output, "Shorthand for --output.")
	fs.StringVar(&cfg.Format, "format", cfg.Format, "Output format: csv, json or parquet (default: from the output extension).")
	fs.StringVar(&cfg.Column, "column", cfg.Column, "Name of the appended flag column.")
	fs.Float64Var(&cfg.Radius, "radius", cfg.Radius, "Search radius in arcseconds.")
	fs.Float64Var(&cfg.RedshiftCeiling, "z-max", cfg.RedshiftCeiling, "A candidate matches when its redshift is below this value.")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Number of concurrent lookups.")
	fs.DurationVar(&cfg.Poll, "poll", cfg.Poll, "Progress refresh interval.")
	fs.IntVar(&cfg.Limit, "limit", cfg.Limit, "Process only the first N rows (0 = all).")
	fs.DurationVar(&cfg.LookupTimeout, "lookup-timeout", cfg.LookupTimeout, "Deadline of a single lookup.")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Deadline of the whole run (0 = none).")
	fs.StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "NED object search URL.")
	fs.StringVar(&cfg.Equinox, "equinox", cfg.Equinox, "Equinox of the catalog coordinates.")
	fs.StringVar(&cfg.Frame, "frame", cfg.Frame, "Reference frame of the catalog coordinates.")
	fs.BoolVar(&cfg.Quiet, "quiet", cfg.Quiet, "Print only the found and not found counts.")
	fs.BoolVar(&cfg.Quiet, "q", cfg.Quiet, "Shorthand for --quiet.")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Log at debug level.")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Shorthand for --verbose.")
	fs.BoolVar(&cfg.TUI, "tui", cfg.TUI, "Run inside the interactive dashboard.")
	fs.BoolVar(&cfg.NoColor, "no-color", cfg.NoColor, "Disable colored output.")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error.")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: console or json.")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Serve Prometheus metrics on this address during the run.")
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "YAML configuration file.")
	fs.StringVar(&cfg.EnvFile, "env-file", cfg.EnvFile, "Environment file loaded before NEDMATCH_* overrides (default: .env if present).")
	fs.StringVar(&cfg.Completion, "completion", cfg.Completion, "Print a completion script for bash, zsh or fish.")
	fs.Bool("version", false, "Show version information.")
	fs.Bool("V", false, "Shorthand for --version.")
}

func printUsage(fs *flag.FlagSet, programName string) {
	out := fs.Output()
	fmt.Fprintf(out, "Usage: %s [options] [catalog]\n\n", programName)
	fmt.Fprintf(out, "Flags every catalog row whose position has no NED object with a redshift\nbelow --z-max within --radius.\n\nOptions:\n")
	fs.PrintDefaults()
	fmt.Fprintf(out, "\nEvery option can also be set with %s<NAME> (e.g. %sWORKERS=8)\nor as a key of the --config YAML file (e.g. \"workers: 8\").\n", EnvPrefix, EnvPrefix)
}

// Validate checks the configuration for values the run cannot use.
func (c AppConfig) Validate() error {
	switch {
	case c.Catalog == "":
		return apperrors.ValidationError{Field: "catalog", Message: "an input catalog is required"}
	case c.Workers < 1:
		return apperrors.ValidationError{Field: "workers", Message: fmt.Sprintf("must be at least 1, got %d", c.Workers)}
	case !(c.Radius > 0) || math.IsInf(c.Radius, 0):
		return apperrors.ValidationError{Field: "radius", Message: fmt.Sprintf("must be a positive number of arcseconds, got %v", c.Radius)}
	case math.IsNaN(c.RedshiftCeiling) || math.IsInf(c.RedshiftCeiling, 0):
		return apperrors.ValidationError{Field: "z-max", Message: fmt.Sprintf("must be finite, got %v", c.RedshiftCeiling)}
	case c.Poll <= 0:
		return apperrors.ValidationError{Field: "poll", Message: "must be positive"}
	case c.Limit < 0:
		return apperrors.ValidationError{Field: "limit", Message: fmt.Sprintf("must not be negative, got %d", c.Limit)}
	case c.LookupTimeout < 0 || c.Timeout < 0:
		return apperrors.ValidationError{Field: "timeout", Message: "must not be negative"}
	case c.Column == "":
		return apperrors.ValidationError{Field: "column", Message: "must not be empty"}
	case c.Quiet && c.TUI:
		return apperrors.ValidationError{Field: "tui", Message: "cannot be combined with --quiet"}
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return apperrors.ValidationError{Field: "log-format", Message: fmt.Sprintf("unknown format %q (console, json)", c.LogFormat)}
	}
	if _, err := c.OutputFormat(); err != nil {
		return err
	}
	return nil
}

// OutputFormat resolves Format against the Output location.
func (c AppConfig) OutputFormat() (catalog.Format, error) {
	return catalog.ParseFormat(c.Format, c.Output)
}

// SearchRadius returns Radius as an angle.
func (c AppConfig) SearchRadius() lookup.Angle { return lookup.Angle(c.Radius) }
