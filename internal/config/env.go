package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/agbru/nedmatch/internal/errors"
)

// getEnvString returns the value of EnvPrefix+key, or defaultVal when unset.
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		return val
	}
	return defaultVal
}

// isFlagSet checks whether a flag was given on the command line.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// isFlagSetAny checks whether any of the aliases was given.
func isFlagSetAny(fs *flag.FlagSet, names ...string) bool {
	for _, name := range names {
		if isFlagSet(fs, name) {
			return true
		}
	}
	return false
}

// override maps one setting to its environment key (without EnvPrefix) and
// its flag names. The first flag name doubles as the YAML key.
type override struct {
	envKey string
	flags  []string
	apply  func(*AppConfig, string) error
}

func stringSetting(set func(*AppConfig, string)) func(*AppConfig, string) error {
	return func(c *AppConfig, v string) error {
		set(c, v)
		return nil
	}
}

func intSetting(set func(*AppConfig, int)) func(*AppConfig, string) error {
	return func(c *AppConfig, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		set(c, n)
		return nil
	}
}

func floatSetting(set func(*AppConfig, float64)) func(*AppConfig, string) error {
	return func(c *AppConfig, v string) error {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return err
		}
		set(c, f)
		return nil
	}
}

func durationSetting(set func(*AppConfig, time.Duration)) func(*AppConfig, string) error {
	return func(c *AppConfig, v string) error {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		set(c, d)
		return nil
	}
}

func boolSetting(set func(*AppConfig, bool)) func(*AppConfig, string) error {
	return func(c *AppConfig, v string) error {
		b, ok := parseBool(v)
		if !ok {
			return fmt.Errorf("not a boolean: %q", v)
		}
		set(c, b)
		return nil
	}
}

// parseBool accepts true/1/yes and false/0/no, case-insensitively.
func parseBool(val string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "true", "1", "yes":
		return true, true
	case "false", "0", "no":
		return false, true
	}
	return false, false
}

// overrides is the declarative table of settings reachable from the
// environment and the YAML file.
var overrides = []override{
	{"CATALOG", []string{"catalog"}, stringSetting(func(c *AppConfig, v string) { c.Catalog = v })},
	{"OUTPUT", []string{"output", "o"}, stringSetting(func(c *AppConfig, v string) { c.Output = v })},
	{"FORMAT", []string{"format"}, stringSetting(func(c *AppConfig, v string) { c.Format = v })},
	{"COLUMN", []string{"column"}, stringSetting(func(c *AppConfig, v string) { c.Column = v })},
	{"ENDPOINT", []string{"endpoint"}, stringSetting(func(c *AppConfig, v string) { c.Endpoint = v })},
	{"EQUINOX", []string{"equinox"}, stringSetting(func(c *AppConfig, v string) { c.Equinox = v })},
	{"FRAME", []string{"frame"}, stringSetting(func(c *AppConfig, v string) { c.Frame = v })},
	{"LOG_LEVEL", []string{"log-level"}, stringSetting(func(c *AppConfig, v string) { c.LogLevel = v })},
	{"LOG_FORMAT", []string{"log-format"}, stringSetting(func(c *AppConfig, v string) { c.LogFormat = v })},
	{"METRICS_ADDR", []string{"metrics-addr"}, stringSetting(func(c *AppConfig, v string) { c.MetricsAddr = v })},

	{"RADIUS", []string{"radius"}, floatSetting(func(c *AppConfig, v float64) { c.Radius = v })},
	{"Z_MAX", []string{"z-max"}, floatSetting(func(c *AppConfig, v float64) { c.RedshiftCeiling = v })},
	{"WORKERS", []string{"workers"}, intSetting(func(c *AppConfig, v int) { c.Workers = v })},
	{"LIMIT", []string{"limit"}, intSetting(func(c *AppConfig, v int) { c.Limit = v })},

	{"POLL", []string{"poll"}, durationSetting(func(c *AppConfig, v time.Duration) { c.Poll = v })},
	{"LOOKUP_TIMEOUT", []string{"lookup-timeout"}, durationSetting(func(c *AppConfig, v time.Duration) { c.LookupTimeout = v })},
	{"TIMEOUT", []string{"timeout"}, durationSetting(func(c *AppConfig, v time.Duration) { c.Timeout = v })},

	{"QUIET", []string{"quiet", "q"}, boolSetting(func(c *AppConfig, v bool) { c.Quiet = v })},
	{"VERBOSE", []string{"verbose", "v"}, boolSetting(func(c *AppConfig, v bool) { c.Verbose = v })},
	{"TUI", []string{"tui"}, boolSetting(func(c *AppConfig, v bool) { c.TUI = v })},
	{"NO_COLOR", []string{"no-color"}, boolSetting(func(c *AppConfig, v bool) { c.NoColor = v })},
}

// applyOverrides fills every setting whose flag was not given, from the
// environment first and then from file. An unparsable value is a
// ConfigError naming its source.
func applyOverrides(cfg *AppConfig, fs *flag.FlagSet, file map[string]string) error {
	for _, o := range overrides {
		if isFlagSetAny(fs, o.flags...) {
			continue
		}
		if val := os.Getenv(EnvPrefix + o.envKey); val != "" {
			if err := o.apply(cfg, val); err != nil {
				return apperrors.NewConfigError("invalid %s%s: %v", EnvPrefix, o.envKey, err)
			}
			continue
		}
		if val, ok := file[o.flags[0]]; ok {
			if err := o.apply(cfg, val); err != nil {
				return apperrors.NewConfigError("invalid %q in %s: %v", o.flags[0], cfg.ConfigFile, err)
			}
		}
	}
	return nil
}
