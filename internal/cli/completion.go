package cli

import (
	"fmt"
	"io"
	"strings"
)

// FlagCompletion describes a command-line flag for completion scripts.
// Every generator reads flagRegistry, so a new flag only needs an entry there.
type FlagCompletion struct {
	Long      string   // long name without "--"
	Short     string   // short name without "-"
	Help      string   // description text
	Values    []string // suggested values, nil for booleans and free-form values
	ValueName string   // value label, empty for booleans
	IsFile    bool     // the value is a path
}

// takesValue reports whether the flag expects an argument.
func (f FlagCompletion) takesValue() bool {
	return f.ValueName != "" || f.IsFile || len(f.Values) > 0
}

var flagRegistry = []FlagCompletion{
	{Long: "help", Short: "h", Help: "Show help message"},
	{Long: "version", Short: "V", Help: "Show version information"},
	{Long: "catalog", Help: "Input catalog (CSV, optionally gzip or zstd)", IsFile: true, ValueName: "file"},
	{Long: "output", Short: "o", Help: "Output location for the augmented catalog", IsFile: true, ValueName: "file"},
	{Long: "format", Help: "Output format", Values: []string{"csv", "json", "parquet"}, ValueName: "format"},
	{Long: "column", Help: "Name of the appended flag column", ValueName: "name"},
	{Long: "radius", Help: "Search radius in arcseconds", Values: []string{"5", "10", "30", "60"}, ValueName: "arcsec"},
	{Long: "z-max", Help: "Redshift ceiling for a match", Values: []string{"0.03", "0.06", "0.1"}, ValueName: "z"},
	{Long: "workers", Help: "Concurrent lookups", Values: []string{"1", "2", "4", "8", "16"}, ValueName: "number"},
	{Long: "poll", Help: "Progress refresh interval", Values: []string{"250ms", "1s", "5s"}, ValueName: "duration"},
	{Long: "limit", Help: "Process only the first N rows", ValueName: "rows"},
	{Long: "lookup-timeout", Help: "Deadline of a single lookup", Values: []string{"10s", "30s", "60s", "2m"}, ValueName: "duration"},
	{Long: "timeout", Help: "Deadline of the whole run (0 disables)", Values: []string{"0", "10m", "1h"}, ValueName: "duration"},
	{Long: "endpoint", Help: "NED object search URL", ValueName: "url"},
	{Long: "equinox", Help: "Equinox of the catalog coordinates", Values: []string{"J2000.0", "B1950.0"}, ValueName: "equinox"},
	{Long: "frame", Help: "Reference frame of the catalog coordinates", Values: []string{"fk5", "fk4", "icrs", "galactic", "ecliptic"}, ValueName: "frame"},
	{Long: "quiet", Short: "q", Help: "Print only the found/not found counts"},
	{Long: "verbose", Short: "v", Help: "Debug logging"},
	{Long: "tui", Help: "Interactive dashboard"},
	{Long: "no-color", Help: "Disable colored output"},
	{Long: "log-level", Help: "Log level", Values: []string{"debug", "info", "warn", "error"}, ValueName: "level"},
	{Long: "log-format", Help: "Log format", Values: []string{"console", "json"}, ValueName: "format"},
	{Long: "metrics-addr", Help: "Serve Prometheus metrics on this address", ValueName: "addr"},
	{Long: "config", Help: "YAML configuration file", IsFile: true, ValueName: "file"},
	{Long: "env-file", Help: "Environment file loaded before overrides", IsFile: true, ValueName: "file"},
	{Long: "completion", Help: "Generate completion script", Values: []string{"bash", "zsh", "fish"}, ValueName: "shell"},
}

// GenerateCompletion writes a completion script for shell ("bash", "zsh" or
// "fish") to out.
func GenerateCompletion(out io.Writer, shell string) error {
	var script string
	switch shell {
	case "bash":
		script = bashCompletion()
	case "zsh":
		script = zshCompletion()
	case "fish":
		script = fishCompletion()
	default:
		return fmt.Errorf("unsupported shell: %s (accepted values: bash, zsh, fish)", shell)
	}
	if _, err := fmt.Fprint(out, script); err != nil {
		return fmt.Errorf("completion %s generation failed: %w", shell, err)
	}
	return nil
}

func bashCompletion() string {
	var opts []string
	var cases strings.Builder
	var filePatterns []string
	for _, f := range flagRegistry {
		if f.Long != "" {
			opts = append(opts, "--"+f.Long)
		}
		if f.Short != "" {
			opts = append(opts, "-"+f.Short)
		}
		switch {
		case f.IsFile:
			filePatterns = append(filePatterns, bashPatterns(f)...)
		case len(f.Values) > 0:
			fmt.Fprintf(&cases, "        %s)\n            COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n            return 0\n            ;;\n",
				strings.Join(bashPatterns(f), "|"), strings.Join(f.Values, " "))
		}
	}
	if len(filePatterns) > 0 {
		fmt.Fprintf(&cases, "        %s)\n            COMPREPLY=( $(compgen -f -- \"${cur}\") )\n            return 0\n            ;;\n",
			strings.Join(filePatterns, "|"))
	}

	return fmt.Sprintf(`# Bash completion script for nedmatch
# Add this to your ~/.bashrc or ~/.bash_completion

_nedmatch_completions() {
    local cur prev opts
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"
    opts="%s"

    case "${prev}" in
%s    esac

    if [[ "${cur}" == -* ]]; then
        COMPREPLY=( $(compgen -W "${opts}" -- "${cur}") )
        return 0
    fi
}

complete -F _nedmatch_completions nedmatch
`, strings.Join(opts, " "), cases.String())
}

func bashPatterns(f FlagCompletion) []string {
	var p []string
	if f.Long != "" {
		p = append(p, "--"+f.Long)
	}
	if f.Short != "" {
		p = append(p, "-"+f.Short)
	}
	return p
}

func zshCompletion() string {
	args := make([]string, 0, len(flagRegistry))
	for _, f := range flagRegistry {
		args = append(args, zshArgEntry(f))
	}
	return fmt.Sprintf(`#compdef nedmatch

# Zsh completion script for nedmatch
# Place in a directory of $fpath

_nedmatch() {
    _arguments -s \
%s
}

_nedmatch "$@"
`, strings.Join(args, " \\\n"))
}

func zshArgEntry(f FlagCompletion) string {
	suffix := ""
	switch {
	case f.IsFile:
		suffix = fmt.Sprintf(":%s:_files", f.ValueName)
	case len(f.Values) > 0:
		suffix = fmt.Sprintf(":%s:(%s)", f.ValueName, strings.Join(f.Values, " "))
	case f.ValueName != "":
		suffix = fmt.Sprintf(":%s:", f.ValueName)
	}
	if f.Short != "" {
		return fmt.Sprintf("        '(-%s --%s)'{-%s,--%s}'[%s]%s'", f.Short, f.Long, f.Short, f.Long, f.Help, suffix)
	}
	return fmt.Sprintf("        '--%s[%s]%s'", f.Long, f.Help, suffix)
}

func fishCompletion() string {
	lines := []string{
		"# Fish completion script for nedmatch",
		"# Add this to ~/.config/fish/completions/nedmatch.fish",
		"",
		"complete -c nedmatch -f",
	}
	for _, f := range flagRegistry {
		lines = append(lines, fishCompleteLine(f))
	}
	return strings.Join(lines, "\n") + "\n"
}

func fishCompleteLine(f FlagCompletion) string {
	parts := []string{"complete -c nedmatch"}
	if f.Short != "" {
		parts = append(parts, "-s "+f.Short)
	}
	parts = append(parts, "-l "+f.Long, fmt.Sprintf("-d '%s'", f.Help))
	switch {
	case f.IsFile:
		parts = append(parts, "-rF")
	case len(f.Values) > 0:
		parts = append(parts, fmt.Sprintf("-xa '%s'", strings.Join(f.Values, " ")))
	case f.takesValue():
		parts = append(parts, "-x")
	}
	return strings.Join(parts, " ")
}
