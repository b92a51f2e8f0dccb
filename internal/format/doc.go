// Package format renders durations, counts, progress bars and time-left
// estimates for the CLI and the dashboard.
package format
