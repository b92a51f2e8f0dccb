// Package metrics exposes batch metrics in the Prometheus format and samples
// process and host resource usage for the summary and the dashboard.
package metrics
