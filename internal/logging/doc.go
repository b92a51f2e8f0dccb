// Package logging provides the structured logger shared by every nedmatch
// component. It wraps zerolog behind a small interface so the worker pool and
// the per-row task can log without depending on zerolog directly.
package logging
