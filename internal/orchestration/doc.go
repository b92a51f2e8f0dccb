// Package orchestration runs a cross-match batch: it fans catalog rows out
// to a fixed pool of workers, relays their progress to a ProgressReporter,
// and drives the batch through its states until the results are joined back
// onto the catalog. Presentation stays behind the ProgressReporter interface.
package orchestration
