// Package crossmatch decides, for each catalog row, whether the name-resolution
// service knows a nearby object with a low enough redshift, and reassembles
// the per-row decisions into an augmented catalog.
//
// The flow for one row is:
//
//	catalog.Row -> lookup.Resolve -> lookup.Outcome -> Classify -> ResultRecord
//
// NewTask packages that flow as a TaskFunc for the worker pool in
// internal/orchestration. Aggregate then checks that every row produced
// exactly one record before joining the flags onto the table.
package crossmatch
