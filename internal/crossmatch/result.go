package crossmatch

import (
	"time"
)

// ResultRecord is the decision for one catalog row.
type ResultRecord struct {
	Index    int
	NotFound bool
	Reason   Reason
}

// Flag returns NotFound as 0 or 1.
func (r ResultRecord) Flag() int {
	if r.NotFound {
		return 1
	}
	return 0
}

// Summary counts the records of a finished batch.
type Summary struct {
	Total    int
	Found    int
	NotFound int
	// Failed is the subset of NotFound whose lookup failed.
	Failed   int
	Duration time.Duration
}

// Summarize counts results.
func Summarize(results []ResultRecord, duration time.Duration) Summary {
	s := Summary{Total: len(results), Duration: duration}
	for _, r := range results {
		if !r.NotFound {
			s.Found++
			continue
		}
		s.NotFound++
		if r.Reason == ReasonLookupFailed {
			s.Failed++
		}
	}
	return s
}
