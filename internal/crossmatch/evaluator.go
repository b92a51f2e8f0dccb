package crossmatch

import (
	"math"

	"github.com/agbru/nedmatch/internal/lookup"
)

// DefaultRedshiftCeiling is the redshift below which a candidate counts as a
// match.
const DefaultRedshiftCeiling = 0.06

// Evaluator applies the redshift criterion to the candidates of one lookup.
type Evaluator struct {
	RedshiftCeiling float64
}

// NewEvaluator returns an Evaluator with the given ceiling.
func NewEvaluator(ceiling float64) Evaluator {
	return Evaluator{RedshiftCeiling: ceiling}
}

// Qualifying returns the candidates with a measured redshift strictly below
// the ceiling. NaN never qualifies.
func (e Evaluator) Qualifying(cands []lookup.Candidate) []lookup.Candidate {
	ceiling := e.RedshiftCeiling
	var out []lookup.Candidate
	for _, c := range cands {
		if c.Redshift == nil {
			continue
		}
		z := *c.Redshift
		if math.IsNaN(z) || !(z < ceiling) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Evaluate reports whether the row is "not found", i.e. no candidate
// qualifies.
func (e Evaluator) Evaluate(cands []lookup.Candidate) (notFound bool) {
	return len(e.Qualifying(cands)) == 0
}

// Reason explains a ResultRecord for summaries, metrics and logs. It never
// changes the meaning of the NotFound flag.
type Reason int

const (
	// ReasonMatched means at least one candidate qualified.
	ReasonMatched Reason = iota
	// ReasonNoQualifying means the lookup succeeded but nothing qualified.
	ReasonNoQualifying
	// ReasonLookupFailed means the lookup itself failed.
	ReasonLookupFailed
)

// String returns the label used in logs and metrics.
func (r Reason) String() string {
	switch r {
	case ReasonMatched:
		return "matched"
	case ReasonNoQualifying:
		return "no_qualifying"
	case ReasonLookupFailed:
		return "lookup_failed"
	default:
		return "unknown"
	}
}

// Classify maps a lookup outcome to the row's flag. A failed lookup is
// always "not found".
func (e Evaluator) Classify(o lookup.Outcome) (notFound bool, reason Reason) {
	if !o.IsSuccess() {
		return true, ReasonLookupFailed
	}
	if e.Evaluate(o.Candidates()) {
		return true, ReasonNoQualifying
	}
	return false, ReasonMatched
}
