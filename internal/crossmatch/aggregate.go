package crossmatch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/agbru/nedmatch/internal/catalog"
	apperrors "github.com/agbru/nedmatch/internal/errors"
)

// Names of the properties checked by Aggregate.
const (
	InvariantCount    = "count"
	InvariantInRange  = "in-range"
	InvariantUnique   = "unique"
	InvariantComplete = "complete"
)

// Aggregate joins results onto table as the flag column named column.
// results may arrive in any order and is not modified, so calling Aggregate
// twice with the same input gives the same catalog.
//
// Exactly one record per row is required. Otherwise every violation is
// reported in a single apperrors.IntegrityError and no catalog is returned.
func Aggregate(table *catalog.Table, results []ResultRecord, column string) (*catalog.Augmented, error) {
	n := table.Len()
	sorted := append([]ResultRecord(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	counts := make([]int, n)
	var outOfRange, duplicates, missing []int
	for _, r := range sorted {
		if r.Index < 0 || r.Index >= n {
			outOfRange = append(outOfRange, r.Index)
			continue
		}
		counts[r.Index]++
		if counts[r.Index] == 2 {
			duplicates = append(duplicates, r.Index)
		}
	}
	for i, c := range counts {
		if c == 0 {
			missing = append(missing, i)
		}
	}

	var violations *multierror.Error
	var names []string
	if len(sorted) != n {
		names = append(names, InvariantCount)
		violations = multierror.Append(violations, fmt.Errorf("expected %d results, received %d", n, len(sorted)))
	}
	if len(outOfRange) > 0 {
		names = append(names, InvariantInRange)
		violations = multierror.Append(violations, fmt.Errorf("%d result(s) outside [0, %d)", len(outOfRange), n))
	}
	if len(duplicates) > 0 {
		names = append(names, InvariantUnique)
		violations = multierror.Append(violations, fmt.Errorf("%d row(s) have more than one result", len(duplicates)))
	}
	if len(missing) > 0 {
		names = append(names, InvariantComplete)
		violations = multierror.Append(violations, fmt.Errorf("%d row(s) have no result", len(missing)))
	}
	if err := violations.ErrorOrNil(); err != nil {
		return nil, apperrors.IntegrityError{
			Invariant:  strings.Join(names, ","),
			Expected:   n,
			Received:   len(sorted),
			Missing:    missing,
			Duplicates: duplicates,
			OutOfRange: outOfRange,
			Cause:      err,
		}
	}

	flags := make([]bool, n)
	for _, r := range sorted {
		flags[r.Index] = r.NotFound
	}
	return catalog.NewAugmented(table, column, flags)
}
