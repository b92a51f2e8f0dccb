package lookup

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/agbru/nedmatch/internal/errors"
)

// Outcome is the result of one lookup: either the candidates or the error,
// never both.
type Outcome struct {
	candidates []Candidate
	err        error
}

// Succeeded wraps a successful lookup.
func Succeeded(candidates []Candidate) Outcome {
	return Outcome{candidates: candidates}
}

// Failed wraps a failed lookup.
func Failed(err error) Outcome {
	if err == nil {
		err = errors.New("lookup failed without a cause")
	}
	return Outcome{err: err}
}

// Candidates returns the candidates of a successful lookup, nil otherwise.
func (o Outcome) Candidates() []Candidate { return o.candidates }

// Err returns the failure cause, nil on success.
func (o Outcome) Err() error { return o.err }

// IsSuccess reports whether the lookup succeeded.
func (o Outcome) IsSuccess() bool { return o.err == nil }

// Resolve runs one query for catalog row index. Every error and every panic
// raised by the client becomes a Failed outcome carrying an
// apperrors.LookupError.
func Resolve(ctx context.Context, client Client, index int, q Query) (o Outcome) {
	defer func() {
		if r := recover(); r != nil {
			o = Failed(apperrors.LookupError{Index: index, Cause: fmt.Errorf("client panic: %v", r)})
		}
	}()

	candidates, err := client.Query(ctx, q)
	if err != nil {
		return Failed(apperrors.LookupError{Index: index, Cause: err})
	}
	return Succeeded(candidates)
}
