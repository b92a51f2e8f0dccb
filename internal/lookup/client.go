//go:generate mockgen -source=client.go -destination=mocks/mock_client.go -package=mocks

// Package lookup queries a name-resolution service for the objects near a
// sky position.
package lookup

import (
	"context"
	"fmt"

	"github.com/agbru/nedmatch/internal/catalog"
)

// Angle is an angular distance in arcseconds.
type Angle float64

// Arcmin returns the angle in arcminutes.
func (a Angle) Arcmin() float64 { return float64(a) / 60 }

// Degrees returns the angle in degrees.
func (a Angle) Degrees() float64 { return float64(a) / 3600 }

// String formats the angle in arcseconds.
func (a Angle) String() string { return fmt.Sprintf("%g\"", float64(a)) }

// DefaultSearchRadius is the cone radius used when none is configured.
const DefaultSearchRadius Angle = 10

// Query describes one cone search.
type Query struct {
	Position catalog.SkyPosition
	Radius   Angle
}

// Candidate is one object returned by a cone search.
type Candidate struct {
	Name string
	RA   float64
	Dec  float64
	Type string
	// Redshift is nil when the service has no measurement.
	Redshift *float64
	// Separation from the search position.
	Separation Angle
}

// HasRedshift reports whether a redshift measurement is present.
func (c Candidate) HasRedshift() bool { return c.Redshift != nil }

// Client performs cone searches. Implementations must be safe for concurrent
// use. A search that finds nothing returns an empty slice and a nil error.
type Client interface {
	Query(ctx context.Context, q Query) ([]Candidate, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, q Query) ([]Candidate, error)

// Query calls f.
func (f ClientFunc) Query(ctx context.Context, q Query) ([]Candidate, error) {
	return f(ctx, q)
}
