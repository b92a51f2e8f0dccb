package catalog

import (
	"fmt"
	"math"

	apperrors "github.com/agbru/nedmatch/internal/errors"
)

// Reference frame defaults used for every catalog position.
const (
	DefaultFrame   = "fk5"
	DefaultEquinox = "J2000.0"
)

// SkyPosition is an equatorial coordinate in degrees.
type SkyPosition struct {
	RA      float64
	Dec     float64
	Frame   string
	Equinox string
}

// NewSkyPosition validates and normalises a coordinate pair in the default
// frame. RA is wrapped into [0, 360); Dec must lie in [-90, 90].
func NewSkyPosition(ra, dec float64) (SkyPosition, error) {
	if math.IsNaN(ra) || math.IsInf(ra, 0) {
		return SkyPosition{}, apperrors.ValidationError{Field: "RA", Message: fmt.Sprintf("not a finite angle: %v", ra)}
	}
	if math.IsNaN(dec) || math.IsInf(dec, 0) || dec < -90 || dec > 90 {
		return SkyPosition{}, apperrors.ValidationError{Field: "DEC", Message: fmt.Sprintf("outside [-90, 90]: %v", dec)}
	}
	ra = math.Mod(ra, 360)
	if ra < 0 {
		ra += 360
	}
	// Adding 360 to a tiny negative RA rounds to exactly 360; -0 becomes 0.
	if ra >= 360 || ra == 0 {
		ra = 0
	}
	return SkyPosition{RA: ra, Dec: dec, Frame: DefaultFrame, Equinox: DefaultEquinox}, nil
}

// In returns a copy of p tagged with another frame and equinox.
func (p SkyPosition) In(frame, equinox string) SkyPosition {
	p.Frame = frame
	p.Equinox = equinox
	return p
}

// String formats the position as "ra dec (frame equinox)".
func (p SkyPosition) String() string {
	return fmt.Sprintf("%.6fd %+.6fd (%s %s)", p.RA, p.Dec, p.Frame, p.Equinox)
}
