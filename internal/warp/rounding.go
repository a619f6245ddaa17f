package warp

import (
	"fmt"
	"math"
	"strings"

	"github.com/MeKo-Tech/noisewarp/internal/noise"
)

// Rounding selects how a fractional displacement becomes a pixel shift.
// Values other than the declared constants are rejected by Distort.
type Rounding int

const (
	// RoundHalfEven rounds ties to the nearest even integer (2.5 -> 2).
	RoundHalfEven Rounding = iota
	// RoundHalfAwayFromZero rounds ties away from zero (2.5 -> 3, -2.5 -> -3).
	RoundHalfAwayFromZero
)

func (r Rounding) String() string {
	switch r {
	case RoundHalfEven:
		return "half-even"
	case RoundHalfAwayFromZero:
		return "half-away"
	default:
		return fmt.Sprintf("Rounding(%d)", int(r))
	}
}

// ParseRounding accepts "half-even" (or "even", "bankers") and "half-away"
// (or "away").
func ParseRounding(s string) (Rounding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "half-even", "even", "bankers":
		return RoundHalfEven, nil
	case "half-away", "away", "half-away-from-zero":
		return RoundHalfAwayFromZero, nil
	default:
		return 0, fmt.Errorf("%w: unknown rounding mode %q: must be 'half-even' or 'half-away'", noise.ErrInvalidParameter, s)
	}
}

// Validate reports ErrInvalidParameter for undeclared rounding modes.
func (r Rounding) Validate() error {
	switch r {
	case RoundHalfEven, RoundHalfAwayFromZero:
		return nil
	default:
		return fmt.Errorf("%w: unknown rounding mode %s", noise.ErrInvalidParameter, r)
	}
}

func (r Rounding) apply(v float64) float64 {
	if r == RoundHalfAwayFromZero {
		return math.Round(v)
	}
	return math.RoundToEven(v)
}

// shift converts displacement v to an integer shift. The result is limited
// to +/-limit, which leaves the clamped source pixel unchanged; NaN gives 0.
func (r Rounding) shift(v float64, limit int) int {
	if math.IsNaN(v) {
		return 0
	}
	v = r.apply(v)
	if v > float64(limit) {
		return limit
	}
	if v < -float64(limit) {
		return -limit
	}
	return int(v)
}
