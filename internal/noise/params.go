package noise

import (
	"errors"
	"fmt"
	"math"
)

// Origin offsets every sampled coordinate away from the noise origin, where
// the lattice is symmetric.
const Origin = 500.0

// ErrInvalidParameter is returned for parameters outside their domain.
var ErrInvalidParameter = errors.New("invalid noise parameter")

// Params configure field generation.
type Params struct {
	Scale       float64 // size of the sampled domain area
	Octaves     int     // number of FBM layers, >= 1
	Lacunarity  float64 // frequency multiplier per octave
	Persistence float64 // amplitude multiplier per octave
	RemoveBias  bool    // subtract 0.5 from every primitive sample
}

// DefaultParams returns the standard field settings.
func DefaultParams() Params {
	return Params{
		Scale:       6.5,
		Octaves:     3,
		Lacunarity:  2.4,
		Persistence: 0.3,
		RemoveBias:  true,
	}
}

// Validate rejects an octave count below one. Zero scale, lacunarity or
// persistence are degenerate but legal.
func (p Params) Validate() error {
	if p.Octaves < 1 {
		return fmt.Errorf("%w: octaves must be at least 1, got %d", ErrInvalidParameter, p.Octaves)
	}
	return nil
}

// Amplitudes returns the weight of each octave: persistence^k.
func (p Params) Amplitudes() []float64 {
	if p.Octaves < 1 {
		return nil
	}
	amps := make([]float64, p.Octaves)
	amplitude := 1.0
	for k := range amps {
		amps[k] = amplitude
		amplitude *= p.Persistence
	}
	return amps
}

// Bound is the sum of absolute octave weights. With persistence in (0, 1) it
// stays below 1/(1-persistence).
func (p Params) Bound() float64 {
	var b float64
	for _, a := range p.Amplitudes() {
		b += math.Abs(a)
	}
	return b
}

// Range is the nominal value range of a field generated with p.
// Single-layer fields (Octaves == 1) get [-0.5, 0.5] or [0, 1].
func (p Params) Range() (lo, hi float64) {
	b := p.Bound()
	if p.RemoveBias {
		return -0.5 * b, 0.5 * b
	}
	return 0, b
}

func (p Params) bias() float64 {
	if p.RemoveBias {
		return 0.5
	}
	return 0
}
