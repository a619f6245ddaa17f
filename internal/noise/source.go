// Package noise evaluates Perlin and fractal (FBM) noise fields over a grid.
package noise

import (
	"github.com/aquilax/go-perlin"
)

// Source is a gradient noise primitive. Evaluate must be deterministic,
// smooth, free of side effects, safe for concurrent use and return values in
// roughly [0, 1].
type Source interface {
	Evaluate(x, y float64) float64
}

// Func adapts a plain function to Source.
type Func func(x, y float64) float64

// Evaluate calls f(x, y).
func (f Func) Evaluate(x, y float64) float64 { return f(x, y) }

// DefaultSeed seeds the Perlin permutation table when the caller has no preference.
const DefaultSeed int64 = 1337

// Perlin is a single-octave classic Perlin noise primitive.
type Perlin struct {
	seed  int64
	noise *perlin.Perlin
}

// NewPerlin builds the permutation and gradient tables for seed.
// Octave summation is done by Generator, so the underlying generator runs a
// single octave and alpha/beta have no effect.
func NewPerlin(seed int64) *Perlin {
	return &Perlin{
		seed:  seed,
		noise: perlin.NewPerlin(2.0, 2.0, 1, seed),
	}
}

// Seed returns the seed the tables were built from.
func (p *Perlin) Seed() int64 { return p.seed }

// Evaluate samples the noise at (x, y), remapped from [-1, 1] to [0, 1].
func (p *Perlin) Evaluate(x, y float64) float64 {
	return (p.noise.Noise2D(x, y) + 1.0) / 2.0
}
