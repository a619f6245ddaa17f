// Package warp displaces raster pixels by a scalar noise field (domain warping).
package warp

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/noisewarp/internal/grid"
	"github.com/MeKo-Tech/noisewarp/internal/noise"
	"github.com/MeKo-Tech/noisewarp/internal/parallel"
)

// Pixel is an engine-agnostic color with normalized channels in [0, 1].
type Pixel struct {
	R, G, B, A float32
}

// Raster is a row-major pixel buffer.
type Raster []Pixel

// Params configure a distortion.
type Params struct {
	Amount   float64 // pixels of displacement per unit of field value
	Rounding Rounding
}

// DefaultParams returns the standard distortion settings.
func DefaultParams() Params {
	return Params{
		Amount:   50.0,
		Rounding: RoundHalfEven,
	}
}

// Distort runs DistortWith on the calling goroutine.
func Distort[P any](field []float64, src []P, width, height int, p Params) ([]P, error) {
	return DistortWith(parallel.Sequential{}, field, src, width, height, p)
}

// DistortWith builds a new buffer where every cell i = (x, y) takes the source
// pixel at (x+shift, y+shift), shift = round(field[i] * p.Amount), clamped to
// the grid. Both axes move by the same shift. field and src must both hold
// width*height cells and p.Rounding must be a declared mode; on error no
// output is returned.
func DistortWith[P any](exec parallel.Executor, field []float64, src []P, width, height int, p Params) ([]P, error) {
	dims, err := grid.NewDims(width, height)
	if err != nil {
		return nil, fmt.Errorf("distort: %w", err)
	}
	if err := dims.CheckLen("scalar field", len(field)); err != nil {
		return nil, fmt.Errorf("distort: %w", err)
	}
	if err := dims.CheckLen("source raster", len(src)); err != nil {
		return nil, fmt.Errorf("distort: %w", err)
	}
	if err := p.Rounding.Validate(); err != nil {
		return nil, fmt.Errorf("distort: %w", err)
	}

	limit := max(width, height)
	dst := make([]P, dims.Len())

	parallel.OrSequential(exec).For(len(dst), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			x, y := dims.Coords(i)
			shift := p.Rounding.shift(field[i]*p.Amount, limit)
			srcX := grid.Clamp(x+shift, 0, width-1)
			srcY := grid.Clamp(y+shift, 0, height-1)
			dst[i] = src[dims.Index(srcX, srcY)]
		}
	})
	return dst, nil
}

// Resampler distorts rasters with a fixed executor and rounding mode.
type Resampler struct {
	executor parallel.Executor
	rounding Rounding
	logger   *slog.Logger
}

// NewResampler creates a resampler. A nil executor runs sequentially.
func NewResampler(exec parallel.Executor, rounding Rounding, logger *slog.Logger) *Resampler {
	return &Resampler{
		executor: parallel.OrSequential(exec),
		rounding: rounding,
		logger:   logger,
	}
}

// Distort warps src by field scaled with amount.
func (r *Resampler) Distort(field noise.Field, src Raster, width, height int, amount float64) (Raster, error) {
	start := time.Now()
	out, err := DistortWith(r.executor, field, src, width, height, Params{Amount: amount, Rounding: r.rounding})
	if err != nil {
		return nil, err
	}

	r.log().Debug("Distorted raster",
		"width", width,
		"height", height,
		"amount", amount,
		"rounding", r.rounding.String(),
		"elapsed", time.Since(start),
	)
	return out, nil
}

func (r *Resampler) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}
