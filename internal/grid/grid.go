// Package grid holds the row-major grid geometry shared by noise fields and rasters.
package grid

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidDimensions is returned when width or height is not positive.
	ErrInvalidDimensions = errors.New("invalid grid dimensions")
	// ErrDimensionMismatch is returned when buffers of one call disagree in length.
	ErrDimensionMismatch = errors.New("grid dimension mismatch")
)

// Dims describes a width x height grid stored in row-major order.
type Dims struct {
	Width  int
	Height int
}

// NewDims validates width and height.
func NewDims(width, height int) (Dims, error) {
	d := Dims{Width: width, Height: height}
	if err := d.Validate(); err != nil {
		return Dims{}, err
	}
	return d, nil
}

// Validate reports ErrInvalidDimensions for non-positive sizes and for grids
// whose cell count does not fit in an int.
func (d Dims) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, d.Width, d.Height)
	}
	if d.Width > math.MaxInt/d.Height {
		return fmt.Errorf("%w: %dx%d overflows the cell count", ErrInvalidDimensions, d.Width, d.Height)
	}
	return nil
}

// Len is the number of cells.
func (d Dims) Len() int { return d.Width * d.Height }

// Index returns the row-major index of (x, y).
func (d Dims) Index(x, y int) int { return y*d.Width + x }

// Coords splits a row-major index into (x, y).
func (d Dims) Coords(i int) (x, y int) {
	return i % d.Width, i / d.Width
}

// CheckLen reports ErrDimensionMismatch when a buffer does not hold exactly Len cells.
func (d Dims) CheckLen(name string, n int) error {
	if n != d.Len() {
		return fmt.Errorf("%w: %s has %d cells, want %d (%dx%d)", ErrDimensionMismatch, name, n, d.Len(), d.Width, d.Height)
	}
	return nil
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (d Dims) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}
