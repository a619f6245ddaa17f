package imageio

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/MeKo-Tech/noisewarp/internal/grid"
	"github.com/MeKo-Tech/noisewarp/internal/noise"
	"github.com/MeKo-Tech/noisewarp/internal/warp"
)

// ToRaster copies img into a row-major raster with non-premultiplied channels
// in [0, 1].
func ToRaster(img image.Image) (warp.Raster, grid.Dims) {
	bounds := img.Bounds()
	dims := grid.Dims{Width: bounds.Dx(), Height: bounds.Dy()}
	out := make(warp.Raster, dims.Len())

	nrgba, isNRGBA := img.(*image.NRGBA)
	for y := 0; y < dims.Height; y++ {
		for x := 0; x < dims.Width; x++ {
			var c color.NRGBA
			if isNRGBA {
				c = nrgba.NRGBAAt(bounds.Min.X+x, bounds.Min.Y+y)
			} else {
				c = color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			}
			out[dims.Index(x, y)] = PixelFromNRGBA(c)
		}
	}
	return out, dims
}

// FromRaster builds an image from a raster of the given dimensions.
func FromRaster(r warp.Raster, width, height int) (*image.NRGBA, error) {
	dims, err := grid.NewDims(width, height)
	if err != nil {
		return nil, err
	}
	if err := dims.CheckLen("raster", len(r)); err != nil {
		return nil, err
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, NRGBAFromPixel(r[dims.Index(x, y)]))
		}
	}
	return img, nil
}

// PixelFromNRGBA normalizes an 8-bit color.
func PixelFromNRGBA(c color.NRGBA) warp.Pixel {
	return warp.Pixel{
		R: float32(c.R) / 255,
		G: float32(c.G) / 255,
		B: float32(c.B) / 255,
		A: float32(c.A) / 255,
	}
}

// NRGBAFromPixel quantizes a pixel, clamping channels to [0, 1].
func NRGBAFromPixel(p warp.Pixel) color.NRGBA {
	return color.NRGBA{R: to8(p.R), G: to8(p.G), B: to8(p.B), A: to8(p.A)}
}

func to8(v float32) uint8 {
	f := float64(v)
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f >= 1 {
		return 255
	}
	return uint8(math.Round(f * 255))
}

// FieldImage renders a field as grayscale, mapping lo to black and hi to
// white. Values outside [lo, hi] saturate.
func FieldImage(f noise.Field, width, height int, lo, hi float64) (*image.Gray, error) {
	dims, err := grid.NewDims(width, height)
	if err != nil {
		return nil, err
	}
	if err := dims.CheckLen("field", len(f)); err != nil {
		return nil, err
	}
	if !(hi > lo) {
		return nil, fmt.Errorf("invalid field range [%v, %v]", lo, hi)
	}

	img := image.NewGray(image.Rect(0, 0, width, height))
	span := hi - lo
	for i, v := range f {
		x, y := dims.Coords(i)
		normalized := (v - lo) / span
		gray := uint8(math.Round(math.Max(0, math.Min(1, normalized)) * 255))
		img.SetGray(x, y, color.Gray{Y: gray})
	}
	return img, nil
}
