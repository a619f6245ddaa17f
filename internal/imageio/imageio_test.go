package imageio

import (
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/noisewarp/internal/noise"
	"github.com/MeKo-Tech/noisewarp/internal/warp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradientImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(10*x + y),
				G: uint8(20*y + x),
				B: uint8(x * y),
				A: 255,
			})
		}
	}
	return img
}

func TestRasterRoundTrip(t *testing.T) {
	src := gradientImage(7, 5)

	r, dims := ToRaster(src)
	assert.Equal(t, 7, dims.Width)
	assert.Equal(t, 5, dims.Height)
	require.Len(t, r, 35)

	back, err := FromRaster(r, dims.Width, dims.Height)
	require.NoError(t, err)
	assert.Equal(t, src.Pix, back.Pix)
}

func TestToRasterHandlesOffsetBoundsAndOtherModels(t *testing.T) {
	gray := image.NewGray(image.Rect(3, 2, 6, 4))
	gray.SetGray(3, 2, color.Gray{Y: 255})
	gray.SetGray(5, 3, color.Gray{Y: 51})

	r, dims := ToRaster(gray)
	require.Equal(t, 3, dims.Width)
	require.Equal(t, 2, dims.Height)

	assert.Equal(t, warp.Pixel{R: 1, G: 1, B: 1, A: 1}, r[dims.Index(0, 0)])
	assert.InDelta(t, 0.2, r[dims.Index(2, 1)].R, 1e-6)
}

func TestFromRasterValidation(t *testing.T) {
	_, err := FromRaster(make(warp.Raster, 5), 2, 2)
	assert.Error(t, err)
	_, err = FromRaster(nil, 0, 2)
	assert.Error(t, err)
}

func TestNRGBAFromPixelClamps(t *testing.T) {
	c := NRGBAFromPixel(warp.Pixel{R: -0.5, G: 2, B: 0.5, A: 1})
	assert.Equal(t, color.NRGBA{R: 0, G: 255, B: 128, A: 255}, c)
}

func TestFieldImage(t *testing.T) {
	field := noise.Field{-0.5, 0, 0.5, 1.0}
	img, err := FieldImage(field, 2, 2, -0.5, 0.5)
	require.NoError(t, err)

	assert.Equal(t, uint8(0), img.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(128), img.GrayAt(1, 0).Y)
	assert.Equal(t, uint8(255), img.GrayAt(0, 1).Y)
	assert.Equal(t, uint8(255), img.GrayAt(1, 1).Y, "values above hi saturate")

	_, err = FieldImage(field, 2, 2, 1, 1)
	assert.Error(t, err)
	_, err = FieldImage(field, 3, 2, -0.5, 0.5)
	assert.Error(t, err)
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	src := gradientImage(9, 6)

	for _, ext := range []string{".png", ".bmp", ".tiff"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(dir, "nested", "out"+ext)
			require.NoError(t, Save(path, src, DefaultEncodeOptions()))

			img, _, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, src.Bounds(), img.Bounds())

			r1, _ := ToRaster(src)
			r2, _ := ToRaster(img)
			assert.Equal(t, r1, r2, "lossless format should round trip")
		})
	}

	t.Run(".jpg", func(t *testing.T) {
		path := filepath.Join(dir, "out.jpg")
		require.NoError(t, Save(path, src, EncodeOptions{JPEGQuality: 95}))
		img, format, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "jpeg", format)
		assert.Equal(t, src.Bounds(), img.Bounds())
	})
}

func TestSaveRejectsUnknownExtension(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "out.xyz"), gradientImage(2, 2), DefaultEncodeOptions())
	assert.Error(t, err)
	assert.False(t, SupportedOutput(".webp"))
	assert.True(t, SupportedOutput(".PNG"))
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestParsePNGCompression(t *testing.T) {
	tests := []struct {
		in      string
		want    png.CompressionLevel
		wantErr bool
	}{
		{"default", png.DefaultCompression, false},
		{"", png.DefaultCompression, false},
		{"speed", png.BestSpeed, false},
		{"best", png.BestCompression, false},
		{"none", png.NoCompression, false},
		{"max", png.DefaultCompression, true},
	}
	for _, tt := range tests {
		got, err := ParsePNGCompression(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestFit(t *testing.T) {
	src := gradientImage(40, 20)

	same, err := Fit(src, 40, 20)
	require.NoError(t, err)
	assert.Same(t, src, same.(*image.NRGBA))

	resized, err := Fit(src, 16, 12)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 16, 12), resized.Bounds())

	_, err = Fit(src, 0, 12)
	assert.Error(t, err)
}

func TestSmooth(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 9, 9))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.SetNRGBA(4, 4, color.NRGBA{A: 255})

	assert.Same(t, img, Smooth(img, 0).(*image.NRGBA))

	blurred := Smooth(img, 1.5)
	assert.Equal(t, img.Bounds(), blurred.Bounds())
	center := color.NRGBAModel.Convert(blurred.At(4, 4)).(color.NRGBA)
	assert.Greater(t, center.R, uint8(0), "blur should lift the dark center")
}
