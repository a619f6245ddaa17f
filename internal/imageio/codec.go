// Package imageio converts between image files, Go images and the raster and
// field buffers used by the noise and warp packages.
package imageio

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	_ "golang.org/x/image/webp" // Register WebP decoder
	_ "image/gif"               // Register GIF decoder
)

// EncodeOptions tune the output encoders.
type EncodeOptions struct {
	PNGCompression png.CompressionLevel
	JPEGQuality    int
}

// DefaultEncodeOptions returns the encoder defaults.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{
		PNGCompression: png.DefaultCompression,
		JPEGQuality:    90,
	}
}

// ParsePNGCompression maps default, speed, best and none to a png level.
func ParsePNGCompression(s string) (png.CompressionLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return png.DefaultCompression, nil
	case "speed", "fast":
		return png.BestSpeed, nil
	case "best":
		return png.BestCompression, nil
	case "none", "no":
		return png.NoCompression, nil
	default:
		return png.DefaultCompression, fmt.Errorf("invalid png compression %q: must be default, speed, best or none", s)
	}
}

// Load decodes an image file. PNG, JPEG, GIF, BMP, TIFF and WebP are supported.
func Load(path string) (image.Image, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, format, nil
}

// Save encodes img according to the extension of path (.png, .jpg/.jpeg,
// .bmp, .tif/.tiff), creating parent directories as needed.
func Save(path string, img image.Image, opts EncodeOptions) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !SupportedOutput(ext) {
		return fmt.Errorf("unsupported output format %q for %s", ext, path)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image %s: %w", path, err)
	}

	switch ext {
	case ".png":
		enc := png.Encoder{CompressionLevel: opts.PNGCompression}
		err = enc.Encode(file, img)
	case ".jpg", ".jpeg":
		quality := opts.JPEGQuality
		if quality <= 0 {
			quality = jpeg.DefaultQuality
		}
		err = jpeg.Encode(file, img, &jpeg.Options{Quality: quality})
	case ".bmp":
		err = bmp.Encode(file, img)
	case ".tif", ".tiff":
		err = tiff.Encode(file, img, &tiff.Options{Compression: tiff.Deflate})
	}
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to encode image %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write image %s: %w", path, err)
	}
	return nil
}

// SupportedOutput reports whether Save can write files with extension ext.
func SupportedOutput(ext string) bool {
	switch strings.ToLower(ext) {
	case ".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff":
		return true
	}
	return false
}
