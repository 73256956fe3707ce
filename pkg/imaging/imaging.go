// Package imaging downsizes photos for web delivery.
//
// It exposes a pure bounding-box scaler and a JPEG encoder with a clamped
// quality setting. Decoding understands JPEG, PNG, GIF, BMP, and WebP.
// Images are never upscaled: an image that already fits the bounding
// dimension is returned unchanged.
package imaging

import (
	"fmt"
	"image"
	"io"
	"math"

	"image/jpeg"

	// Decoder registrations for image.Decode.
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Defaults and floors for the web rendering.
const (
	// MinMaxDimension is the floor for configured bounding dimensions;
	// smaller values are clamped up.
	MinMaxDimension = 200

	// DefaultMaxDimension bounds the longer side of the web rendering.
	DefaultMaxDimension = 2000

	// DefaultJPEGQuality is the default re-encode quality fraction.
	DefaultJPEGQuality = 0.85
)

// ErrDecode reports undecodable or non-image input.
var ErrDecode = fmt.Errorf("imaging: decode failed")

// Decode reads an image in any supported format.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// ClampMaxDimension enforces the MinMaxDimension floor.
func ClampMaxDimension(d int) int {
	return max(d, MinMaxDimension)
}

// ClampQuality confines a quality fraction to [0.1, 1.0].
func ClampQuality(q float64) float64 {
	return math.Min(math.Max(q, 0.1), 1.0)
}

// ScaleToFit downsizes src so its longer side is at most maxDim, preserving
// aspect ratio. A single scale factor is applied to both dimensions, targets
// are rounded to the nearest integer and floored at 1, and resampling uses
// Catmull-Rom (bicubic) interpolation. Alpha is flattened over black, so the
// JPEG encode sees RGB only. Images already within the bound are returned
// as-is.
func ScaleToFit(src image.Image, maxDim int) image.Image {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return src
	}

	maxSide := max(width, height)
	if maxSide <= maxDim {
		return src
	}

	scale := float64(maxDim) / float64(maxSide)
	targetW := max(1, int(math.Round(float64(width)*scale)))
	targetH := max(1, int(math.Round(float64(height)*scale)))

	// The zero-value RGBA canvas is black; drawing with Over composites
	// semi-transparent sources onto it, matching an RGB flatten.
	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}

// EncodeJPEG writes img as JPEG with the given quality fraction, clamped to
// [0.1, 1.0] and mapped onto the encoder's 1-100 scale.
func EncodeJPEG(w io.Writer, img image.Image, quality float64) error {
	q := int(math.Round(ClampQuality(quality) * 100))
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: q}); err != nil {
		return fmt.Errorf("imaging: encode jpeg: %w", err)
	}
	return nil
}
