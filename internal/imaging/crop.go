package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Crop extracts a rectangular region from an image.
//
// Parameters:
//   - img: Source image.
//   - r: Region to extract, Min inclusive and Max exclusive. It must lie
//     inside the image bounds and be non-empty.
//   - scale: Resize factor applied after cropping (Lanczos). Values <= 0 or
//     exactly 1 leave the crop at its native size.
//
// Returns:
//   - *ImageResult: The cropped region as a base64 PNG.
//   - error: Non-nil for an empty or out-of-bounds region.
func Crop(img image.Image, r image.Rectangle, scale float64) (*ImageResult, error) {
	bounds := img.Bounds()
	if r.Empty() {
		return nil, fmt.Errorf("invalid crop region %v: min must be less than max", r)
	}
	if !r.In(bounds) {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", r, bounds)
	}

	cropped := imaging.Crop(img, r)
	if scale != 1.0 && scale > 0 {
		w := int(float64(cropped.Bounds().Dx()) * scale)
		h := int(float64(cropped.Bounds().Dy()) * scale)
		if w < 1 || h < 1 {
			return nil, fmt.Errorf("scale %.3f shrinks %v to nothing", scale, r)
		}
		cropped = imaging.Resize(cropped, w, h, imaging.Lanczos)
	}

	return EncodePNG(cropped)
}

// CropBox crops r grown by padding pixels on every side, clipped to the
// image. It is the tolerant variant used for blob boxes, which always lie
// inside the frame but whose padding may not.
func CropBox(img image.Image, r image.Rectangle, padding int, scale float64) (*ImageResult, error) {
	if padding < 0 {
		return nil, fmt.Errorf("padding must be non-negative, got %d", padding)
	}
	padded := r.Inset(-padding).Intersect(img.Bounds())
	return Crop(img, padded, scale)
}
