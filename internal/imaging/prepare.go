package imaging

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
)

// PrepareFrame brings a camera frame to the size of the label grid and
// optionally smooths it before classification.
//
// Parameters:
//   - img: Source frame.
//   - width, height: Grid size. The frame is resized with a Lanczos filter
//     only when its size differs.
//   - blurRadius: Gaussian blur radius in pixels; 0 disables blurring.
//
// Returns:
//   - *image.NRGBA: A new image with origin (0, 0). The source is never
//     modified.
//   - error: Non-nil for non-positive sizes or a negative radius.
//
// Blurring knocks out isolated noisy pixels that would otherwise classify
// into one-pixel blobs and be dropped by the minimum area filter anyway, at
// the cost of softening blob edges.
func PrepareFrame(img image.Image, width, height int, blurRadius float64) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("frame size must be positive, got %dx%d", width, height)
	}
	if blurRadius < 0 {
		return nil, fmt.Errorf("blur radius must be non-negative, got %g", blurRadius)
	}

	var out *image.NRGBA
	if b := img.Bounds(); b.Dx() == width && b.Dy() == height {
		out = imaging.Clone(img)
	} else {
		out = imaging.Resize(img, width, height, imaging.Lanczos)
	}

	if blurRadius > 0 {
		// bild returns premultiplied RGBA; frames are opaque so the two
		// layouts carry the same bytes
		blurred := blur.Gaussian(out, blurRadius)
		out = &image.NRGBA{Pix: blurred.Pix, Stride: blurred.Stride, Rect: blurred.Rect}
	}
	return out, nil
}
