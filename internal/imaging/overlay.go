package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// OverlayBox is one rectangle to draw on an overlay.
type OverlayBox struct {
	// Rect is the box in image coordinates, Max exclusive.
	Rect image.Rectangle

	// Color is the outline color, usually the label's display color.
	Color color.Color

	// Text is drawn above the box when OverlayOptions.ShowText is set.
	Text string
}

// OverlayOptions controls how BlobOverlay draws.
type OverlayOptions struct {
	// Thickness is the outline width in pixels, drawn inward. Values below 1
	// are treated as 1.
	Thickness int

	// ShowText enables the per-box text captions.
	ShowText bool

	// Dim darkens the frame by this percentage (0-100) before drawing so
	// that outlines stand out.
	Dim float64
}

// BlobOverlay draws box outlines, and optionally captions, over a copy of img.
//
// Parameters:
//   - img: Source frame. It is not modified.
//   - boxes: Boxes to draw, in order; later boxes draw over earlier ones.
//   - opts: Drawing options.
//
// Returns:
//   - *ImageResult: The annotated frame as a base64 PNG.
//   - error: Non-nil if Dim is outside 0-100 or encoding fails.
//
// # Captions
//
// Captions use the 7x13 bitmap face from golang.org/x/image/font/basicfont,
// drawn in white on a black plate just above the box, or just inside it when
// the box touches the top edge.
func BlobOverlay(img image.Image, boxes []OverlayBox, opts OverlayOptions) (*ImageResult, error) {
	if opts.Dim < 0 || opts.Dim > 100 {
		return nil, fmt.Errorf("dim must be between 0 and 100, got %g", opts.Dim)
	}
	thickness := opts.Thickness
	if thickness < 1 {
		thickness = 1
	}

	var base image.Image = img
	if opts.Dim > 0 {
		base = imaging.AdjustBrightness(img, -opts.Dim)
	}
	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)
	// AdjustBrightness returns an image at the origin
	draw.Draw(dst, bounds, base, base.Bounds().Min, draw.Src)

	for _, b := range boxes {
		r := b.Rect.Intersect(bounds)
		if r.Empty() {
			continue
		}
		drawOutline(dst, r, thickness, b.Color)
	}

	if opts.ShowText {
		for _, b := range boxes {
			if b.Text == "" || b.Rect.Intersect(bounds).Empty() {
				continue
			}
			drawCaption(dst, b.Rect, b.Text)
		}
	}

	return EncodePNG(dst)
}

// drawOutline draws a rectangle border of width t inside r.
func drawOutline(dst *image.RGBA, r image.Rectangle, t int, c color.Color) {
	src := image.NewUniform(c)
	t = min(t, (r.Dx()+1)/2, (r.Dy()+1)/2)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t), // top
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y), // bottom
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y), // left
		image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y), // right
	}
	for _, e := range edges {
		draw.Draw(dst, e, src, image.Point{}, draw.Over)
	}
}

var (
	captionFace = basicfont.Face7x13
	captionFg   = image.NewUniform(color.RGBA{255, 255, 255, 255})
	captionBg   = image.NewUniform(color.RGBA{0, 0, 0, 200})
)

// drawCaption draws text on a plate anchored to the top-left of box.
func drawCaption(dst *image.RGBA, box image.Rectangle, text string) {
	m := captionFace.Metrics()
	ascent, height := m.Ascent.Ceil(), m.Height.Ceil()
	width := font.MeasureString(captionFace, text).Ceil()

	top := box.Min.Y - height - 1
	if top < dst.Rect.Min.Y {
		top = box.Min.Y + 1
	}
	plate := image.Rect(box.Min.X, top, box.Min.X+width+2, top+height)
	draw.Draw(dst, plate.Intersect(dst.Rect), captionBg, image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  dst,
		Src:  captionFg,
		Face: captionFace,
		Dot:  fixed.P(plate.Min.X+1, plate.Min.Y+ascent),
	}
	d.DrawString(text)
}
