package detection

import (
	"image"

	"github.com/ironsheep/blob-tools-mcp/internal/colortable"
	"github.com/ironsheep/blob-tools-mcp/internal/segment"
)

// Bounds is a bounding box with inclusive corners.
type Bounds struct {
	X1 int `json:"x1"` // Left column
	Y1 int `json:"y1"` // Top row
	X2 int `json:"x2"` // Right column
	Y2 int `json:"y2"` // Bottom row
}

// Rect returns the bounds as an image.Rectangle with an exclusive Max.
func (b Bounds) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2+1, b.Y2+1)
}

// Point is a position in grid coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Detection describes one blob.
type Detection struct {
	// Label is the color label of the blob.
	Label segment.Label `json:"label"`

	// LabelName is the color table name of Label, e.g. "orange".
	LabelName string `json:"label_name"`

	// Bounds is the bounding box enclosing every pixel of the blob.
	Bounds Bounds `json:"bounds"`

	// Center is the center of the bounding box.
	Center Point `json:"center"`

	// Centroid is the mean position of the blob's pixels.
	Centroid Point `json:"centroid"`

	// Width and Height are the bounding box extent in pixels.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Area is the number of pixels in the blob.
	Area int `json:"area"`

	// Fill is Area divided by Width*Height.
	Fill float64 `json:"fill"`
}

// FromBlob converts a single blob.
func FromBlob(b *segment.Blob) Detection {
	box := b.Box
	w, h := box.Width(), box.Height()
	cx, cy := b.Centroid()
	return Detection{
		Label:     b.Label,
		LabelName: colortable.LabelName(b.Label),
		Bounds:    Bounds{X1: box.MinCol, Y1: box.MinRow, X2: box.MaxCol, Y2: box.MaxRow},
		Center: Point{
			X: float64(box.MinCol+box.MaxCol) / 2,
			Y: float64(box.MinRow+box.MaxRow) / 2,
		},
		Centroid: Point{X: cx, Y: cy},
		Width:    w,
		Height:   h,
		Area:     b.Area,
		Fill:     float64(b.Area) / float64(w*h),
	}
}

// FromBlobs converts blobs in order.
func FromBlobs(blobs []segment.Blob) []Detection {
	out := make([]Detection, len(blobs))
	for i := range blobs {
		out[i] = FromBlob(&blobs[i])
	}
	return out
}
