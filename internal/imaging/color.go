package imaging

import (
	"fmt"
	"image"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// HSLColor represents a color in HSL space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent
	L int `json:"l"` // Lightness: 0-100 percent
}

// LabColor represents a color in CIE L*a*b* (D65), the space the color table
// builder measures distances in.
type LabColor struct {
	L float64 `json:"l"`
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// ColorResult contains a sampled color in several representations.
//
// Hex excludes alpha. Lab is rounded to three decimals so results stay stable
// in JSON.
type ColorResult struct {
	Hex   string   `json:"hex"`
	RGB   RGBColor `json:"rgb"`
	Alpha uint8    `json:"alpha"`
	HSL   HSLColor `json:"hsl"`
	Lab   LabColor `json:"lab"`
}

// SampleColor extracts the color at a pixel coordinate.
//
// Parameters:
//   - img: The source image to sample from.
//   - x: X coordinate, relative to the image bounds.
//   - y: Y coordinate, relative to the image bounds.
//
// Returns:
//   - *ColorResult: The color at (x, y).
//   - error: Non-nil if the coordinates are outside the image bounds.
//
// Color table training uses the RGB field; HSL and Lab are reported to help
// choose a sensitivity.
func SampleColor(img image.Image, x, y int) (*ColorResult, error) {
	bounds := img.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}

	r, g, b, a := img.At(x, y).RGBA()
	r8, g8, b8, a8 := uint8(r>>8), uint8(g>>8), uint8(b>>8), uint8(a>>8)
	return newColorResult(r8, g8, b8, a8), nil
}

func newColorResult(r, g, b, a uint8) *ColorResult {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	h, s, l := c.Hsl()
	if math.IsNaN(h) {
		h = 0
	}
	lab := func(v float64) float64 { return math.Round(v*1000) / 1000 }
	L, A, B := c.Lab()

	return &ColorResult{
		Hex:   fmt.Sprintf("#%02X%02X%02X", r, g, b),
		RGB:   RGBColor{R: r, G: g, B: b},
		Alpha: a,
		HSL: HSLColor{
			H: int(math.Round(h)) % 360,
			S: int(math.Round(s * 100)),
			L: int(math.Round(l * 100)),
		},
		Lab: LabColor{L: lab(L), A: lab(A), B: lab(B)},
	}
}

// AverageColor returns the mean color of a square patch centered on (x, y),
// clipped to the image. A radius of 0 samples the single pixel.
//
// Averaging a small patch gives steadier training samples on noisy sensors
// than a single pixel.
func AverageColor(img image.Image, x, y, radius int) (*ColorResult, error) {
	bounds := img.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}
	if radius < 0 {
		return nil, fmt.Errorf("radius must be non-negative, got %d", radius)
	}

	patch := image.Rect(x-radius, y-radius, x+radius+1, y+radius+1).Intersect(bounds)
	var sr, sg, sb, sa, n uint64
	for py := patch.Min.Y; py < patch.Max.Y; py++ {
		for px := patch.Min.X; px < patch.Max.X; px++ {
			r, g, b, a := img.At(px, py).RGBA()
			sr += uint64(r >> 8)
			sg += uint64(g >> 8)
			sb += uint64(b >> 8)
			sa += uint64(a >> 8)
			n++
		}
	}
	avg := func(s uint64) uint8 { return uint8((s + n/2) / n) }
	return newColorResult(avg(sr), avg(sg), avg(sb), avg(sa)), nil
}
