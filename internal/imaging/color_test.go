package imaging

import (
	"image"
	"image/color"
	"math"
	"testing"
)

// createInMemoryImage creates an in-memory test image
func createInMemoryImage(width, height int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createPatternImage creates an image with different colors in each quadrant
func createPatternImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.Color
			if x < width/2 && y < height/2 {
				c = color.RGBA{255, 0, 0, 255} // Red top-left
			} else if x >= width/2 && y < height/2 {
				c = color.RGBA{0, 255, 0, 255} // Green top-right
			} else if x < width/2 && y >= height/2 {
				c = color.RGBA{0, 0, 255, 255} // Blue bottom-left
			} else {
				c = color.RGBA{255, 255, 255, 255} // White bottom-right
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func TestSampleColor(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{255, 128, 64, 255})

	result, err := SampleColor(img, 50, 50)
	if err != nil {
		t.Fatalf("SampleColor failed: %v", err)
	}

	if result.Hex != "#FF8040" {
		t.Errorf("Hex: got %s, want #FF8040", result.Hex)
	}
	if result.RGB != (RGBColor{255, 128, 64}) {
		t.Errorf("RGB: got %+v, want (255,128,64)", result.RGB)
	}
	if result.Alpha != 255 {
		t.Errorf("Alpha: got %d, want 255", result.Alpha)
	}
}

func TestSampleColor_KnownColors(t *testing.T) {
	tests := []struct {
		name  string
		color color.RGBA
		hex   string
		hsl   HSLColor
		labL  float64
	}{
		{"pure red", color.RGBA{255, 0, 0, 255}, "#FF0000", HSLColor{0, 100, 50}, 53.24},
		{"pure green", color.RGBA{0, 255, 0, 255}, "#00FF00", HSLColor{120, 100, 50}, 87.73},
		{"pure blue", color.RGBA{0, 0, 255, 255}, "#0000FF", HSLColor{240, 100, 50}, 32.30},
		{"white", color.RGBA{255, 255, 255, 255}, "#FFFFFF", HSLColor{0, 0, 100}, 100},
		{"black", color.RGBA{0, 0, 0, 255}, "#000000", HSLColor{0, 0, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := createInMemoryImage(10, 10, tt.color)
			result, err := SampleColor(img, 5, 5)
			if err != nil {
				t.Fatalf("SampleColor failed: %v", err)
			}

			if result.Hex != tt.hex {
				t.Errorf("Hex: got %s, want %s", result.Hex, tt.hex)
			}
			if abs(result.HSL.H-tt.hsl.H) > 1 || abs(result.HSL.S-tt.hsl.S) > 1 || abs(result.HSL.L-tt.hsl.L) > 1 {
				t.Errorf("HSL: got %+v, want %+v", result.HSL, tt.hsl)
			}
			// Lab values are reported on a 0..1 lightness scale
			if math.Abs(result.Lab.L*100-tt.labL) > 0.5 {
				t.Errorf("Lab L: got %.3f, want about %.2f", result.Lab.L*100, tt.labL)
			}
		})
	}
}

func TestSampleColor_OutOfBounds(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{255, 0, 0, 255})

	tests := []struct {
		name string
		x, y int
	}{
		{"negative x", -1, 50},
		{"negative y", 50, -1},
		{"x too large", 100, 50},
		{"y too large", 50, 100},
		{"both too large", 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SampleColor(img, tt.x, tt.y); err == nil {
				t.Error("SampleColor should fail for out-of-bounds coordinates")
			}
		})
	}
}

func TestSampleColor_EdgeCoordinates(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{255, 0, 0, 255})

	for _, p := range []image.Point{{0, 0}, {99, 0}, {0, 99}, {99, 99}} {
		if _, err := SampleColor(img, p.X, p.Y); err != nil {
			t.Errorf("SampleColor failed for valid edge coordinate %v: %v", p, err)
		}
	}
}

func TestAverageColor(t *testing.T) {
	// 2x2 block of red and blue in a checkerboard averages to purple
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{200, 0, 0, 255})
	img.Set(1, 1, color.RGBA{200, 0, 0, 255})
	img.Set(1, 0, color.RGBA{0, 0, 100, 255})
	img.Set(0, 1, color.RGBA{0, 0, 100, 255})

	got, err := AverageColor(img, 0, 0, 1)
	if err != nil {
		t.Fatalf("AverageColor failed: %v", err)
	}
	if got.RGB != (RGBColor{100, 0, 50}) {
		t.Errorf("RGB: got %+v, want (100,0,50)", got.RGB)
	}

	single, err := AverageColor(img, 1, 0, 0)
	if err != nil {
		t.Fatalf("AverageColor failed: %v", err)
	}
	if single.Hex != "#000064" {
		t.Errorf("radius 0 Hex: got %s, want #000064", single.Hex)
	}
}

func TestAverageColor_InvalidArgs(t *testing.T) {
	img := createInMemoryImage(4, 4, color.White)
	if _, err := AverageColor(img, 4, 0, 1); err == nil {
		t.Error("AverageColor should fail outside the image")
	}
	if _, err := AverageColor(img, 1, 1, -1); err == nil {
		t.Error("AverageColor should fail for a negative radius")
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
