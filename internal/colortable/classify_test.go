package colortable

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/blob-tools-mcp/internal/segment"
)

func testTable() *Table {
	tbl := New()
	tbl.Set(255, 0, 0, Orange)
	tbl.Set(0, 0, 255, Blue)
	return tbl
}

func fillRect(img interface{ Set(x, y int, c color.Color) }, r image.Rectangle, c color.Color) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Set(x, y, c)
		}
	}
}

func TestClassify_ImageTypes(t *testing.T) {
	bounds := image.Rect(0, 0, 6, 4)
	red := color.RGBA{255, 0, 0, 255}
	blue := color.RGBA{0, 0, 255, 255}

	rgba := image.NewRGBA(bounds)
	nrgba := image.NewNRGBA(bounds)
	paletted := image.NewPaletted(bounds, color.Palette{color.Black, red, blue})
	for _, img := range []interface{ Set(x, y int, c color.Color) }{rgba, nrgba, paletted} {
		fillRect(img, bounds, color.Black)
		fillRect(img, image.Rect(0, 0, 3, 2), red)
		fillRect(img, image.Rect(3, 2, 6, 4), blue)
	}

	tbl := testTable()
	for name, img := range map[string]image.Image{"rgba": rgba, "nrgba": nrgba, "paletted": paletted} {
		t.Run(name, func(t *testing.T) {
			grid := segment.NewLabelGrid(6, 4)
			if err := tbl.Classify(img, grid); err != nil {
				t.Fatalf("Classify failed: %v", err)
			}
			for y := 0; y < 4; y++ {
				for x := 0; x < 6; x++ {
					want := Undefined
					switch {
					case x < 3 && y < 2:
						want = Orange
					case x >= 3 && y >= 2:
						want = Blue
					}
					if got := grid.At(x, y); got != want {
						t.Errorf("(%d,%d): got %s, want %s", x, y, LabelName(got), LabelName(want))
					}
				}
			}
		})
	}
}

func TestClassify_SubImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	fillRect(img, image.Rect(5, 5, 7, 7), color.RGBA{0, 0, 255, 255})
	sub := img.SubImage(image.Rect(4, 4, 8, 8))

	grid, err := testTable().ClassifyImage(sub)
	if err != nil {
		t.Fatalf("ClassifyImage failed: %v", err)
	}
	if grid.Width != 4 || grid.Height != 4 {
		t.Fatalf("grid size: got %dx%d, want 4x4", grid.Width, grid.Height)
	}
	if grid.At(1, 1) != Blue || grid.At(0, 0) != Undefined {
		t.Errorf("sub-image offset not honored: %v", grid.Labels)
	}
}

func TestClassify_SizeMismatch(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 5, 5))
	err := testTable().Classify(img, segment.NewLabelGrid(4, 5))
	if !errors.Is(err, segment.ErrGridSize) {
		t.Errorf("got %v, want ErrGridSize", err)
	}
}

func TestRender(t *testing.T) {
	grid := segment.NewLabelGrid(2, 1)
	grid.Set(1, 0, Yellow)
	img := Render(grid)

	if got := img.RGBAAt(0, 0); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("undefined pixel: got %v", got)
	}
	if got := img.RGBAAt(1, 0); got != (color.RGBA{255, 255, 0, 255}) {
		t.Errorf("yellow pixel: got %v", got)
	}
}
