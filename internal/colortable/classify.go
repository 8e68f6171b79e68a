package colortable

import (
	"fmt"
	"image"

	"github.com/ironsheep/blob-tools-mcp/internal/segment"
)

// Classify labels every pixel of img into grid.
//
// The image bounds must have the same size as the grid; the image origin
// does not have to be (0, 0). Alpha is ignored.
func (t *Table) Classify(img image.Image, grid *segment.LabelGrid) error {
	b := img.Bounds()
	if b.Dx() != grid.Width || b.Dy() != grid.Height {
		return fmt.Errorf("image is %dx%d, grid is %dx%d: %w",
			b.Dx(), b.Dy(), grid.Width, grid.Height, segment.ErrGridSize)
	}
	if len(grid.Labels) != grid.Width*grid.Height {
		return fmt.Errorf("grid has %d labels, want %d: %w",
			len(grid.Labels), grid.Width*grid.Height, segment.ErrGridSize)
	}

	switch src := img.(type) {
	case *image.RGBA:
		t.classifyPix(src.Pix, src.Stride, src.PixOffset(b.Min.X, b.Min.Y), grid)
	case *image.NRGBA:
		t.classifyPix(src.Pix, src.Stride, src.PixOffset(b.Min.X, b.Min.Y), grid)
	default:
		for y := 0; y < grid.Height; y++ {
			row := grid.Row(y)
			for x := range row {
				r, g, bb, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				row[x] = t.Lookup(uint8(r>>8), uint8(g>>8), uint8(bb>>8))
			}
		}
	}
	return nil
}

// classifyPix handles 4-byte-per-pixel RGBA layouts directly.
func (t *Table) classifyPix(pix []uint8, stride, offset int, grid *segment.LabelGrid) {
	for y := 0; y < grid.Height; y++ {
		p := pix[offset+y*stride:]
		row := grid.Row(y)
		for x := range row {
			i := x * 4
			row[x] = t.cells[index(p[i], p[i+1], p[i+2])]
		}
	}
}

// ClassifyImage allocates a grid the size of img and classifies into it.
func (t *Table) ClassifyImage(img image.Image) (*segment.LabelGrid, error) {
	b := img.Bounds()
	grid := segment.NewLabelGrid(b.Dx(), b.Dy())
	if err := t.Classify(img, grid); err != nil {
		return nil, err
	}
	return grid, nil
}

// Render draws a label grid using each label's display color.
func Render(grid *segment.LabelGrid) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, grid.Width, grid.Height))
	for y := 0; y < grid.Height; y++ {
		row := grid.Row(y)
		p := img.Pix[y*img.Stride:]
		for x, l := range row {
			c := DisplayColor(l)
			i := x * 4
			p[i], p[i+1], p[i+2], p[i+3] = c.R, c.G, c.B, c.A
		}
	}
	return img
}
