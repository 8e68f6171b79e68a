package segment

import (
	"errors"
	"fmt"
)

// Label is a color classification assigned to a pixel.
type Label uint8

// Undefined marks background pixels. They never belong to a blob.
const Undefined Label = 0

// ErrGridSize is returned when a grid does not match the configured frame size.
var ErrGridSize = errors.New("label grid size mismatch")

// LabelGrid is a dense row-major raster of color labels.
//
// Labels[row*Width+col] holds the label of the pixel at (col, row).
type LabelGrid struct {
	Width  int
	Height int
	Labels []Label
}

// NewLabelGrid allocates an all-undefined grid of the given size.
func NewLabelGrid(width, height int) *LabelGrid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &LabelGrid{
		Width:  width,
		Height: height,
		Labels: make([]Label, width*height),
	}
}

// GridFromRows builds a grid from a slice of equally sized rows.
// It is mostly useful for tests and small fixtures.
func GridFromRows(rows [][]Label) (*LabelGrid, error) {
	if len(rows) == 0 {
		return NewLabelGrid(0, 0), nil
	}
	width := len(rows[0])
	grid := NewLabelGrid(width, len(rows))
	for j, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d columns, want %d: %w", j, len(row), width, ErrGridSize)
		}
		copy(grid.Labels[j*width:], row)
	}
	return grid, nil
}

// At returns the label at (col, row). Out-of-range coordinates read as Undefined.
func (g *LabelGrid) At(col, row int) Label {
	if col < 0 || row < 0 || col >= g.Width || row >= g.Height {
		return Undefined
	}
	return g.Labels[row*g.Width+col]
}

// Set writes a label at (col, row). Out-of-range coordinates are ignored.
func (g *LabelGrid) Set(col, row int, l Label) {
	if col < 0 || row < 0 || col >= g.Width || row >= g.Height {
		return
	}
	g.Labels[row*g.Width+col] = l
}

// Row returns the labels of one row, sharing the grid's backing array.
func (g *LabelGrid) Row(row int) []Label {
	return g.Labels[row*g.Width : (row+1)*g.Width]
}

// checkSize rejects grids that do not match the expected dimensions or whose
// backing slice is inconsistent with the declared dimensions.
func (g *LabelGrid) checkSize(width, height int) error {
	if g == nil {
		return fmt.Errorf("nil grid: %w", ErrGridSize)
	}
	if g.Width != width || g.Height != height {
		return fmt.Errorf("grid is %dx%d, configured for %dx%d: %w", g.Width, g.Height, width, height, ErrGridSize)
	}
	if len(g.Labels) != width*height {
		return fmt.Errorf("grid has %d labels, want %d: %w", len(g.Labels), width*height, ErrGridSize)
	}
	return nil
}
