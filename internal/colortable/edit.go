package colortable

import (
	"fmt"
	"image/color"

	"github.com/ironsheep/blob-tools-mcp/internal/segment"
)

const (
	// MaxSensitivity is the largest accepted sample sensitivity.
	MaxSensitivity = 25

	// sensitivityStep is the per-channel radius, in 8-bit units, added by each
	// step of sensitivity.
	sensitivityStep = 5
)

// cube is an inclusive range of cells on each axis.
type cube struct {
	lo, hi [3]int
}

func sampleCube(c color.Color, sensitivity int) (cube, error) {
	if sensitivity < 0 || sensitivity > MaxSensitivity {
		return cube{}, fmt.Errorf("sensitivity %d out of range 0-%d", sensitivity, MaxSensitivity)
	}
	r, g, b, _ := c.RGBA()
	center := [3]int{int(r >> 8), int(g >> 8), int(b >> 8)}
	radius := sensitivity * sensitivityStep

	var cb cube
	for i, v := range center {
		cb.lo[i] = max(v-radius, 0) >> 1
		cb.hi[i] = min(v+radius, 255) >> 1
	}
	return cb, nil
}

func (t *Table) eachCell(cb cube, fn func(i int)) {
	for r := cb.lo[0]; r <= cb.hi[0]; r++ {
		for g := cb.lo[1]; g <= cb.hi[1]; g++ {
			base := r<<14 | g<<7
			for b := cb.lo[2]; b <= cb.hi[2]; b++ {
				fn(base | b)
			}
		}
	}
}

// AddSample assigns label l to every cell within the sample cube around c.
//
// The cube extends sensitivity*5 intensity levels in each direction on every
// channel, clamped to 0-255. Sensitivity 0 touches only the cell holding c.
// It returns the number of cells whose label changed.
func (t *Table) AddSample(c color.Color, l segment.Label, sensitivity int) (int, error) {
	if l == Undefined {
		return 0, fmt.Errorf("cannot add samples for the undefined label")
	}
	cb, err := sampleCube(c, sensitivity)
	if err != nil {
		return 0, err
	}
	changed := 0
	t.eachCell(cb, func(i int) {
		if t.cells[i] != l {
			t.cells[i] = l
			changed++
		}
	})
	return changed, nil
}

// RemoveSample resets to Undefined the cells of the sample cube around c that
// currently hold label l. Cells of other labels are left alone. It returns
// the number of cells cleared.
func (t *Table) RemoveSample(c color.Color, l segment.Label, sensitivity int) (int, error) {
	cb, err := sampleCube(c, sensitivity)
	if err != nil {
		return 0, err
	}
	cleared := 0
	t.eachCell(cb, func(i int) {
		if t.cells[i] == l {
			t.cells[i] = Undefined
			cleared++
		}
	})
	return cleared, nil
}
