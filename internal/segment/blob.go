package segment

import (
	"cmp"
	"image"
	"slices"
)

// Run is a maximal horizontal segment of one label within a row.
//
// Start and End are inclusive column indices.
type Run struct {
	Row   int   `json:"row"`
	Start int   `json:"start"`
	End   int   `json:"end"`
	Label Label `json:"label"`

	// union-find links into the frame's run arena; self-index means self-rooted
	parent int32
	root   int32
}

// Len returns the number of pixels covered by the run.
func (r Run) Len() int {
	return r.End - r.Start + 1
}

// BoundingBox is an axis-aligned box with inclusive bounds on both ends.
type BoundingBox struct {
	MinRow int `json:"min_row"`
	MinCol int `json:"min_col"`
	MaxRow int `json:"max_row"`
	MaxCol int `json:"max_col"`
}

// Overlaps reports whether the two boxes share at least one pixel.
func (b BoundingBox) Overlaps(o BoundingBox) bool {
	return b.MinCol <= o.MaxCol && o.MinCol <= b.MaxCol &&
		b.MinRow <= o.MaxRow && o.MinRow <= b.MaxRow
}

// Union returns the smallest box containing both boxes.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	return BoundingBox{
		MinRow: min(b.MinRow, o.MinRow),
		MinCol: min(b.MinCol, o.MinCol),
		MaxRow: max(b.MaxRow, o.MaxRow),
		MaxCol: max(b.MaxCol, o.MaxCol),
	}
}

// Width is the number of columns spanned by the box.
func (b BoundingBox) Width() int { return b.MaxCol - b.MinCol + 1 }

// Height is the number of rows spanned by the box.
func (b BoundingBox) Height() int { return b.MaxRow - b.MinRow + 1 }

// Rect converts the box to an image.Rectangle (exclusive max corner) in
// image coordinates, X = column and Y = row.
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.MinCol, b.MinRow, b.MaxCol+1, b.MaxRow+1)
}

func runBox(r Run) BoundingBox {
	return BoundingBox{MinRow: r.Row, MinCol: r.Start, MaxRow: r.Row, MaxCol: r.End}
}

// Blob is a connected region of one label.
//
// A Blob owns its runs: they are copies taken out of the frame arena, so a
// blob stays valid after the Segmenter processes the next frame.
type Blob struct {
	Label Label       `json:"label"`
	Box   BoundingBox `json:"box"`
	Area  int         `json:"area"`

	runs []Run
}

// Runs returns a copy of the blob's runs in row-major order.
func (b *Blob) Runs() []Run {
	return slices.Clone(b.runs)
}

// NumRuns returns how many runs make up the blob.
func (b *Blob) NumRuns() int {
	return len(b.runs)
}

// Contains reports whether the pixel at (col, row) belongs to the blob.
func (b *Blob) Contains(col, row int) bool {
	if row < b.Box.MinRow || row > b.Box.MaxRow || col < b.Box.MinCol || col > b.Box.MaxCol {
		return false
	}
	i, _ := slices.BinarySearchFunc(b.runs, row, func(r Run, row int) int {
		return cmp.Compare(r.Row, row)
	})
	for ; i < len(b.runs) && b.runs[i].Row == row; i++ {
		if col >= b.runs[i].Start && col <= b.runs[i].End {
			return true
		}
	}
	return false
}

// Pixels calls fn for every pixel of the blob in row-major order.
func (b *Blob) Pixels(fn func(col, row int)) {
	for _, r := range b.runs {
		for c := r.Start; c <= r.End; c++ {
			fn(c, r.Row)
		}
	}
}

// Centroid returns the mean pixel position as (x, y) = (col, row).
func (b *Blob) Centroid() (float64, float64) {
	if b.Area == 0 {
		return 0, 0
	}
	var sx, sy float64
	for _, r := range b.runs {
		n := float64(r.Len())
		// sum of Start..End is n*(Start+End)/2
		sx += n * float64(r.Start+r.End) / 2
		sy += n * float64(r.Row)
	}
	return sx / float64(b.Area), sy / float64(b.Area)
}

// addRun appends a run and grows the box and area.
func (b *Blob) addRun(r Run) {
	if len(b.runs) == 0 {
		b.Box = runBox(r)
	} else {
		b.Box = b.Box.Union(runBox(r))
	}
	b.Area += r.Len()
	b.runs = append(b.runs, r)
}

// build recomputes the box and area from the runs and restores row-major order.
func (b *Blob) build() {
	slices.SortFunc(b.runs, func(x, y Run) int {
		if c := cmp.Compare(x.Row, y.Row); c != 0 {
			return c
		}
		return cmp.Compare(x.Start, y.Start)
	})
	b.Area = 0
	for i, r := range b.runs {
		if i == 0 {
			b.Box = runBox(r)
		} else {
			b.Box = b.Box.Union(runBox(r))
		}
		b.Area += r.Len()
	}
}

// mergeBlobs consumes its inputs and returns one combined blob. The inputs are
// left empty so no run is reachable from two blobs.
func mergeBlobs(first *Blob, rest ...*Blob) Blob {
	n := len(first.runs)
	for _, o := range rest {
		n += len(o.runs)
	}
	merged := Blob{Label: first.Label, runs: make([]Run, 0, n)}
	merged.runs = append(merged.runs, first.runs...)
	*first = Blob{}
	for _, o := range rest {
		merged.runs = append(merged.runs, o.runs...)
		*o = Blob{}
	}
	merged.build()
	return merged
}
