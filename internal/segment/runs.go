package segment

// arena holds the frame-scoped state of one Segment call. Runs and blobs are
// addressed by int32 handles into dense slices.
type arena struct {
	width  int
	height int

	// runs in row-major order; rowStart[j] is the handle of the first run of
	// row j and rowStart[height] == len(runs)
	runs     []Run
	rowStart []int32

	// pixelRun maps row*width+col to the handle of the owning run
	pixelRun []int32

	// blobOf maps a root run handle to its blob index, -1 when none yet
	blobOf []int32
}

// reset prepares the arena for a width x height frame, reusing backing
// storage from earlier frames when it is large enough.
func (a *arena) reset(width, height int) {
	a.width = width
	a.height = height
	a.runs = a.runs[:0]
	a.rowStart = resize(a.rowStart, height+1)
	a.pixelRun = resize(a.pixelRun, width*height)
	a.blobOf = a.blobOf[:0]
}

func resize(s []int32, n int) []int32 {
	if cap(s) < n {
		return make([]int32, n)
	}
	s = s[:n]
	clear(s)
	return s
}

// extractRuns compresses every row of the grid into maximal same-label runs
// and records the owning run of each pixel.
func (a *arena) extractRuns(g *LabelGrid) {
	w := g.Width
	if w == 0 {
		return
	}
	for j := 0; j < g.Height; j++ {
		a.rowStart[j] = int32(len(a.runs))
		row := g.Labels[j*w : (j+1)*w]
		pix := a.pixelRun[j*w : (j+1)*w]

		// the first pixel always opens a run
		cur := a.open(j, 0, row[0])
		pix[0] = cur
		for i := 1; i < w; i++ {
			if row[i] != a.runs[cur].Label {
				a.runs[cur].End = i - 1
				cur = a.open(j, i, row[i])
			}
			pix[i] = cur
		}
		// the last pixel always closes the current run
		a.runs[cur].End = w - 1
	}
	a.rowStart[g.Height] = int32(len(a.runs))
}

func (a *arena) open(row, col int, l Label) int32 {
	h := int32(len(a.runs))
	a.runs = append(a.runs, Run{Row: row, Start: col, End: col, Label: l, parent: h, root: h})
	return h
}

// rowRuns returns the handles [lo, hi) of the runs of row j.
func (a *arena) rowRuns(j int) (int32, int32) {
	return a.rowStart[j], a.rowStart[j+1]
}

// runAt returns the handle of the run owning pixel (col, row).
func (a *arena) runAt(col, row int) int32 {
	return a.pixelRun[row*a.width+col]
}
