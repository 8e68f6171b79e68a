package segment

// find resolves the root of run h, halving the path as it goes.
func (a *arena) find(h int32) int32 {
	runs := a.runs
	for runs[h].parent != h {
		runs[h].parent = runs[runs[h].parent].parent
		h = runs[h].parent
	}
	return h
}

// union links the groups of runs x and y. The later root is attached under
// the earlier one, so a group's root is its first run in scan order.
func (a *arena) union(x, y int32) bool {
	rx, ry := a.find(x), a.find(y)
	if rx == ry {
		return false
	}
	if ry < rx {
		rx, ry = ry, rx
	}
	a.runs[ry].parent = rx
	return true
}

// mergeRows links every run of row j>0 with the same-labeled runs of row j-1
// that overlap its column span widened by window on both sides.
//
// Neighbours are found through the per-pixel lookup: starting at the leftmost
// column of the window, each hit jumps straight past the end of the run it
// landed on, so every candidate run above is visited once.
func (a *arena) mergeRows(window int) {
	if a.width == 0 {
		return
	}
	for j := 1; j < a.height; j++ {
		lo, hi := a.rowRuns(j)
		for h := lo; h < hi; h++ {
			r := a.runs[h]
			if r.Label == Undefined {
				continue
			}
			first := max(r.Start-window, 0)
			last := min(r.End+window, a.width-1)
			for c := first; c <= last; {
				top := a.runAt(c, j-1)
				if a.runs[top].Label == r.Label {
					a.union(top, h)
				}
				c = a.runs[top].End + 1
			}
		}
	}
}

// resolveRoots caches the deep root of every run.
func (a *arena) resolveRoots() {
	for h := range a.runs {
		a.runs[h].root = a.find(int32(h))
	}
}
