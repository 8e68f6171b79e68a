package segment

// assemble groups runs by resolved root into blobs, in first-encountered-root
// order, and drops blobs smaller than minArea.
func (a *arena) assemble(minArea int) []Blob {
	a.resolveRoots()

	if cap(a.blobOf) < len(a.runs) {
		a.blobOf = make([]int32, len(a.runs))
	}
	a.blobOf = a.blobOf[:len(a.runs)]
	for i := range a.blobOf {
		a.blobOf[i] = -1
	}

	var blobs []Blob
	for h, r := range a.runs {
		if r.Label == Undefined {
			continue
		}
		root := r.root
		b := a.blobOf[root]
		if b < 0 {
			b = int32(len(blobs))
			a.blobOf[root] = b
			blobs = append(blobs, Blob{Label: r.Label})
		}
		run := a.runs[h]
		// handles are meaningless outside the arena
		run.parent, run.root = 0, 0
		blobs[b].addRun(run)
	}

	kept := make([]Blob, 0, len(blobs))
	for _, b := range blobs {
		if b.Area >= minArea {
			kept = append(kept, b)
		}
	}
	return kept
}
