package segment

import (
	"fmt"
	"strings"
)

// MergeMode selects how same-labeled blobs with intersecting bounding boxes
// are combined after assembly.
type MergeMode int

const (
	// MergeSinglePass scans the blobs once, left to right. Each surviving blob
	// absorbs every other unconsumed blob of its label whose box intersects its
	// own original box. Chains (A overlaps B, B overlaps C, A does not overlap
	// C) may leave C unmerged.
	MergeSinglePass MergeMode = iota

	// MergeFixpoint repeats the single pass until no more merges happen.
	MergeFixpoint

	// MergeNone skips the overlap merge entirely.
	MergeNone
)

var mergeModeNames = map[MergeMode]string{
	MergeSinglePass: "single",
	MergeFixpoint:   "fixpoint",
	MergeNone:       "none",
}

// String returns the config name of the mode.
func (m MergeMode) String() string {
	if s, ok := mergeModeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("MergeMode(%d)", int(m))
}

// ParseMergeMode parses "single", "fixpoint" or "none". An empty string
// selects MergeSinglePass.
func ParseMergeMode(s string) (MergeMode, error) {
	if s == "" {
		return MergeSinglePass, nil
	}
	for m, name := range mergeModeNames {
		if strings.EqualFold(s, name) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown merge mode %q (want single, fixpoint or none)", s)
}

// MergeOverlapping combines same-labeled blobs whose bounding boxes intersect.
//
// The input slice is consumed: blobs that get merged are emptied and must not
// be used afterwards. The returned slice holds the survivors in input order,
// with each merged blob taking the position of its first member.
func MergeOverlapping(blobs []Blob, mode MergeMode) []Blob {
	switch mode {
	case MergeNone:
		return blobs
	case MergeFixpoint:
		for {
			n := len(blobs)
			blobs = mergePass(blobs)
			if len(blobs) == n {
				return blobs
			}
		}
	default:
		return mergePass(blobs)
	}
}

// mergePass is one left-to-right scan. Candidates are tested against the
// original box of the blob being grown, not the accumulated merge.
func mergePass(blobs []Blob) []Blob {
	consumed := make([]bool, len(blobs))
	out := make([]Blob, 0, len(blobs))
	var group []*Blob

	for i := range blobs {
		if consumed[i] {
			continue
		}
		consumed[i] = true
		a := &blobs[i]

		group = group[:0]
		for k := range blobs {
			if consumed[k] {
				continue
			}
			b := &blobs[k]
			if b.Label == a.Label && a.Box.Overlaps(b.Box) {
				consumed[k] = true
				group = append(group, b)
			}
		}

		if len(group) == 0 {
			out = append(out, *a)
			*a = Blob{}
			continue
		}
		out = append(out, mergeBlobs(a, group...))
	}
	return out
}
