package detection

import (
	"slices"

	"github.com/ironsheep/blob-tools-mcp/internal/segment"
)

// Postprocessor filters or reorders a list of detections. Implementations
// return a new slice and leave their input alone.
type Postprocessor func([]Detection) []Detection

// Apply runs the postprocessors in order.
func Apply(dets []Detection, pps ...Postprocessor) []Detection {
	for _, pp := range pps {
		dets = pp(dets)
	}
	return dets
}

func filter(keep func(Detection) bool) Postprocessor {
	return func(in []Detection) []Detection {
		out := make([]Detection, 0, len(in))
		for _, d := range in {
			if keep(d) {
				out = append(out, d)
			}
		}
		return out
	}
}

// NewAreaFilter drops detections with fewer than area pixels.
func NewAreaFilter(area int) Postprocessor {
	return filter(func(d Detection) bool { return d.Area >= area })
}

// NewFillFilter drops detections whose fill ratio is below fill.
func NewFillFilter(fill float64) Postprocessor {
	return filter(func(d Detection) bool { return d.Fill >= fill })
}

// NewLabelFilter keeps only detections with one of the given labels. With no
// labels every detection is kept.
func NewLabelFilter(labels ...segment.Label) Postprocessor {
	if len(labels) == 0 {
		return func(in []Detection) []Detection { return slices.Clone(in) }
	}
	var want [256]bool
	for _, l := range labels {
		want[l] = true
	}
	return filter(func(d Detection) bool { return want[d.Label] })
}

// SortByArea orders detections largest first. Equal areas keep their
// segmentation order.
func SortByArea() Postprocessor {
	return func(in []Detection) []Detection {
		out := slices.Clone(in)
		slices.SortStableFunc(out, func(a, b Detection) int { return b.Area - a.Area })
		return out
	}
}

// NewLimit keeps at most n detections. A non-positive n keeps everything.
func NewLimit(n int) Postprocessor {
	return func(in []Detection) []Detection {
		if n <= 0 || len(in) <= n {
			return slices.Clone(in)
		}
		return slices.Clone(in[:n])
	}
}
