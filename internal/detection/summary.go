package detection

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/blob-tools-mcp/internal/colortable"
	"github.com/ironsheep/blob-tools-mcp/internal/segment"
)

// AreaStats holds the spread of blob areas in a group of detections.
type AreaStats struct {
	Count      int     `json:"count"`
	TotalArea  int     `json:"total_area"`
	MeanArea   float64 `json:"mean_area"`
	StdDevArea float64 `json:"stddev_area"`
	MaxArea    int     `json:"max_area"`
}

// LabelSummary is AreaStats for one label.
type LabelSummary struct {
	Label     segment.Label `json:"label"`
	LabelName string        `json:"label_name"`
	AreaStats
}

// Summary describes a detection list as a whole and per label.
type Summary struct {
	AreaStats
	Labels []LabelSummary `json:"labels"`
}

// Summarize computes area statistics overall and for each label present,
// with labels in ascending order. The standard deviation is the sample
// deviation and is 0 for groups of fewer than two detections.
func Summarize(dets []Detection) Summary {
	byLabel := make(map[segment.Label][]float64)
	all := make([]float64, len(dets))
	for i, d := range dets {
		all[i] = float64(d.Area)
		byLabel[d.Label] = append(byLabel[d.Label], float64(d.Area))
	}

	s := Summary{AreaStats: areaStats(all), Labels: make([]LabelSummary, 0, len(byLabel))}
	for l, areas := range byLabel {
		s.Labels = append(s.Labels, LabelSummary{
			Label:     l,
			LabelName: colortable.LabelName(l),
			AreaStats: areaStats(areas),
		})
	}
	sort.Slice(s.Labels, func(i, j int) bool { return s.Labels[i].Label < s.Labels[j].Label })
	return s
}

func areaStats(areas []float64) AreaStats {
	st := AreaStats{Count: len(areas)}
	if len(areas) == 0 {
		return st
	}
	for _, a := range areas {
		st.TotalArea += int(a)
		st.MaxArea = max(st.MaxArea, int(a))
	}
	mean, std := stat.MeanStdDev(areas, nil)
	st.MeanArea = mean
	if len(areas) > 1 && !math.IsNaN(std) {
		st.StdDevArea = std
	}
	return st
}
