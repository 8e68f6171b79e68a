package detection

import (
	"math"
	"testing"

	gocmp "github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ironsheep/blob-tools-mcp/internal/segment"
)

// gridOf builds a label grid from rows of digits, '.' being Undefined.
func gridOf(t *testing.T, rows ...string) *segment.LabelGrid {
	t.Helper()
	labels := make([][]segment.Label, len(rows))
	for j, row := range rows {
		labels[j] = make([]segment.Label, len(row))
		for i, ch := range row {
			if ch != '.' {
				labels[j][i] = segment.Label(ch - '0')
			}
		}
	}
	g, err := segment.GridFromRows(labels)
	if err != nil {
		t.Fatalf("GridFromRows failed: %v", err)
	}
	return g
}

// fixture has an orange square, a pink bar and a diagonal blue "v".
func fixture(t *testing.T) []Detection {
	t.Helper()
	g := gridOf(t,
		"11..2",
		"11..2",
		"....2",
		"3.3..",
		".3...",
	)
	blobs, err := segment.Extract(g, 1)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	return FromBlobs(blobs)
}

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestFromBlobs(t *testing.T) {
	got := fixture(t)
	want := []Detection{
		{
			Label: 1, LabelName: "orange",
			Bounds: Bounds{0, 0, 1, 1}, Center: Point{0.5, 0.5}, Centroid: Point{0.5, 0.5},
			Width: 2, Height: 2, Area: 4, Fill: 1,
		},
		{
			Label: 2, LabelName: "pink",
			Bounds: Bounds{4, 0, 4, 2}, Center: Point{4, 1}, Centroid: Point{4, 1},
			Width: 1, Height: 3, Area: 3, Fill: 1,
		},
		{
			Label: 3, LabelName: "blue",
			Bounds: Bounds{0, 3, 2, 4}, Center: Point{1, 3.5}, Centroid: Point{1, 10.0 / 3},
			Width: 3, Height: 2, Area: 3, Fill: 0.5,
		},
	}
	if diff := gocmp.Diff(want, got, approx); diff != "" {
		t.Errorf("FromBlobs mismatch (-want +got):\n%s", diff)
	}
}

func TestBounds_Rect(t *testing.T) {
	r := Bounds{X1: 2, Y1: 3, X2: 4, Y2: 3}.Rect()
	if r.Dx() != 3 || r.Dy() != 1 || r.Min.X != 2 || r.Min.Y != 3 {
		t.Errorf("Rect: got %v", r)
	}
}

func areas(dets []Detection) []int {
	out := make([]int, len(dets))
	for i, d := range dets {
		out[i] = d.Area
	}
	return out
}

func labelsOf(dets []Detection) []segment.Label {
	out := make([]segment.Label, len(dets))
	for i, d := range dets {
		out[i] = d.Label
	}
	return out
}

func TestPostprocessors(t *testing.T) {
	dets := fixture(t)

	tests := []struct {
		name string
		pps  []Postprocessor
		want []segment.Label
	}{
		{"none", nil, []segment.Label{1, 2, 3}},
		{"area", []Postprocessor{NewAreaFilter(4)}, []segment.Label{1}},
		{"fill", []Postprocessor{NewFillFilter(0.9)}, []segment.Label{1, 2}},
		{"labels", []Postprocessor{NewLabelFilter(3, 2)}, []segment.Label{2, 3}},
		{"no labels keeps all", []Postprocessor{NewLabelFilter()}, []segment.Label{1, 2, 3}},
		{"limit", []Postprocessor{NewLimit(2)}, []segment.Label{1, 2}},
		{"limit zero keeps all", []Postprocessor{NewLimit(0)}, []segment.Label{1, 2, 3}},
		{
			"chained",
			[]Postprocessor{NewLabelFilter(2, 3), NewFillFilter(0.9), NewAreaFilter(2)},
			[]segment.Label{2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := labelsOf(Apply(dets, tt.pps...))
			if diff := gocmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("labels mismatch (-want +got):\n%s", diff)
			}
		})
	}

	// the input is never reordered or shortened
	if diff := gocmp.Diff([]segment.Label{1, 2, 3}, labelsOf(dets)); diff != "" {
		t.Errorf("input modified (-want +got):\n%s", diff)
	}
}

func TestSortByArea_IsStable(t *testing.T) {
	dets := []Detection{
		{Label: 1, Area: 3},
		{Label: 2, Area: 9},
		{Label: 3, Area: 3},
		{Label: 4, Area: 5},
	}
	got := Apply(dets, SortByArea())
	if diff := gocmp.Diff([]int{9, 5, 3, 3}, areas(got)); diff != "" {
		t.Errorf("areas mismatch (-want +got):\n%s", diff)
	}
	if got[2].Label != 1 || got[3].Label != 3 {
		t.Errorf("equal areas reordered: %v", labelsOf(got))
	}
	if dets[0].Label != 1 || dets[1].Label != 2 {
		t.Error("SortByArea must not sort its input in place")
	}
}

func TestSummarize(t *testing.T) {
	dets := []Detection{
		{Label: 1, Area: 2},
		{Label: 3, Area: 10},
		{Label: 1, Area: 4},
		{Label: 1, Area: 6},
	}
	got := Summarize(dets)

	want := Summary{
		AreaStats: AreaStats{Count: 4, TotalArea: 22, MeanArea: 5.5, StdDevArea: math.Sqrt(35.0 / 3), MaxArea: 10},
		Labels: []LabelSummary{
			{Label: 1, LabelName: "orange", AreaStats: AreaStats{Count: 3, TotalArea: 12, MeanArea: 4, StdDevArea: 2, MaxArea: 6}},
			{Label: 3, LabelName: "blue", AreaStats: AreaStats{Count: 1, TotalArea: 10, MeanArea: 10, MaxArea: 10}},
		},
	}
	if diff := gocmp.Diff(want, got, approx); diff != "" {
		t.Errorf("Summarize mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize_Empty(t *testing.T) {
	got := Summarize(nil)
	if got.Count != 0 || got.MeanArea != 0 || len(got.Labels) != 0 {
		t.Errorf("empty summary: got %+v", got)
	}
}
