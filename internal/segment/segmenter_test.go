package segment

import (
	"cmp"
	"errors"
	"math/rand"
	"slices"
	"sync"
	"testing"

	gocmp "github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"
)

// mustGrid builds a grid from strings. '.' is Undefined and '1'..'9' are
// labels 1..9.
func mustGrid(t *testing.T, rows ...string) *LabelGrid {
	t.Helper()
	labels := make([][]Label, len(rows))
	for j, row := range rows {
		labels[j] = make([]Label, len(row))
		for i, ch := range row {
			if ch != '.' {
				labels[j][i] = Label(ch - '0')
			}
		}
	}
	g, err := GridFromRows(labels)
	if err != nil {
		t.Fatalf("GridFromRows failed: %v", err)
	}
	return g
}

// shape is the deterministic part of a blob.
type shape struct {
	Label Label
	Box   BoundingBox
	Area  int
}

func shapesOf(blobs []Blob) []shape {
	out := make([]shape, 0, len(blobs))
	for _, b := range blobs {
		out = append(out, shape{b.Label, b.Box, b.Area})
	}
	slices.SortFunc(out, compareShapes)
	return out
}

func compareShapes(a, b shape) int {
	if c := cmp.Compare(a.Label, b.Label); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Box.MinRow, b.Box.MinRow); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Box.MinCol, b.Box.MinCol); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Box.MaxRow, b.Box.MaxRow); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Box.MaxCol, b.Box.MaxCol); c != 0 {
		return c
	}
	return cmp.Compare(a.Area, b.Area)
}

func segmentWith(t *testing.T, g *LabelGrid, window int, mode MergeMode) []Blob {
	t.Helper()
	cfg := DefaultConfig(g.Width, g.Height)
	cfg.Window = window
	cfg.Merge = mode
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	blobs, err := s.Segment(g)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	return blobs
}

func TestSegment_SolidRectangle(t *testing.T) {
	tests := []struct {
		name       string
		rows, cols int
	}{
		{"2x2", 2, 2},
		{"3x7", 3, 7},
		{"10x4", 10, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewLabelGrid(tt.cols+4, tt.rows+4)
			for j := 2; j < 2+tt.rows; j++ {
				for i := 2; i < 2+tt.cols; i++ {
					g.Set(i, j, 3)
				}
			}

			for _, window := range []int{0, 1, 2} {
				blobs := segmentWith(t, g, window, MergeSinglePass)
				want := []shape{{
					Label: 3,
					Box:   BoundingBox{MinRow: 2, MinCol: 2, MaxRow: 1 + tt.rows, MaxCol: 1 + tt.cols},
					Area:  tt.rows * tt.cols,
				}}
				if diff := gocmp.Diff(want, shapesOf(blobs)); diff != "" {
					t.Errorf("window %d: blobs mismatch (-want +got):\n%s", window, diff)
				}
			}
		})
	}
}

func TestSegment_AllUndefined(t *testing.T) {
	for _, size := range [][2]int{{1, 1}, {1, 9}, {9, 1}, {64, 48}} {
		g := NewLabelGrid(size[0], size[1])
		blobs := segmentWith(t, g, 1, MergeSinglePass)
		if blobs == nil {
			t.Errorf("%dx%d: got nil slice, want empty", size[0], size[1])
		}
		if len(blobs) != 0 {
			t.Errorf("%dx%d: got %d blobs, want 0", size[0], size[1], len(blobs))
		}
	}
}

func TestSegment_Checkerboard(t *testing.T) {
	// two colors alternating per pixel; same-colored pixels only touch
	// diagonally, so window 0 leaves every pixel isolated
	g := NewLabelGrid(16, 12)
	for j := 0; j < g.Height; j++ {
		for i := 0; i < g.Width; i++ {
			g.Set(i, j, Label(1+(i+j)%2))
		}
	}

	blobs := segmentWith(t, g, 0, MergeSinglePass)
	if len(blobs) != 0 {
		t.Errorf("got %d blobs, want 0", len(blobs))
	}
}

func TestSegment_DiagonalPixels(t *testing.T) {
	g := mustGrid(t,
		"....",
		".1..",
		"..1.",
		"....",
	)

	t.Run("window 1 joins", func(t *testing.T) {
		blobs := segmentWith(t, g, 1, MergeNone)
		want := []shape{{Label: 1, Box: BoundingBox{1, 1, 2, 2}, Area: 2}}
		if diff := gocmp.Diff(want, shapesOf(blobs)); diff != "" {
			t.Errorf("blobs mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("window 0 separates", func(t *testing.T) {
		a := &arena{}
		a.reset(g.Width, g.Height)
		a.extractRuns(g)
		a.mergeRows(0)
		// keep single pixels so the two groups are visible
		groups := a.assemble(1)
		want := []shape{
			{Label: 1, Box: BoundingBox{1, 1, 1, 1}, Area: 1},
			{Label: 1, Box: BoundingBox{2, 2, 2, 2}, Area: 1},
		}
		if diff := gocmp.Diff(want, shapesOf(groups)); diff != "" {
			t.Errorf("groups mismatch (-want +got):\n%s", diff)
		}

		blobs := segmentWith(t, g, 0, MergeNone)
		if len(blobs) != 0 {
			t.Errorf("got %d blobs after noise removal, want 0", len(blobs))
		}
	})
}

func TestSegment_DiagonalBars(t *testing.T) {
	g := mustGrid(t,
		"11....",
		"..11..",
	)

	joined := segmentWith(t, g, 1, MergeNone)
	if diff := gocmp.Diff([]shape{{1, BoundingBox{0, 0, 1, 3}, 4}}, shapesOf(joined)); diff != "" {
		t.Errorf("window 1 mismatch (-want +got):\n%s", diff)
	}

	split := segmentWith(t, g, 0, MergeSinglePass)
	want := []shape{
		{1, BoundingBox{0, 0, 0, 1}, 2},
		{1, BoundingBox{1, 2, 1, 3}, 2},
	}
	if diff := gocmp.Diff(want, shapesOf(split)); diff != "" {
		t.Errorf("window 0 mismatch (-want +got):\n%s", diff)
	}
}

func TestSegment_WideWindow(t *testing.T) {
	g := mustGrid(t,
		"22.....",
		"....22.",
	)
	if n := len(segmentWith(t, g, 1, MergeNone)); n != 2 {
		t.Errorf("window 1: got %d blobs, want 2", n)
	}
	if n := len(segmentWith(t, g, 3, MergeNone)); n != 1 {
		t.Errorf("window 3: got %d blobs, want 1", n)
	}
}

func TestSegment_ColorsDoNotMix(t *testing.T) {
	g := mustGrid(t,
		"1122",
		"1122",
		"3344",
	)
	blobs := segmentWith(t, g, 1, MergeSinglePass)
	want := []shape{
		{1, BoundingBox{0, 0, 1, 1}, 4},
		{2, BoundingBox{0, 2, 1, 3}, 4},
		{3, BoundingBox{2, 0, 2, 1}, 2},
		{4, BoundingBox{2, 2, 2, 3}, 2},
	}
	if diff := gocmp.Diff(want, shapesOf(blobs)); diff != "" {
		t.Errorf("blobs mismatch (-want +got):\n%s", diff)
	}
	for _, b := range blobs {
		b.Pixels(func(col, row int) {
			if g.At(col, row) != b.Label {
				t.Errorf("blob %d covers (%d,%d) labeled %d", b.Label, col, row, g.At(col, row))
			}
		})
	}
}

func TestSegment_FirstEncounteredOrder(t *testing.T) {
	g := mustGrid(t,
		"..55",
		"11..",
		"....",
		"77..",
	)
	blobs := segmentWith(t, g, 0, MergeSinglePass)
	var got []Label
	for _, b := range blobs {
		got = append(got, b.Label)
	}
	if diff := gocmp.Diff([]Label{5, 1, 7}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestSegment_MinArea(t *testing.T) {
	g := mustGrid(t,
		"11.222",
		"......",
	)
	cfg := DefaultConfig(g.Width, g.Height)
	cfg.MinArea = 3
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	blobs, err := s.Segment(g)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if len(blobs) != 1 || blobs[0].Label != 2 {
		t.Errorf("got %v, want only the label 2 blob", shapesOf(blobs))
	}

	cfg.MinArea = 0
	s, err = New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if got := s.Config().MinArea; got != MinBlobArea {
		t.Errorf("MinArea: got %d, want clamp to %d", got, MinBlobArea)
	}
}

func TestSegment_GridSizeMismatch(t *testing.T) {
	s, err := New(DefaultConfig(8, 6))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	tests := []struct {
		name string
		grid *LabelGrid
	}{
		{"nil", nil},
		{"wrong width", NewLabelGrid(7, 6)},
		{"wrong height", NewLabelGrid(8, 5)},
		{"short backing", &LabelGrid{Width: 8, Height: 6, Labels: make([]Label, 47)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blobs, err := s.Segment(tt.grid)
			if !errors.Is(err, ErrGridSize) {
				t.Errorf("err: got %v, want ErrGridSize", err)
			}
			if blobs != nil {
				t.Errorf("got %d blobs on error, want nil", len(blobs))
			}
		})
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero size", Config{}},
		{"negative window", Config{Width: 4, Height: 4, Window: -1}},
		{"bad merge mode", Config{Width: 4, Height: 4, Merge: MergeMode(42)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Error("New should fail")
			}
		})
	}
}

func TestConfig_ValidateReportsEveryProblem(t *testing.T) {
	err := Config{Window: -1, Merge: MergeMode(42)}.Validate()
	if got := len(multierr.Errors(err)); got != 3 {
		t.Errorf("got %d errors, want 3: %v", got, err)
	}
	if err := DefaultConfig(4, 4).Validate(); err != nil {
		t.Errorf("default config rejected: %v", err)
	}
}

func TestExtract(t *testing.T) {
	g := mustGrid(t,
		"44",
		"44",
	)
	blobs, err := Extract(g, DefaultWindow)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(blobs) != 1 || blobs[0].Area != 4 {
		t.Errorf("got %v, want one blob of area 4", shapesOf(blobs))
	}

	empty, err := Extract(NewLabelGrid(0, 0), DefaultWindow)
	if err != nil {
		t.Fatalf("Extract on empty grid failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("empty grid: got %d blobs, want 0", len(empty))
	}

	if _, err := Extract(nil, DefaultWindow); !errors.Is(err, ErrGridSize) {
		t.Errorf("nil grid: got %v, want ErrGridSize", err)
	}
}

// floodFill is a brute-force reference: BFS over pixels where a neighbour is
// the pixel left or right in the same row, or any pixel within window columns
// in the row above or below.
func floodFill(g *LabelGrid, window int) [][]int {
	seen := make([]bool, len(g.Labels))
	var comps [][]int
	for start, l := range g.Labels {
		if l == Undefined || seen[start] {
			continue
		}
		seen[start] = true
		comp := []int{start}
		for q := 0; q < len(comp); q++ {
			p := comp[q]
			col, row := p%g.Width, p/g.Width
			visit := func(c, r int) {
				if c < 0 || r < 0 || c >= g.Width || r >= g.Height {
					return
				}
				n := r*g.Width + c
				if !seen[n] && g.Labels[n] == l {
					seen[n] = true
					comp = append(comp, n)
				}
			}
			visit(col-1, row)
			visit(col+1, row)
			for d := -window; d <= window; d++ {
				visit(col+d, row-1)
				visit(col+d, row+1)
			}
		}
		comps = append(comps, comp)
	}
	return comps
}

func randomGrid(rng *rand.Rand, w, h, labels int) *LabelGrid {
	g := NewLabelGrid(w, h)
	for i := range g.Labels {
		g.Labels[i] = Label(rng.Intn(labels + 1))
	}
	return g
}

func TestSegment_MatchesFloodFill(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 200; iter++ {
		w, h := 1+rng.Intn(24), 1+rng.Intn(24)
		g := randomGrid(rng, w, h, 1+rng.Intn(3))

		for _, window := range []int{0, 1, 2} {
			want := []shape{}
			owner := make([]int, len(g.Labels))
			for _, comp := range floodFill(g, window) {
				if len(comp) < MinBlobArea {
					continue
				}
				s := shape{Label: g.Labels[comp[0]], Area: len(comp)}
				s.Box = BoundingBox{MinRow: h, MinCol: w, MaxRow: -1, MaxCol: -1}
				for _, p := range comp {
					owner[p]++
					c, r := p%w, p/w
					s.Box = s.Box.Union(BoundingBox{r, c, r, c})
				}
				want = append(want, s)
			}
			slices.SortFunc(want, compareShapes)

			blobs := segmentWith(t, g, window, MergeNone)
			if diff := gocmp.Diff(want, shapesOf(blobs)); diff != "" {
				t.Fatalf("iter %d window %d %dx%d: mismatch (-want +got):\n%s", iter, window, w, h, diff)
			}

			covered := make([]int, len(g.Labels))
			for _, b := range blobs {
				b.Pixels(func(col, row int) {
					p := row*w + col
					covered[p]++
					if g.Labels[p] != b.Label {
						t.Fatalf("iter %d: blob label %d covers pixel labeled %d", iter, b.Label, g.Labels[p])
					}
				})
			}
			if diff := gocmp.Diff(owner, covered); diff != "" {
				t.Fatalf("iter %d window %d: pixel coverage mismatch (-want +got):\n%s", iter, window, diff)
			}
		}
	}
}

func TestSegment_Idempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	g := randomGrid(rng, 64, 48, 2)
	s, err := New(DefaultConfig(64, 48))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	first, err := s.Segment(g)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	want := shapesOf(first)

	for i := 0; i < 3; i++ {
		again, err := s.Segment(g)
		if err != nil {
			t.Fatalf("Segment failed: %v", err)
		}
		if diff := gocmp.Diff(want, shapesOf(again)); diff != "" {
			t.Fatalf("run %d differs (-first +again):\n%s", i, diff)
		}
	}

	// earlier results must survive arena reuse
	if diff := gocmp.Diff(want, shapesOf(first)); diff != "" {
		t.Errorf("first result changed after reuse (-want +got):\n%s", diff)
	}
}

func TestSegment_Concurrent(t *testing.T) {
	const frames = 8
	rng := rand.New(rand.NewSource(3))
	s, err := New(DefaultConfig(40, 30))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	grids := make([]*LabelGrid, frames)
	want := make([][]shape, frames)
	for i := range grids {
		grids[i] = randomGrid(rng, 40, 30, 3)
		blobs, err := s.Segment(grids[i])
		if err != nil {
			t.Fatalf("Segment failed: %v", err)
		}
		want[i] = shapesOf(blobs)
	}

	var wg sync.WaitGroup
	got := make([][]shape, frames*4)
	for k := range got {
		wg.Add(1)
		go func(k int) {
			defer wg.Done()
			blobs, err := s.Segment(grids[k%frames])
			if err != nil {
				t.Errorf("Segment failed: %v", err)
				return
			}
			got[k] = shapesOf(blobs)
		}(k)
	}
	wg.Wait()

	for k := range got {
		if diff := gocmp.Diff(want[k%frames], got[k]); diff != "" {
			t.Errorf("goroutine %d mismatch (-want +got):\n%s", k, diff)
		}
	}
}
