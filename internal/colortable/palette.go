package colortable

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/blob-tools-mcp/internal/segment"
)

// PaletteEntry is a reference color for a label.
type PaletteEntry struct {
	Label segment.Label
	Hex   string
}

// DefaultMaxDistance is the Lab distance beyond which a cell stays Undefined.
const DefaultMaxDistance = 0.2

// FromPalette builds a table by assigning every cell the label of the
// nearest reference color in CIE-Lab space.
//
// Parameters:
//   - ctx: Cancels the build between red slices.
//   - entries: Reference colors. Several entries may share a label.
//   - maxDistance: Cells whose nearest reference is farther than this (in
//     go-colorful Lab units, where 0.01 is about one just-noticeable
//     difference) stay Undefined. Zero or negative disables the cutoff.
//
// The cube is split by red channel and filled concurrently.
func FromPalette(ctx context.Context, entries []PaletteEntry, maxDistance float64) (*Table, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("palette is empty")
	}
	type ref struct {
		label   segment.Label
		l, a, b float64
	}
	refs := make([]ref, 0, len(entries))
	for _, e := range entries {
		if e.Label == Undefined {
			return nil, fmt.Errorf("palette entry %q uses the undefined label", e.Hex)
		}
		c, err := colorful.Hex(e.Hex)
		if err != nil {
			return nil, fmt.Errorf("palette entry %q: %w", e.Hex, err)
		}
		l, a, b := c.Lab()
		refs = append(refs, ref{e.Label, l, a, b})
	}
	if maxDistance <= 0 {
		maxDistance = math.Inf(1)
	}
	limit := maxDistance * maxDistance

	t := New()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for r := 0; r < Side; r++ {
		r := r
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for gg := 0; gg < Side; gg++ {
				for b := 0; b < Side; b++ {
					// sample the middle of the cell
					c := colorful.Color{
						R: float64(r<<1|1) / 255,
						G: float64(gg<<1|1) / 255,
						B: float64(b<<1|1) / 255,
					}
					l, a, bb := c.Lab()
					best, bestDist := Undefined, limit
					for _, rf := range refs {
						d := sq(l-rf.l) + sq(a-rf.a) + sq(bb-rf.b)
						if d < bestDist {
							best, bestDist = rf.label, d
						}
					}
					t.cells[r<<14|gg<<7|b] = best
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build color table: %w", err)
	}
	return t, nil
}

func sq(v float64) float64 { return v * v }
