// Package segment extracts connected color blobs from a classified label grid.
//
// A label grid is a dense, row-major raster of small integer color labels
// produced by a lookup-table classifier (see package colortable). Label 0 is
// reserved for "undefined" background and never forms a blob.
//
// # Pipeline
//
// Segment runs four stages over a single frame:
//
//  1. Run extraction: each row is compressed into maximal runs of one label.
//     A per-pixel lookup from (row, col) to its owning run is kept so that
//     neighbour queries in the next stage are O(1).
//  2. Union-find merge: every run in row j>0 is linked to the same-labeled runs
//     of row j-1 that fall inside its column span widened by the adjacency
//     window. Roots are resolved with path compression.
//  3. Blob assembly: runs are grouped by resolved root into Blob records with
//     a bounding box and an area. Blobs whose area is below the minimum (never
//     less than 2) are discarded as single-pixel noise.
//  4. Overlap merge: same-labeled blobs whose bounding boxes intersect are
//     combined. By default this is one left-to-right pass that does not iterate
//     to a transitive fixpoint; see MergeMode.
//
// # Adjacency Window
//
// The window controls how strictly runs in consecutive rows must line up:
//   - 0: columns must overlap exactly (4-connectivity)
//   - 1: runs touching diagonally are joined (8-connectivity, the default)
//   - n>1: ragged edges up to n columns apart are tolerated
//
// # Determinism
//
// For a fixed grid and configuration the multiset of {Label, Box, Area} is
// deterministic. Which run ends up as the root of a group is an internal
// detail and is not exposed.
//
// # Memory and Thread Safety
//
// Runs, the per-pixel lookup and the root-to-blob table live in index-based
// arenas that are pooled per Segmenter and cleared before each frame. Returned
// blobs own copies of their runs and stay valid after the next call. A
// Segmenter holds no other mutable state, so Segment may be called from
// several goroutines at once on independent grids.
package segment
