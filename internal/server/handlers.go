package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/ironsheep/blob-tools-mcp/internal/colortable"
	"github.com/ironsheep/blob-tools-mcp/internal/detection"
	"github.com/ironsheep/blob-tools-mcp/internal/imaging"
	"github.com/ironsheep/blob-tools-mcp/internal/pipeline"
	"github.com/ironsheep/blob-tools-mcp/internal/segment"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_find_blobs").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// errInvalidArgs marks tool failures caused by bad arguments rather than by
// the tool itself.
var errInvalidArgs = errors.New("invalid arguments")

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Malformed arguments return -32602; any other tool failure returns -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Warnw("tool failed", "tool", params.Name, "error", err)
		if errors.Is(err, errInvalidArgs) {
			return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
	}
	s.log.Debugw("tool done", "tool", params.Name, "elapsed", time.Since(start))

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "image_sample_color":
		return s.handleImageSampleColor(args)

	// Color Table
	case "colortable_load":
		return s.handleTableLoad(args)
	case "colortable_save":
		return s.handleTableSave(args)
	case "colortable_info":
		return s.tableInfo("")
	case "colortable_add_sample":
		return s.handleTableSample(args, true)
	case "colortable_remove_sample":
		return s.handleTableSample(args, false)
	case "colortable_build":
		return s.handleTableBuild(ctx, args)
	case "colortable_commit":
		return s.handleTableCommit(args)

	// Segmentation
	case "image_classify":
		return s.handleImageClassify(args)
	case "image_find_blobs":
		return s.handleFindBlobs(args)
	case "image_blob_overlay":
		return s.handleBlobOverlay(args)
	case "image_crop_blob":
		return s.handleCropBlob(args)

	default:
		return nil, fmt.Errorf("%w: unknown tool: %s", errInvalidArgs, name)
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments, tagging failures as invalid params.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	return nil
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

type imageSampleColorArgs struct {
	Path   string `json:"path"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Radius int    `json:"radius"`
}

// sampleColorResult adds the table's verdict to a color sample.
type sampleColorResult struct {
	*imaging.ColorResult
	Label string `json:"label,omitempty"`
}

func (s *Server) sample(a imageSampleColorArgs) (*imaging.ColorResult, error) {
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	if a.Radius > 0 {
		return imaging.AverageColor(img, a.X, a.Y, a.Radius)
	}
	return imaging.SampleColor(img, a.X, a.Y)
}

func (s *Server) handleImageSampleColor(args json.RawMessage) (interface{}, error) {
	var a imageSampleColorArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	c, err := s.sample(a)
	if err != nil {
		return nil, err
	}
	res := &sampleColorResult{ColorResult: c}
	if t := s.tables.Load(); t != nil {
		res.Label = colortable.LabelName(t.Lookup(c.RGB.R, c.RGB.G, c.RGB.B))
	}
	return res, nil
}

// === Color Table Handlers ===

// labelCells is one row of a table histogram.
type labelCells struct {
	Label   string `json:"label"`
	Display string `json:"display_color"`
	Cells   int    `json:"cells"`
}

// tableInfoResult summarizes the active table.
type tableInfoResult struct {
	Path       string       `json:"path,omitempty"`
	TotalCells int          `json:"total_cells"`
	Labels     []labelCells `json:"labels"`
}

func (s *Server) tableInfo(path string) (*tableInfoResult, error) {
	t := s.tables.Load()
	if t == nil {
		return nil, pipeline.ErrNoTable
	}
	if path == "" {
		path = s.cfg.GetColorTable()
	}
	hist := t.Histogram()
	res := &tableInfoResult{Path: path, TotalCells: colortable.Size}
	for l := 0; l < 256; l++ {
		n := hist[segment.Label(l)]
		if n == 0 && l >= colortable.NumLabels {
			continue
		}
		res.Labels = append(res.Labels, labelCells{
			Label:   colortable.LabelName(segment.Label(l)),
			Display: colortable.DisplayHex(segment.Label(l)),
			Cells:   n,
		})
	}
	return res, nil
}

type tablePathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleTableLoad(args json.RawMessage) (interface{}, error) {
	var a tablePathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("%w: path is required", errInvalidArgs)
	}
	t, err := colortable.Load(a.Path)
	if err != nil {
		return nil, err
	}
	s.tables.Store(t)
	s.log.Infow("loaded color table", "path", a.Path)
	return s.tableInfo(a.Path)
}

func (s *Server) handleTableSave(args json.RawMessage) (interface{}, error) {
	var a tablePathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		a.Path = s.cfg.GetColorTable()
	}
	if a.Path == "" {
		return nil, fmt.Errorf("%w: path is required when no color table is configured", errInvalidArgs)
	}
	t := s.tables.Load()
	if t == nil {
		return nil, pipeline.ErrNoTable
	}
	if err := t.Save(a.Path); err != nil {
		return nil, err
	}
	s.log.Infow("saved color table", "path", a.Path)
	return s.tableInfo(a.Path)
}

type tableSampleArgs struct {
	imageSampleColorArgs
	Label       string `json:"label"`
	Sensitivity *int   `json:"sensitivity"`
	Preview     bool   `json:"preview"`
}

// tableEditResult reports the effect of a sample edit. Previews carry the
// sampled frame classified with the pending table.
type tableEditResult struct {
	Label        string               `json:"label"`
	Color        string               `json:"color"`
	Sensitivity  int                  `json:"sensitivity"`
	CellsChanged int                  `json:"cells_changed"`
	Pending      bool                 `json:"pending,omitempty"`
	Preview      *imaging.ImageResult `json:"preview,omitempty"`
}

func (s *Server) handleTableSample(args json.RawMessage, add bool) (interface{}, error) {
	var a tableSampleArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	label, err := colortable.ParseLabel(a.Label)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	sensitivity := 2
	if a.Sensitivity != nil {
		sensitivity = *a.Sensitivity
	}

	c, err := s.sample(a.imageSampleColorArgs)
	if err != nil {
		return nil, err
	}
	sampled := color.RGBA{R: c.RGB.R, G: c.RGB.G, B: c.RGB.B, A: 255}

	var changed int
	edit := func(t *colortable.Table) error {
		var err error
		if add {
			changed, err = t.AddSample(sampled, label, sensitivity)
		} else {
			changed, err = t.RemoveSample(sampled, label, sensitivity)
		}
		return err
	}
	res := &tableEditResult{
		Label:       colortable.LabelName(label),
		Color:       c.Hex,
		Sensitivity: sensitivity,
	}

	if !a.Preview {
		if err := s.tables.Update(edit); err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
		}
		res.CellsChanged = changed
		return res, nil
	}

	pending, err := s.editPending(edit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	res.CellsChanged = changed
	res.Pending = true

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	f, err := s.pipeline.ClassifyWith(img, pending)
	if err != nil {
		return nil, err
	}
	if res.Preview, err = imaging.EncodePNG(colortable.Render(f.Grid)); err != nil {
		return nil, err
	}
	return res, nil
}

// editPending applies fn to a copy of the pending table, starting from the
// active table when nothing is pending, and keeps the copy if fn succeeds.
func (s *Server) editPending(fn func(*colortable.Table) error) (*colortable.Table, error) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()

	var next *colortable.Table
	switch {
	case s.pending != nil:
		next = s.pending.Clone()
	case s.tables.Load() != nil:
		next = s.tables.Load().Clone()
	default:
		next = colortable.New()
	}
	if err := fn(next); err != nil {
		return nil, err
	}
	s.pending = next
	return next, nil
}

type tableCommitArgs struct {
	Discard bool `json:"discard"`
}

// tableCommitResult reports what happened to the pending edits.
type tableCommitResult struct {
	Committed bool             `json:"committed"`
	Discarded bool             `json:"discarded"`
	Table     *tableInfoResult `json:"table,omitempty"`
}

// handleTableCommit publishes previewed edits as the active table, or drops
// them. Committing replaces the active table with the preview.
func (s *Server) handleTableCommit(args json.RawMessage) (interface{}, error) {
	var a tableCommitArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	s.pendingMu.Lock()
	pending := s.pending
	s.pending = nil
	s.pendingMu.Unlock()

	if pending == nil {
		return nil, fmt.Errorf("%w: no previewed edits to commit", errInvalidArgs)
	}
	if a.Discard {
		s.log.Infow("discarded previewed table edits")
		return &tableCommitResult{Discarded: true}, nil
	}

	s.tables.Store(pending)
	s.log.Infow("committed previewed table edits")
	info, err := s.tableInfo("")
	if err != nil {
		return nil, err
	}
	return &tableCommitResult{Committed: true, Table: info}, nil
}

type tableBuildArgs struct {
	Colors []struct {
		Label string `json:"label"`
		Hex   string `json:"hex"`
	} `json:"colors"`
	MaxDistance *float64 `json:"max_distance"`
}

func (s *Server) handleTableBuild(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a tableBuildArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	entries := make([]colortable.PaletteEntry, 0, len(a.Colors))
	for _, c := range a.Colors {
		l, err := colortable.ParseLabel(c.Label)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
		}
		entries = append(entries, colortable.PaletteEntry{Label: l, Hex: c.Hex})
	}
	maxDistance := colortable.DefaultMaxDistance
	if a.MaxDistance != nil {
		maxDistance = *a.MaxDistance
	}

	t, err := colortable.FromPalette(ctx, entries, maxDistance)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	s.tables.Store(t)
	s.log.Infow("built color table", "colors", len(entries), "max_distance", maxDistance)
	return s.tableInfo("")
}

// === Segmentation Handlers ===

// classifyResult is the label image plus per-label pixel counts.
type classifyResult struct {
	*imaging.ImageResult
	LabelPixels map[string]int `json:"label_pixels"`
}

func (s *Server) handleImageClassify(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	f, err := s.pipeline.Classify(img)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, l := range f.Grid.Labels {
		counts[colortable.LabelName(l)]++
	}
	png, err := imaging.EncodePNG(colortable.Render(f.Grid))
	if err != nil {
		return nil, err
	}
	return &classifyResult{ImageResult: png, LabelPixels: counts}, nil
}

// blobFilterArgs select which blobs a segmentation tool reports.
type blobFilterArgs struct {
	Path    string   `json:"path"`
	MinArea *int     `json:"min_area"`
	Labels  []string `json:"labels"`
	MinFill float64  `json:"min_fill"`
}

// detect segments the frame at a.Path and returns the filtered detections,
// largest first. Every segmentation tool numbers blobs the same way.
func (s *Server) detect(a blobFilterArgs) (*pipeline.Frame, []detection.Detection, error) {
	var labels []segment.Label
	for _, name := range a.Labels {
		l, err := colortable.ParseLabel(name)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
		}
		labels = append(labels, l)
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, nil, err
	}
	f, err := s.pipeline.Segment(img)
	if err != nil {
		return nil, nil, err
	}

	pps := []detection.Postprocessor{detection.NewLabelFilter(labels...)}
	if a.MinArea != nil {
		pps = append(pps, detection.NewAreaFilter(*a.MinArea))
	}
	if a.MinFill > 0 {
		pps = append(pps, detection.NewFillFilter(a.MinFill))
	}
	pps = append(pps, detection.SortByArea())

	dets := detection.Apply(detection.FromBlobs(f.Blobs), pps...)
	s.log.Debugw("segmented frame", "path", a.Path, "blobs", len(f.Blobs), "reported", len(dets))
	return f, dets, nil
}

type findBlobsArgs struct {
	blobFilterArgs
	Limit int `json:"limit"`
}

// findBlobsResult lists the detections of one frame.
type findBlobsResult struct {
	GridWidth  int                   `json:"grid_width"`
	GridHeight int                   `json:"grid_height"`
	Count      int                   `json:"count"`
	Blobs      []detection.Detection `json:"blobs"`
	Summary    detection.Summary     `json:"summary"`
}

func (s *Server) handleFindBlobs(args json.RawMessage) (interface{}, error) {
	var a findBlobsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	f, dets, err := s.detect(a.blobFilterArgs)
	if err != nil {
		return nil, err
	}
	summary := detection.Summarize(dets)
	dets = detection.Apply(dets, detection.NewLimit(a.Limit))
	return &findBlobsResult{
		GridWidth:  f.Grid.Width,
		GridHeight: f.Grid.Height,
		Count:      len(dets),
		Blobs:      dets,
		Summary:    summary,
	}, nil
}

type blobOverlayArgs struct {
	blobFilterArgs
	ShowText  *bool   `json:"show_text"`
	Thickness int     `json:"thickness"`
	Dim       float64 `json:"dim"`
}

// overlayResult is the annotated frame and the number of boxes drawn.
type overlayResult struct {
	*imaging.ImageResult
	Count int `json:"count"`
}

func (s *Server) handleBlobOverlay(args json.RawMessage) (interface{}, error) {
	var a blobOverlayArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	f, dets, err := s.detect(a.blobFilterArgs)
	if err != nil {
		return nil, err
	}

	boxes := make([]imaging.OverlayBox, len(dets))
	for i, d := range dets {
		boxes[i] = imaging.OverlayBox{
			Rect:  d.Bounds.Rect(),
			Color: colortable.DisplayColor(d.Label),
			Text:  fmt.Sprintf("%d %s %d", i, d.LabelName, d.Area),
		}
	}
	showText := a.ShowText == nil || *a.ShowText
	img, err := imaging.BlobOverlay(f.Image, boxes, imaging.OverlayOptions{
		Thickness: a.Thickness,
		ShowText:  showText,
		Dim:       a.Dim,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	return &overlayResult{ImageResult: img, Count: len(dets)}, nil
}

type cropBlobArgs struct {
	blobFilterArgs
	Index   int     `json:"index"`
	Padding *int    `json:"padding"`
	Scale   float64 `json:"scale"`
}

// cropBlobResult is a blob and the crop of the frame around it.
type cropBlobResult struct {
	Blob detection.Detection `json:"blob"`
	*imaging.ImageResult
}

func (s *Server) handleCropBlob(args json.RawMessage) (interface{}, error) {
	var a cropBlobArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	padding := 2
	if a.Padding != nil {
		padding = *a.Padding
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}

	f, dets, err := s.detect(a.blobFilterArgs)
	if err != nil {
		return nil, err
	}
	if a.Index < 0 || a.Index >= len(dets) {
		return nil, fmt.Errorf("%w: blob index %d out of range, frame has %d blobs", errInvalidArgs, a.Index, len(dets))
	}
	d := dets[a.Index]
	img, err := imaging.CropBox(f.Image, d.Bounds.Rect(), padding, a.Scale)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	return &cropBlobResult{Blob: d, ImageResult: img}, nil
}
