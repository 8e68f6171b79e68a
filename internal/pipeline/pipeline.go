// Package pipeline runs a camera frame through preparation, color
// classification and segmentation.
//
// A Pipeline is safe for concurrent use. The color table is read from a
// colortable.Holder on every frame, so edits and reloads take effect on the
// next frame without restarting anything.
package pipeline

import (
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/blob-tools-mcp/internal/colortable"
	"github.com/ironsheep/blob-tools-mcp/internal/config"
	"github.com/ironsheep/blob-tools-mcp/internal/imaging"
	"github.com/ironsheep/blob-tools-mcp/internal/segment"
)

// ErrNoTable is returned when a frame is processed before any color table
// has been loaded or built.
var ErrNoTable = errors.New("no color table loaded")

// Frame holds the intermediate products of one pipeline run.
type Frame struct {
	// Image is the prepared frame the grid was classified from.
	Image *image.NRGBA

	// Grid is the per-pixel label grid.
	Grid *segment.LabelGrid

	// Blobs is nil until Segment runs.
	Blobs []segment.Blob
}

// Pipeline turns frames into blobs.
type Pipeline struct {
	width, height int
	blur          float64
	tables        *colortable.Holder
	seg           *segment.Segmenter
}

// New builds a pipeline from cfg, reading the color table from tables.
func New(cfg *config.Config, tables *colortable.Holder) (*Pipeline, error) {
	sc, err := cfg.SegmentConfig()
	if err != nil {
		return nil, err
	}
	seg, err := segment.New(sc)
	if err != nil {
		return nil, fmt.Errorf("failed to create segmenter: %w", err)
	}
	return &Pipeline{
		width:  sc.Width,
		height: sc.Height,
		blur:   cfg.GetBlurRadius(),
		tables: tables,
		seg:    seg,
	}, nil
}

// Size returns the grid size frames are prepared to.
func (p *Pipeline) Size() (width, height int) {
	return p.width, p.height
}

// Classify prepares img and labels every pixel with the current table.
func (p *Pipeline) Classify(img image.Image) (*Frame, error) {
	return p.ClassifyWith(img, p.tables.Load())
}

// ClassifyWith is Classify with an explicit table, such as one holding edits
// that have not been committed yet.
func (p *Pipeline) ClassifyWith(img image.Image, table *colortable.Table) (*Frame, error) {
	if table == nil {
		return nil, ErrNoTable
	}
	prepared, err := imaging.PrepareFrame(img, p.width, p.height, p.blur)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare frame: %w", err)
	}
	grid, err := table.ClassifyImage(prepared)
	if err != nil {
		return nil, fmt.Errorf("failed to classify frame: %w", err)
	}
	return &Frame{Image: prepared, Grid: grid}, nil
}

// Segment classifies img and extracts its blobs.
func (p *Pipeline) Segment(img image.Image) (*Frame, error) {
	f, err := p.Classify(img)
	if err != nil {
		return nil, err
	}
	f.Blobs, err = p.seg.Segment(f.Grid)
	if err != nil {
		return nil, fmt.Errorf("failed to segment frame: %w", err)
	}
	return f, nil
}
