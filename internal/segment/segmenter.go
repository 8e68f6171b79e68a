package segment

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"
)

const (
	// DefaultWindow joins runs that touch diagonally.
	DefaultWindow = 1

	// MinBlobArea is the smallest area a blob can have. Single pixels are
	// always treated as noise.
	MinBlobArea = 2
)

// Config controls a Segmenter.
type Config struct {
	// Width and Height are the fixed frame dimensions. Grids of any other size
	// are rejected.
	Width  int
	Height int

	// Window is the adjacency window in columns (0 = strict vertical
	// alignment).
	Window int

	// MinArea is the smallest blob area kept after assembly. Values below
	// MinBlobArea are raised to MinBlobArea.
	MinArea int

	// Merge selects the overlap merge behaviour.
	Merge MergeMode
}

// DefaultConfig returns the configuration for a width x height frame with
// window 1, single-pixel noise removal and one overlap merge pass.
func DefaultConfig(width, height int) Config {
	return Config{
		Width:   width,
		Height:  height,
		Window:  DefaultWindow,
		MinArea: MinBlobArea,
		Merge:   MergeSinglePass,
	}
}

// Validate checks the configuration for values the pipeline cannot handle.
func (c Config) Validate() error {
	var errs error
	if c.Width <= 0 || c.Height <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("frame size must be positive, got %dx%d", c.Width, c.Height))
	}
	if c.Window < 0 {
		errs = multierr.Append(errs, fmt.Errorf("adjacency window must be >= 0, got %d", c.Window))
	}
	if _, ok := mergeModeNames[c.Merge]; !ok {
		errs = multierr.Append(errs, fmt.Errorf("invalid merge mode %d", int(c.Merge)))
	}
	return errs
}

// Segmenter turns label grids of a fixed size into blobs.
//
// The zero value is not usable; create one with New. A Segmenter is safe for
// concurrent use.
type Segmenter struct {
	cfg  Config
	pool sync.Pool
}

// New creates a Segmenter for the given configuration.
func New(cfg Config) (*Segmenter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid segment config: %w", err)
	}
	cfg.MinArea = max(cfg.MinArea, MinBlobArea)

	s := &Segmenter{cfg: cfg}
	s.pool.New = func() any {
		return &arena{}
	}
	return s, nil
}

// Config returns the effective configuration.
func (s *Segmenter) Config() Config {
	return s.cfg
}

// Segment extracts the blobs of one frame.
//
// Parameters:
//   - grid: Classified frame. Its dimensions must equal the configured
//     Width and Height.
//
// Returns:
//   - []Blob: Blobs in first-encountered order after noise removal and the
//     overlap merge. Never nil; a frame without blobs yields an empty slice.
//   - error: Wraps ErrGridSize if the grid does not match the configuration.
//     No other error is possible.
//
// The caller owns the returned blobs.
func (s *Segmenter) Segment(grid *LabelGrid) ([]Blob, error) {
	if err := grid.checkSize(s.cfg.Width, s.cfg.Height); err != nil {
		return nil, err
	}

	a := s.pool.Get().(*arena)
	defer s.pool.Put(a)
	a.reset(grid.Width, grid.Height)

	a.extractRuns(grid)
	a.mergeRows(s.cfg.Window)
	blobs := a.assemble(s.cfg.MinArea)
	return MergeOverlapping(blobs, s.cfg.Merge), nil
}

// Extract segments a grid with the default configuration sized to the grid
// and the given adjacency window.
func Extract(grid *LabelGrid, window int) ([]Blob, error) {
	if grid == nil {
		return nil, fmt.Errorf("nil grid: %w", ErrGridSize)
	}
	if grid.Width == 0 || grid.Height == 0 {
		if len(grid.Labels) != 0 {
			return nil, fmt.Errorf("empty grid has %d labels: %w", len(grid.Labels), ErrGridSize)
		}
		return []Blob{}, nil
	}
	cfg := DefaultConfig(grid.Width, grid.Height)
	cfg.Window = window
	s, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return s.Segment(grid)
}
