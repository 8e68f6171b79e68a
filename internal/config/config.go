// Package config loads the blob tools configuration from a JSON file.
//
// Every field is optional. Fields omitted from the file fall back to the
// defaults returned by the Get* accessors, so partial files are safe.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"

	"github.com/ironsheep/blob-tools-mcp/internal/segment"
)

// Defaults used when a field is not set.
const (
	DefaultWidth  = 640
	DefaultHeight = 480
	DefaultMerge  = "single"
)

// EnvColorTable overrides the color_table field when set.
const EnvColorTable = "BLOB_MCP_TABLE"

// maxFileSize caps the size of a config file.
const maxFileSize = 1 * 1024 * 1024

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config is the root configuration.
type Config struct {
	// Grid size frames are resized to before classification.
	Width  *int `json:"width,omitempty"`
	Height *int `json:"height,omitempty"`

	// Segmentation
	Window  *int    `json:"window,omitempty"`
	MinArea *int    `json:"min_area,omitempty"`
	Merge   *string `json:"merge,omitempty"` // "single", "fixpoint" or "none"

	// Frame preparation
	BlurRadius *float64 `json:"blur_radius,omitempty"`

	// Color table file, and whether to reload it when it changes on disk.
	ColorTable *string `json:"color_table,omitempty"`
	WatchTable *bool   `json:"watch_table,omitempty"`
}

// Empty returns a Config with every field unset.
func Empty() *Config {
	return &Config{}
}

// Load reads a Config from a JSON file.
// The file must have a .json extension and be at most 1MB. Unknown fields are
// rejected so that typos do not silently fall back to defaults.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv applies environment overrides using getenv, which is usually
// os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvColorTable); v != "" {
		c.ColorTable = &v
	}
}

// Validate reports every invalid field at once. Each problem wraps
// ErrInvalid, and multierr.Errors splits the result into the individual
// problems.
func (c *Config) Validate() error {
	var errs error
	if c.Width != nil && *c.Width <= 0 {
		errs = multierr.Append(errs, invalid("width must be positive, got %d", *c.Width))
	}
	if c.Height != nil && *c.Height <= 0 {
		errs = multierr.Append(errs, invalid("height must be positive, got %d", *c.Height))
	}
	if c.Window != nil && *c.Window < 0 {
		errs = multierr.Append(errs, invalid("window must be non-negative, got %d", *c.Window))
	}
	if c.MinArea != nil && *c.MinArea < 0 {
		errs = multierr.Append(errs, invalid("min_area must be non-negative, got %d", *c.MinArea))
	}
	if c.Merge != nil {
		if _, err := segment.ParseMergeMode(*c.Merge); err != nil {
			errs = multierr.Append(errs, invalid("merge: %v", err))
		}
	}
	if c.BlurRadius != nil && *c.BlurRadius < 0 {
		errs = multierr.Append(errs, invalid("blur_radius must be non-negative, got %g", *c.BlurRadius))
	}
	if c.GetWatchTable() && c.GetColorTable() == "" {
		errs = multierr.Append(errs, invalid("watch_table requires color_table"))
	}
	return errs
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// GetWidth returns the grid width or the default.
func (c *Config) GetWidth() int {
	if c.Width == nil {
		return DefaultWidth
	}
	return *c.Width
}

// GetHeight returns the grid height or the default.
func (c *Config) GetHeight() int {
	if c.Height == nil {
		return DefaultHeight
	}
	return *c.Height
}

// GetWindow returns the neighbor window or the default.
func (c *Config) GetWindow() int {
	if c.Window == nil {
		return segment.DefaultWindow
	}
	return *c.Window
}

// GetMinArea returns the minimum blob area or the default.
func (c *Config) GetMinArea() int {
	if c.MinArea == nil {
		return segment.MinBlobArea
	}
	return *c.MinArea
}

// GetMerge returns the merge mode name or the default.
func (c *Config) GetMerge() string {
	if c.Merge == nil || *c.Merge == "" {
		return DefaultMerge
	}
	return *c.Merge
}

// GetBlurRadius returns the blur radius, 0 when unset.
func (c *Config) GetBlurRadius() float64 {
	if c.BlurRadius == nil {
		return 0
	}
	return *c.BlurRadius
}

// GetColorTable returns the color table path, empty when unset.
func (c *Config) GetColorTable() string {
	if c.ColorTable == nil {
		return ""
	}
	return *c.ColorTable
}

// GetWatchTable reports whether the color table should be reloaded on change.
func (c *Config) GetWatchTable() bool {
	return c.WatchTable != nil && *c.WatchTable
}

// SegmentConfig maps the configuration onto a segment.Config.
func (c *Config) SegmentConfig() (segment.Config, error) {
	mode, err := segment.ParseMergeMode(c.GetMerge())
	if err != nil {
		return segment.Config{}, invalid("merge: %v", err)
	}
	return segment.Config{
		Width:   c.GetWidth(),
		Height:  c.GetHeight(),
		Window:  c.GetWindow(),
		MinArea: c.GetMinArea(),
		Merge:   mode,
	}, nil
}
