package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
)

// frame is a decoded image together with the format name reported by the
// decoder.
type frame struct {
	img    image.Image
	format string
}

// ImageCache provides thread-safe caching of decoded frames keyed by path.
//
// Once a frame is loaded, subsequent Load() calls for the same path return the
// cached copy without disk I/O. Frames that are replaced on disk must be
// evicted explicitly.
//
// # Supported Formats
//
// PNG, JPEG and GIF through the standard library, TIFF and BMP through
// golang.org/x/image. Camera dumps are commonly written as TIFF or BMP.
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	img, err := cache.Load("/frames/000123.png")
//	if err != nil {
//	    return err
//	}
//	defer cache.Evict("/frames/000123.png")
type ImageCache struct {
	mu     sync.RWMutex
	frames map[string]frame
}

// NewImageCache creates an empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		frames: make(map[string]frame),
	}
}

// Load retrieves a frame from the cache or decodes it from disk.
//
// Parameters:
//   - path: Path to the image. The exact string is the cache key, so a
//     relative and an absolute path to the same file are cached separately.
//
// Returns:
//   - image.Image: The decoded image.
//   - error: Non-nil if the file cannot be opened or decoded.
func (c *ImageCache) Load(path string) (image.Image, error) {
	f, err := c.load(path)
	if err != nil {
		return nil, err
	}
	return f.img, nil
}

func (c *ImageCache) load(path string) (frame, error) {
	c.mu.RLock()
	if f, ok := c.frames[path]; ok {
		c.mu.RUnlock()
		return f, nil
	}
	c.mu.RUnlock()

	file, err := os.Open(path)
	if err != nil {
		return frame{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return frame{}, fmt.Errorf("failed to decode image: %w", err)
	}

	f := frame{img: img, format: format}
	c.mu.Lock()
	c.frames[path] = f
	c.mu.Unlock()
	return f, nil
}

// Len reports the number of cached frames.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.frames)
}

// Clear removes all frames from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.frames = make(map[string]frame)
	c.mu.Unlock()
}

// Evict removes the frame cached under path. Unknown paths are ignored.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.frames, path)
	c.mu.Unlock()
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the format name reported by the decoder, e.g. "png", "jpeg",
	// "tiff" or "bmp".
	Format string `json:"format"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha indicates whether the decoded image carries an alpha channel.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image into the cache and returns its metadata.
//
// Parameters:
//   - cache: The image cache to use for loading. Must not be nil.
//   - path: Path to the image file.
//
// Returns:
//   - *ImageInfo: Metadata about the image.
//   - error: Non-nil if the image cannot be loaded or the file cannot be stat'd.
//
// The format comes from the decoder rather than the file extension, so a PNG
// saved as frame.dat still reports "png".
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	f, err := cache.load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	hasAlpha := false
	colorDepth := "8-bit"
	switch f.img.(type) {
	case *image.RGBA, *image.NRGBA:
		hasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
		colorDepth = "16-bit"
	case *image.Gray16:
		colorDepth = "16-bit"
	}

	bounds := f.img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        f.format,
		ColorDepth:    colorDepth,
		HasAlpha:      hasAlpha,
		FileSizeBytes: stat.Size(),
	}, nil
}

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GetDimensions returns the dimensions of an image, loading it into the cache
// if needed.
func GetDimensions(cache *ImageCache, path string) (*DimensionsResult, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	return &DimensionsResult{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
