package imaging

import (
	"fmt"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp" // Register BMP format decoder
)

// GridCache provides thread-safe caching of decoded grayscale grids to avoid
// redundant disk reads.
//
// Grids are keyed by the exact path string passed to Load. Load hands out a
// clone of the cached grid, so callers may mutate what they receive without
// affecting later loads.
//
// # Memory Management
//
// Cached grids remain in memory until explicitly removed via Evict() or Clear().
type GridCache struct {
	mu    sync.RWMutex
	grids map[string]*Grid
}

// NewGridCache creates and initializes a new empty grid cache.
func NewGridCache() *GridCache {
	return &GridCache{
		grids: make(map[string]*Grid),
	}
}

// Load retrieves a grid from the cache or decodes it from disk if not cached.
//
// Parameters:
//   - path: Absolute or relative file path to the image. Supported formats are
//     PNG, JPEG, GIF and BMP. Color images are converted to grayscale.
//
// Returns:
//   - *Grid: A private copy of the decoded grid.
//   - error: Non-nil if the file cannot be opened or decoded.
func (c *GridCache) Load(path string) (*Grid, error) {
	c.mu.RLock()
	if g, ok := c.grids[path]; ok {
		c.mu.RUnlock()
		return g.Clone(), nil
	}
	c.mu.RUnlock()

	g, err := LoadGrid(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.grids[path] = g
	c.mu.Unlock()

	return g.Clone(), nil
}

// Clear removes all grids from the cache.
func (c *GridCache) Clear() {
	c.mu.Lock()
	c.grids = make(map[string]*Grid)
	c.mu.Unlock()
}

// Evict removes a specific grid from the cache by its path.
// Callers that overwrite an image file should evict it so the next Load sees
// the new contents.
func (c *GridCache) Evict(path string) {
	c.mu.Lock()
	delete(c.grids, path)
	c.mu.Unlock()
}

// LoadGrid decodes an image file and converts it to a grayscale grid.
func LoadGrid(path string) (*Grid, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return FromImage(imaging.Grayscale(img)), nil
}

// SaveGrid writes a grid to disk. The format is chosen from the file extension;
// ".png" is the only lossless choice and the one the message codec relies on.
func SaveGrid(g *Grid, path string) error {
	if err := imaging.Save(g.Image(), path); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

// GridInfo contains metadata about a loaded image file.
type GridInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Square reports whether the image can be packed into triangular form.
	Square bool `json:"square"`

	// Format is the detected image format: "png", "jpeg", "gif", "bmp" or "unknown".
	// Detection is based on file extension, not file contents.
	Format string `json:"format"`

	// MessageCapacity is the longest 7-bit message (in characters) the image can hold.
	MessageCapacity int `json:"message_capacity"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadGridInfo loads an image through the cache and returns its metadata.
func LoadGridInfo(cache *GridCache, path string) (*GridInfo, error) {
	g, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		format = "png"
	case ".jpg", ".jpeg":
		format = "jpeg"
	case ".gif":
		format = "gif"
	case ".bmp":
		format = "bmp"
	}

	return &GridInfo{
		Width:           g.Width(),
		Height:          g.Height(),
		Square:          g.Width() == g.Height(),
		Format:          format,
		MessageCapacity: g.PixelCount() / 7,
		FileSizeBytes:   stat.Size(),
	}, nil
}
