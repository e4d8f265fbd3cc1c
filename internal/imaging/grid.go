package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

var (
	// ErrDimensionMismatch is returned when two grids that must share a size do not.
	ErrDimensionMismatch = errors.New("grid dimension mismatch")

	// ErrOutOfBounds is returned by the checked accessors for coordinates outside the grid.
	ErrOutOfBounds = errors.New("pixel coordinates out of bounds")
)

// Grid is a dense grayscale pixel grid.
//
// Pixels are stored in a single row-major buffer: the pixel at (row, col)
// lives at index row*width + col. Values are 8-bit (0-255).
//
// A Grid is owned by a single caller at a time. Operations that produce a new
// grid (Clone, Add, Sub, FromImage) never alias the receiver's buffer.
type Grid struct {
	width  int
	height int
	pix    []uint8
}

// NewGrid creates a blank (all-zero) grid of the given size.
// Negative dimensions are treated as zero.
func NewGrid(width, height int) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Grid{
		width:  width,
		height: height,
		pix:    make([]uint8, width*height),
	}
}

// NewGridFromPixels creates a grid from a row-major pixel slice. The slice is copied.
func NewGridFromPixels(width, height int, pix []uint8) (*Grid, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("invalid grid size %dx%d: %w", width, height, ErrDimensionMismatch)
	}
	if len(pix) != width*height {
		return nil, fmt.Errorf("pixel count %d does not match %dx%d: %w", len(pix), width, height, ErrDimensionMismatch)
	}
	g := NewGrid(width, height)
	copy(g.pix, pix)
	return g, nil
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// PixelCount returns width*height.
func (g *Grid) PixelCount() int { return g.width * g.height }

// At returns the pixel at (row, col). It panics on out-of-range coordinates
// like a slice index would; use Pixel for a checked read.
func (g *Grid) At(row, col int) uint8 {
	return g.pix[row*g.width+col]
}

// Set stores v at (row, col). It panics on out-of-range coordinates.
func (g *Grid) Set(row, col int, v uint8) {
	g.pix[row*g.width+col] = v
}

// Pixel is the bounds-checked form of At.
func (g *Grid) Pixel(row, col int) (uint8, error) {
	if !g.inBounds(row, col) {
		return 0, fmt.Errorf("(%d,%d) in %dx%d grid: %w", row, col, g.width, g.height, ErrOutOfBounds)
	}
	return g.At(row, col), nil
}

// SetPixel is the bounds-checked form of Set.
func (g *Grid) SetPixel(row, col int, v uint8) error {
	if !g.inBounds(row, col) {
		return fmt.Errorf("(%d,%d) in %dx%d grid: %w", row, col, g.width, g.height, ErrOutOfBounds)
	}
	g.Set(row, col, v)
	return nil
}

func (g *Grid) inBounds(row, col int) bool {
	return row >= 0 && row < g.height && col >= 0 && col < g.width
}

// Pixels returns a copy of the row-major pixel buffer.
func (g *Grid) Pixels() []uint8 {
	out := make([]uint8, len(g.pix))
	copy(out, g.pix)
	return out
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	return &Grid{
		width:  g.width,
		height: g.height,
		pix:    g.Pixels(),
	}
}

// Equal reports whether both grids have the same size and identical pixels.
func (g *Grid) Equal(other *Grid) bool {
	if g == nil || other == nil {
		return g == other
	}
	if g.width != other.width || g.height != other.height {
		return false
	}
	for i := range g.pix {
		if g.pix[i] != other.pix[i] {
			return false
		}
	}
	return true
}

// Add returns the pixel-wise sum of two grids, clamped to 255.
func (g *Grid) Add(other *Grid) (*Grid, error) {
	return g.combine(other, func(a, b int) int { return a + b })
}

// Sub returns the pixel-wise difference of two grids, clamped to 0.
func (g *Grid) Sub(other *Grid) (*Grid, error) {
	return g.combine(other, func(a, b int) int { return a - b })
}

func (g *Grid) combine(other *Grid, op func(a, b int) int) (*Grid, error) {
	if g.width != other.width || g.height != other.height {
		return nil, fmt.Errorf("%dx%d vs %dx%d: %w", g.width, g.height, other.width, other.height, ErrDimensionMismatch)
	}
	result := NewGrid(g.width, g.height)
	for i := range g.pix {
		result.pix[i] = ClampByte(op(int(g.pix[i]), int(other.pix[i])))
	}
	return result, nil
}

// FromImage converts any image to a grayscale grid using the standard
// luminance model of image/color. The grid origin is the image's Bounds().Min.
func FromImage(img image.Image) *Grid {
	bounds := img.Bounds()
	g := NewGrid(bounds.Dx(), bounds.Dy())
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			c := color.GrayModel.Convert(img.At(x+bounds.Min.X, y+bounds.Min.Y)).(color.Gray)
			g.pix[y*g.width+x] = c.Y
		}
	}
	return g
}

// Image returns the grid as an *image.Gray with origin (0,0).
func (g *Grid) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.width, g.height))
	for y := 0; y < g.height; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+g.width], g.pix[y*g.width:(y+1)*g.width])
	}
	return img
}

// ClampByte constrains an integer to the 8-bit pixel range [0, 255].
func ClampByte(val int) uint8 {
	return uint8(clamp(val, 0, 255))
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
