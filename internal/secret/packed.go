package secret

import (
	"errors"
	"fmt"

	"github.com/ironsheep/secretimage-mcp/internal/imaging"
)

var (
	// ErrDimensionMismatch is returned when a grid is not square, or when a
	// grid and a packed image disagree on size.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrFormat is returned for packed data whose array lengths or values are
	// inconsistent with its dimensions, and for malformed persisted records.
	ErrFormat = errors.New("malformed packed image")
)

// PackedImage is the triangular representation of a square grayscale image.
//
// Upper holds every pixel (i,j) with j >= i and Lower every pixel with j < i,
// both in row-major order. For height H, len(upper) == H*(H+1)/2 and
// len(lower) == H*(H-1)/2 always hold.
type PackedImage struct {
	width  int
	height int
	upper  []int
	lower  []int
}

// UpperSize is the length of the upper triangular array (diagonal included)
// for a square image of side h.
func UpperSize(h int) int {
	return h * (h + 1) / 2
}

// LowerSize is the length of the strictly lower triangular array for a
// square image of side h.
func LowerSize(h int) int {
	return h * (h - 1) / 2
}

// UpperOffset maps (i,j), j >= i, to its index in the upper array of an
// h-sided image. Offsets 0..UpperSize(h)-1 enumerate row i, columns i..h-1,
// row by row.
func UpperOffset(h, i, j int) int {
	return UpperSize(h) - (h-i)*(h-i-1)/2 - (h - j - 1) - 1
}

// LowerOffset maps (i,j), j < i, to its index in the lower array.
// Offsets enumerate row i, columns 0..i-1, row by row.
func LowerOffset(i, j int) int {
	return i*(i-1)/2 + j
}

// NewPackedImage builds a packed image from raw arrays, as read from storage.
// The arrays are copied.
func NewPackedImage(width, height int, upper, lower []int) (*PackedImage, error) {
	if err := validate(width, height, upper, lower); err != nil {
		return nil, err
	}
	p := &PackedImage{
		width:  width,
		height: height,
		upper:  make([]int, len(upper)),
		lower:  make([]int, len(lower)),
	}
	copy(p.upper, upper)
	copy(p.lower, lower)
	return p, nil
}

func validate(width, height int, upper, lower []int) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("negative size %dx%d: %w", width, height, ErrFormat)
	}
	if width != height {
		return fmt.Errorf("image is %dx%d, packing requires a square: %w", width, height, ErrDimensionMismatch)
	}
	if len(upper) != UpperSize(height) {
		return fmt.Errorf("upper array has %d values, want %d: %w", len(upper), UpperSize(height), ErrFormat)
	}
	if len(lower) != LowerSize(height) {
		return fmt.Errorf("lower array has %d values, want %d: %w", len(lower), LowerSize(height), ErrFormat)
	}
	for k, v := range upper {
		if v < 0 || v > 255 {
			return fmt.Errorf("upper[%d] = %d outside 0-255: %w", k, v, ErrFormat)
		}
	}
	for k, v := range lower {
		if v < 0 || v > 255 {
			return fmt.Errorf("lower[%d] = %d outside 0-255: %w", k, v, ErrFormat)
		}
	}
	return nil
}

// Split packs a square grid into its upper and lower triangular arrays.
func Split(g *imaging.Grid) (*PackedImage, error) {
	h := g.Height()
	if g.Width() != h {
		return nil, fmt.Errorf("cannot pack %dx%d grid: %w", g.Width(), h, ErrDimensionMismatch)
	}
	p := &PackedImage{
		width:  h,
		height: h,
		upper:  make([]int, UpperSize(h)),
		lower:  make([]int, LowerSize(h)),
	}
	p.fill(g)
	return p, nil
}

// Reconstruct rebuilds the dense grid from the packed arrays.
// The result is freshly allocated.
func Reconstruct(p *PackedImage) *imaging.Grid {
	h := p.height
	g := imaging.NewGrid(p.width, h)
	for i := 0; i < h; i++ {
		for j := 0; j < h; j++ {
			if j >= i {
				g.Set(i, j, uint8(p.upper[UpperOffset(h, i, j)]))
			} else {
				g.Set(i, j, uint8(p.lower[LowerOffset(i, j)]))
			}
		}
	}
	return g
}

// SaveBack overwrites the packed arrays in place from g, typically after a
// filter has modified a reconstructed grid. The arrays keep their identity
// and length; on error they are left untouched.
func (p *PackedImage) SaveBack(g *imaging.Grid) error {
	if g.Width() != p.width || g.Height() != p.height {
		return fmt.Errorf("grid is %dx%d, packed image is %dx%d: %w",
			g.Width(), g.Height(), p.width, p.height, ErrDimensionMismatch)
	}
	p.fill(g)
	return nil
}

func (p *PackedImage) fill(g *imaging.Grid) {
	h := p.height
	for i := 0; i < h; i++ {
		for j := 0; j < h; j++ {
			if j >= i {
				p.upper[UpperOffset(h, i, j)] = int(g.At(i, j))
			} else {
				p.lower[LowerOffset(i, j)] = int(g.At(i, j))
			}
		}
	}
}

// Width returns the image width.
func (p *PackedImage) Width() int { return p.width }

// Height returns the image height.
func (p *PackedImage) Height() int { return p.height }

// Upper returns a copy of the upper triangular array.
func (p *PackedImage) Upper() []int {
	out := make([]int, len(p.upper))
	copy(out, p.upper)
	return out
}

// Lower returns a copy of the strictly lower triangular array.
func (p *PackedImage) Lower() []int {
	out := make([]int, len(p.lower))
	copy(out, p.lower)
	return out
}
