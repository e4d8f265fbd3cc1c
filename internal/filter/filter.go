// Package filter applies neighborhood filters to grayscale grids and pushes
// the result back into packed images.
//
// All filters take a square, odd-sized kernel centered on each pixel.
// Pixels outside the grid take the value of the nearest edge pixel, so a
// uniform grid stays uniform up to its border. Results are truncated
// toward zero and clamped to [0, 255].
package filter

import (
	"errors"
	"fmt"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/convolution"

	"github.com/ironsheep/secretimage-mcp/internal/imaging"
	"github.com/ironsheep/secretimage-mcp/internal/secret"
)

// ErrInvalidParams is returned for kernel sizes, sigmas or filter names that
// cannot be applied.
var ErrInvalidParams = errors.New("invalid filter parameters")

// Filter names accepted by Apply.
const (
	Mean     = "mean"
	Gaussian = "gaussian"
	Unsharp  = "unsharp"
)

// DefaultUnsharpSigma is the blur used by the unsharp mask.
const DefaultUnsharpSigma = 1.0

// Params selects a filter and its settings. Fields a filter does not use are ignored.
type Params struct {
	Name       string  `json:"name"`
	KernelSize int     `json:"kernel_size,omitempty"`
	Sigma      float64 `json:"sigma,omitempty"`
	Amount     float64 `json:"amount,omitempty"`
}

// Apply runs the named filter and returns a new grid.
func Apply(g *imaging.Grid, p Params) (*imaging.Grid, error) {
	switch p.Name {
	case Mean:
		return MeanFilter(g, p.KernelSize)
	case Gaussian:
		return GaussianSmoothing(g, p.KernelSize, p.Sigma)
	case Unsharp:
		return UnsharpMask(g, p.KernelSize, p.Amount)
	default:
		return nil, fmt.Errorf("unknown filter %q: %w", p.Name, ErrInvalidParams)
	}
}

// ApplyPacked reconstructs p, filters it and writes the result back into p.
func ApplyPacked(p *secret.PackedImage, params Params) error {
	filtered, err := Apply(secret.Reconstruct(p), params)
	if err != nil {
		return err
	}
	return p.SaveBack(filtered)
}

func checkKernel(kernelSize int) error {
	if kernelSize < 1 || kernelSize%2 == 0 {
		return fmt.Errorf("kernel size %d must be odd and positive: %w", kernelSize, ErrInvalidParams)
	}
	return nil
}

// MeanFilter replaces each pixel with the average of its kernelSize x
// kernelSize neighborhood.
func MeanFilter(g *imaging.Grid, kernelSize int) (*imaging.Grid, error) {
	if err := checkKernel(kernelSize); err != nil {
		return nil, err
	}
	if g.PixelCount() == 0 || kernelSize == 1 {
		return g.Clone(), nil
	}
	radius := float64(kernelSize-1) / 2
	return imaging.FromImage(blur.Box(g.Image(), radius)), nil
}

// GaussianKernel returns the normalized kernelSize x kernelSize kernel with
// weights exp(-(x²+y²)/(2σ²)).
func GaussianKernel(kernelSize int, sigma float64) convolution.Matrix {
	k := convolution.NewKernel(kernelSize, kernelSize)
	half := kernelSize / 2
	for y := 0; y < kernelSize; y++ {
		for x := 0; x < kernelSize; x++ {
			dx, dy := float64(x-half), float64(y-half)
			k.Matrix[y*kernelSize+x] = math.Exp(-(dx*dx + dy*dy) / (2 * sigma * sigma))
		}
	}
	return k.Normalized()
}

// GaussianSmoothing blurs g with a kernelSize x kernelSize Gaussian of the
// given standard deviation.
func GaussianSmoothing(g *imaging.Grid, kernelSize int, sigma float64) (*imaging.Grid, error) {
	if err := checkKernel(kernelSize); err != nil {
		return nil, err
	}
	if sigma <= 0 {
		return nil, fmt.Errorf("sigma %g must be positive: %w", sigma, ErrInvalidParams)
	}
	if g.PixelCount() == 0 || kernelSize == 1 {
		return g.Clone(), nil
	}
	out := convolution.Convolve(g.Image(), GaussianKernel(kernelSize, sigma), &convolution.Options{})
	return imaging.FromImage(out), nil
}

// UnsharpMask sharpens g as original + amount*(original - blurred), where
// blurred is a kernelSize Gaussian with sigma DefaultUnsharpSigma. The result
// is clamped to [0, 255].
func UnsharpMask(g *imaging.Grid, kernelSize int, amount float64) (*imaging.Grid, error) {
	if amount < 0 {
		return nil, fmt.Errorf("amount %g must not be negative: %w", amount, ErrInvalidParams)
	}
	blurred, err := GaussianSmoothing(g, kernelSize, DefaultUnsharpSigma)
	if err != nil {
		return nil, err
	}

	out := imaging.NewGrid(g.Width(), g.Height())
	for r := 0; r < g.Height(); r++ {
		for c := 0; c < g.Width(); c++ {
			orig := float64(g.At(r, c))
			v := orig + amount*(orig-float64(blurred.At(r, c)))
			out.Set(r, c, imaging.ClampByte(int(math.Floor(v))))
		}
	}
	return out, nil
}
