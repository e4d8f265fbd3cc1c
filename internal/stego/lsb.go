package stego

import (
	"fmt"

	"github.com/ironsheep/secretimage-mcp/internal/imaging"
	"github.com/ironsheep/secretimage-mcp/internal/monitoring"
	"github.com/ironsheep/secretimage-mcp/internal/secret"
)

// StartPixel returns the (row, col) of the first pixel of an n-pixel run that
// ends on the grid's last pixel. n must not exceed g.PixelCount().
func StartPixel(g *imaging.Grid, n int) (row, col int) {
	if g.Width() == 0 {
		return 0, 0
	}
	start := g.PixelCount() - n
	return start / g.Width(), start % g.Width()
}

// Embed writes bits into the least significant bits of the last len(bits)
// pixels of g, in row-major order, and returns the result as a new grid.
// g is not modified.
func Embed(g *imaging.Grid, bits Bits) (*imaging.Grid, error) {
	total := g.PixelCount()
	if len(bits) > total {
		return nil, fmt.Errorf("%d bits into %d pixels: %w", len(bits), total, ErrCapacity)
	}
	if err := bits.validate(); err != nil {
		return nil, err
	}

	out := g.Clone()
	if len(bits) == 0 {
		return out, nil
	}

	startRow, startCol := StartPixel(g, len(bits))
	k := 0
	for row := startRow; row < g.Height(); row++ {
		col := 0
		if row == startRow {
			col = startCol
		}
		for ; col < g.Width(); col++ {
			v := int(out.At(row, col))&^1 | int(bits[k])
			out.Set(row, col, imaging.ClampByte(v))
			k++
		}
	}
	monitoring.Logf("embedded %d bits from pixel (%d,%d)", len(bits), startRow, startCol)
	return out, nil
}

// Extract reads the least significant bits of the last 7*messageLength pixels
// of g, in row-major order.
func Extract(g *imaging.Grid, messageLength int) (Bits, error) {
	total := g.PixelCount()
	if messageLength < 0 {
		return nil, fmt.Errorf("negative message length %d: %w", messageLength, ErrCapacity)
	}
	if messageLength > total/CharBits {
		return nil, fmt.Errorf("%d characters do not fit in %d pixels: %w", messageLength, total, ErrCapacity)
	}
	n := messageLength * CharBits

	bits := make(Bits, 0, n)
	if n == 0 {
		return bits, nil
	}

	startRow, startCol := StartPixel(g, n)
	for row := startRow; row < g.Height(); row++ {
		col := 0
		if row == startRow {
			col = startCol
		}
		for ; col < g.Width(); col++ {
			bits = append(bits, g.At(row, col)&1)
		}
	}
	return bits, nil
}

// Capacity returns the longest message, in characters, that g can hold.
func Capacity(g *imaging.Grid) int {
	return g.PixelCount() / CharBits
}

// EmbedPacked embeds bits into g and packs the result.
func EmbedPacked(g *imaging.Grid, bits Bits) (*secret.PackedImage, error) {
	embedded, err := Embed(g, bits)
	if err != nil {
		return nil, err
	}
	return secret.Split(embedded)
}

// ExtractPacked reconstructs p and extracts the bits of a messageLength
// character message.
func ExtractPacked(p *secret.PackedImage, messageLength int) (Bits, error) {
	return Extract(secret.Reconstruct(p), messageLength)
}

// HideMessage encodes message and embeds it into g, returning the packed result.
func HideMessage(g *imaging.Grid, message string) (*secret.PackedImage, error) {
	bits, err := EncodeText(message)
	if err != nil {
		return nil, err
	}
	return EmbedPacked(g, bits)
}

// RevealMessage extracts and decodes a messageLength character message from p.
func RevealMessage(p *secret.PackedImage, messageLength int) (string, error) {
	bits, err := ExtractPacked(p, messageLength)
	if err != nil {
		return "", err
	}
	return DecodeText(bits)
}
