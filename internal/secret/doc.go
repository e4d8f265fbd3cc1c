// Package secret packs square grayscale grids into triangular form and
// persists the packed form as text.
//
// A grid of side H splits into an upper array of H*(H+1)/2 values (every
// pixel with col >= row) and a lower array of H*(H-1)/2 values (col < row).
// Both arrays are in row-major visitation order, and the offset of any
// coordinate is computed in closed form by UpperOffset and LowerOffset, so
// Split, Reconstruct and SaveBack each derive offsets independently.
//
// # Persisted Format
//
//	<width> <height>
//	<upper[0]> <upper[1]> ... <upper[n-1]>
//	<lower[0]> <lower[1]> ... <lower[m-1]>
//
// Integers are space-separated. Load validates that the arrays match the
// sizes implied by the height.
//
// # Errors
//
// ErrDimensionMismatch reports non-square grids and grid/packed size
// disagreements. ErrFormat reports malformed records and inconsistent raw
// arrays. All checks run before any array is written.
package secret
