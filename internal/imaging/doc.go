// Package imaging provides the dense grayscale pixel grid used by the packing
// and message codecs, plus loading and saving grids as image files.
//
// # Coordinate System
//
// Grid coordinates are (row, col), 0-based, with (0,0) at the top-left corner.
// Pixels are stored row-major, so the linear index of (row, col) is
// row*width + col. This is the order in which the message codec visits pixels.
//
// # Thread Safety
//
// The GridCache type is safe for concurrent use. A Grid itself is not
// synchronized; it has a single owner at a time. Loads from the cache return
// private copies.
//
// # Pixel Values
//
// Pixels are 8-bit unsigned values. Arithmetic between grids (Add, Sub)
// clamps to [0, 255]. Color images are converted to grayscale on load using
// the luminance weights of github.com/disintegration/imaging.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Grids of different sizes in Add and Sub (ErrDimensionMismatch)
//   - Coordinates outside the grid in Pixel and SetPixel (ErrOutOfBounds)
//   - File I/O errors during image loading and saving
package imaging
