// Package stego hides short 7-bit ASCII messages in the least significant
// bits of a grayscale grid.
//
// A message of n characters becomes 7n bits (EncodeText), most significant
// bit first per character. Embed writes those bits into the LSBs of the last
// 7n pixels of the grid in row-major order, so the final bit always lands on
// the bottom-right pixel. A reader who knows n can therefore locate the
// message without a length header (Extract, DecodeText).
//
// This is bit-hiding, not encryption: anyone who knows the scheme and the
// message length can read the message.
package stego
