package stego

import (
	"errors"
	"fmt"
)

// CharBits is the number of bits each message character occupies.
const CharBits = 7

var (
	// ErrCapacity is returned when a message needs more pixels than the grid has.
	ErrCapacity = errors.New("message exceeds image capacity")

	// ErrFormat is returned for bit sequences that cannot be decoded as text.
	ErrFormat = errors.New("invalid bit sequence")

	// ErrEncodingRange is returned for characters outside 7-bit ASCII.
	ErrEncodingRange = errors.New("character outside 7-bit range")
)

// Bits is an ordered sequence of single-bit values, each 0 or 1.
type Bits []uint8

// EncodeText converts a message into its bit sequence: 7 bits per character,
// most significant bit first. Bytes above 127 are rejected.
func EncodeText(message string) (Bits, error) {
	for k := 0; k < len(message); k++ {
		if message[k] > 127 {
			return nil, fmt.Errorf("byte %d of message is 0x%02X: %w", k, message[k], ErrEncodingRange)
		}
	}

	bits := make(Bits, 0, CharBits*len(message))
	for k := 0; k < len(message); k++ {
		c := message[k]
		for shift := CharBits - 1; shift >= 0; shift-- {
			bits = append(bits, (c>>uint(shift))&1)
		}
	}
	return bits, nil
}

// DecodeText reassembles 7-bit groups, most significant bit first, into text.
func DecodeText(bits Bits) (string, error) {
	if len(bits)%CharBits != 0 {
		return "", fmt.Errorf("%d bits is not a multiple of %d: %w", len(bits), CharBits, ErrFormat)
	}
	if err := bits.validate(); err != nil {
		return "", err
	}

	out := make([]byte, len(bits)/CharBits)
	for k := range out {
		var c byte
		for _, b := range bits[k*CharBits : (k+1)*CharBits] {
			c = c<<1 | b
		}
		out[k] = c
	}
	return string(out), nil
}

func (b Bits) validate() error {
	for k, v := range b {
		if v > 1 {
			return fmt.Errorf("bit %d has value %d: %w", k, v, ErrFormat)
		}
	}
	return nil
}

// String renders the bits as a compact 0/1 string, e.g. "1000001".
func (b Bits) String() string {
	out := make([]byte, len(b))
	for k, v := range b {
		out[k] = '0' + v
	}
	return string(out)
}

// ParseBits is the inverse of Bits.String.
func ParseBits(s string) (Bits, error) {
	bits := make(Bits, len(s))
	for k := 0; k < len(s); k++ {
		switch s[k] {
		case '0':
			bits[k] = 0
		case '1':
			bits[k] = 1
		default:
			return nil, fmt.Errorf("character %d is %q: %w", k, s[k], ErrFormat)
		}
	}
	return bits, nil
}
