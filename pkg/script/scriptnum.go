package script

import (
	"errors"
	"fmt"
	"math"
)

// Num represents a numeric value used by the scripting engine.
//
// Numbers live on the stack encoded as little endian magnitude with a sign
// bit: the high bit of the final byte carries the sign, and an extra zero
// byte is appended only when the magnitude's own top bit would otherwise be
// mistaken for it. The empty byte string encodes zero. Encoding always
// minimizes; decoding tolerates non-minimal input, since arbitrary scripts
// may push padded numbers.
type Num int64

// MaxNumLen is the byte-length cap applied to operands of the arithmetic
// opcodes. Results may exceed it (an addition of two 4-byte values can carry
// into a fifth byte) and remain valid until reinterpreted as a number.
const MaxNumLen = 4

// ErrNumTooBig is returned when a byte string longer than the requested
// operand cap is interpreted as a number.
var ErrNumTooBig = errors.New("script: number exceeds operand size limit")

// Bytes returns the minimal little endian sign-bit encoding of n.
func (n Num) Bytes() []byte {
	if n == 0 {
		return nil
	}

	// The magnitude is taken in uint64 space so the minimum int64, whose
	// negation does not fit in an int64, still encodes correctly.
	isNegative := n < 0
	mag := uint64(n)
	if isNegative {
		mag = -mag
	}

	// 8 magnitude bytes for the largest int64 plus a possible sign byte.
	result := make([]byte, 0, 9)
	for mag > 0 {
		result = append(result, byte(mag&0xff))
		mag >>= 8
	}

	// When the most significant byte already has its high bit set, an extra
	// byte is required to hold the sign. Otherwise the sign rides on the
	// most significant byte itself.
	if result[len(result)-1]&0x80 != 0 {
		extraByte := byte(0x00)
		if isNegative {
			extraByte = 0x80
		}
		result = append(result, extraByte)
	} else if isNegative {
		result[len(result)-1] |= 0x80
	}

	return result
}

// Int32 clamps the number into the int32 range.
func (n Num) Int32() int32 {
	if n > 0x7fffffff {
		return 0x7fffffff
	}
	if n < -0x80000000 {
		return -0x80000000
	}
	return int32(n)
}

// MakeNum interprets b as a script number. maxLen caps the input length (the
// arithmetic opcodes pass MaxNumLen); ErrNumTooBig is returned beyond it.
// Non-minimal encodings are accepted.
func MakeNum(b []byte, maxLen int) (Num, error) {
	if len(b) > maxLen {
		return 0, fmt.Errorf("%w: %d > %d bytes", ErrNumTooBig, len(b), maxLen)
	}
	if len(b) == 0 {
		return 0, nil
	}

	var v int64
	for i, x := range b {
		v |= int64(x) << uint8(8*i)
	}

	// When the sign bit of the final byte is set, strip it from the
	// accumulated value and negate.
	if b[len(b)-1]&0x80 != 0 {
		v &= ^(int64(0x80) << uint8(8*(len(b)-1)))
		return Num(-v), nil
	}
	return Num(v), nil
}

// UnsignedNum interprets b as an unsigned little endian integer with no sign
// bit, the form fixed-width transaction fields use. Values beyond 8 bytes (or
// past the int64 range) are rejected.
func UnsignedNum(b []byte) (Num, error) {
	if len(b) > 8 {
		return 0, fmt.Errorf("%w: %d > 8 bytes", ErrNumTooBig, len(b))
	}
	var v uint64
	for i, x := range b {
		v |= uint64(x) << uint8(8*i)
	}
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d overflows", ErrNumTooBig, v)
	}
	return Num(v), nil
}

// MinimallyEncode canonicalizes a number encoding of any length without
// interpreting it through an integer type, so values wider than 8 bytes
// survive. It strips redundant trailing bytes while preserving the sign,
// mapping every encoding of zero (including negative zero) to the empty
// string.
func MinimallyEncode(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}

	last := b[len(b)-1]
	if last&0x7f != 0 {
		out := make([]byte, len(b))
		copy(out, b)
		return out
	}

	// The final byte is a bare sign byte (0x00 or 0x80).
	if len(b) == 1 {
		return nil
	}
	if b[len(b)-2]&0x80 != 0 {
		// The byte below already uses its high bit, so the sign byte is
		// load bearing and nothing can be stripped.
		out := make([]byte, len(b))
		copy(out, b)
		return out
	}

	sign := last & 0x80
	for i := len(b) - 1; i > 0; i-- {
		if b[i-1] == 0 {
			continue
		}
		if b[i-1]&0x80 != 0 {
			// Keep one sign byte on top of this magnitude byte.
			out := make([]byte, i+1)
			copy(out, b[:i])
			out[i] = sign
			return out
		}
		out := make([]byte, i)
		copy(out, b[:i])
		out[i-1] |= sign
		return out
	}

	// All magnitude bytes were zero.
	return nil
}
