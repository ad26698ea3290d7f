// Package buffer implements the RuneScape 317 protocol buffer: a growable
// byte buffer with the byte transforms, endianness orders, bit packing and
// variable-length framing the wire protocol layers on top of plain bytes.
package buffer

// ByteType is a per-byte arithmetic transform applied on write and reversed
// on read. Only the byte carrying the value's least-significant byte (B0 in
// the emitted stream) is transformed; every other byte of a multi-byte value
// uses NORMAL.
type ByteType int

const (
	// NORMAL leaves the byte unchanged.
	NORMAL ByteType = iota
	// A adds 128 on write, subtracts 128 on read.
	A
	// C negates the byte on both write and read.
	C
	// S computes 128-v on both write and read.
	S
)

func (t ByteType) put(v byte) byte {
	switch t {
	case A:
		return v + 128
	case C:
		return -v
	case S:
		return 128 - v
	default:
		return v
	}
}

func (t ByteType) get(v byte) byte {
	switch t {
	case A:
		return v - 128
	case C:
		return -v
	case S:
		return 128 - v
	default:
		return v
	}
}

// ByteOrder selects the byte ordering used to serialize 16/32/64-bit values.
type ByteOrder int

const (
	// BIG is standard most-significant-byte-first ordering.
	BIG ByteOrder = iota
	// LITTLE is least-significant-byte-first ordering.
	LITTLE
	// MIDDLE is the RuneScape mid-endian order [B1,B0,B3,B2]. 32-bit only.
	MIDDLE
	// INVERSE_MIDDLE is the RuneScape order [B2,B3,B0,B1]. 32-bit only.
	INVERSE_MIDDLE
)
