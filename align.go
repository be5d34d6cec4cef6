package dvar

import "encoding/binary"

// alignTo rounds pos up to the next multiple of align, where align is
// a power of two.
func alignTo(pos, align int) int {
	return (pos + align - 1) &^ (align - 1)
}

// byteOrder returns the binary.ByteOrder matching the stream's chosen
// endianness. D-Bus streams pick endianness once per message; the
// value lives on Dvar, never on an individual descriptor or frame, so
// this is the only place that branches on it.
func byteOrder(bigEndian bool) binary.ByteOrder {
	if bigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// alignment of the builtin element codes, expressed as the exponent of
// a power of two (0 => 1 byte, 1 => 2, 2 => 4, 3 => 8), matching the
// 2-bit CDVarType.alignment field of the original implementation.
func elementAlignment(c byte) uint8 {
	switch c {
	case 'y', 'g':
		return 0
	case 'n', 'q':
		return 1
	case 'b', 'i', 'u', 'h', 's', 'o':
		return 2
	case 'x', 't', 'd':
		return 3
	case 'v':
		return 0
	case 'a':
		return 2
	case '(', '{':
		return 3
	default:
		return 0
	}
}

// elementSize is the fixed wire size of a basic fixed-width type, or 0
// for dynamically sized / container types.
func elementSize(c byte) uint16 {
	switch c {
	case 'y':
		return 1
	case 'n', 'q':
		return 2
	case 'b', 'i', 'u', 'h':
		return 4
	case 'x', 't', 'd':
		return 8
	default:
		return 0
	}
}

// isFixedUnvalidated reports whether c is one of the basic types that
// the fast-forward skip optimization may jump over in bulk: fixed
// width and requiring no per-value validation. 'b' is excluded because
// every value must be checked to be 0 or 1.
func isFixedUnvalidated(c byte) bool {
	switch c {
	case 'y', 'n', 'q', 'i', 'h', 'u', 'x', 't', 'd':
		return true
	default:
		return false
	}
}
