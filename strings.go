package dvar

// ObjectPath is a D-Bus object path: a '/'-separated sequence of
// [A-Za-z0-9_] segments, never empty, never ending in '/' unless it is
// the root path "/".
type ObjectPath string

// Signature is a D-Bus type signature string: zero or more complete
// types back to back, at most 255 characters.
type Signature string

// UnixFDIndex is the wire representation of the 'h' type: an index
// into an out-of-band array of file descriptors. This package carries
// the index only; resolving it to an actual descriptor is a transport
// concern outside this library's scope.
type UnixFDIndex uint32

// Variant is the in-memory payload of the D-Bus 'v' wire type: a
// signature paired with the value it describes. It is distinct from
// the Dvar engine type, which the original C library also calls
// "variant" — see DESIGN.md for why this package splits the two names.
type Variant struct {
	Sig   Signature
	Value any
}

// utf8Verify advances past the longest well-formed UTF-8 prefix of s,
// per Unicode 9.0.0 D92, stopping at the first embedded NUL or
// malformed byte. It mirrors c-dvar-utf8.h's c_dvar_utf8_verify byte
// for byte, including the 0xED surrogate exclusion and the narrowed
// continuation-byte ranges for the first byte of 3- and 4-byte
// sequences (0xE0, 0xED, 0xF0, 0xF4).
func utf8Verify(s []byte) []byte {
	for len(s) > 0 {
		b0 := s[0]
		switch {
		case b0 == 0x00:
			return s
		case b0 < 0x80:
			s = s[1:]
		case b0 < 0xC2:
			return s
		case b0 < 0xE0:
			if len(s) < 2 || !contBetween(s[1], 0x80, 0xBF) {
				return s
			}
			s = s[2:]
		case b0 < 0xE1:
			if len(s) < 3 || !contBetween(s[1], 0xA0, 0xBF) || !contBetween(s[2], 0x80, 0xBF) {
				return s
			}
			s = s[3:]
		case b0 < 0xED:
			if len(s) < 3 || !contBetween(s[1], 0x80, 0xBF) || !contBetween(s[2], 0x80, 0xBF) {
				return s
			}
			s = s[3:]
		case b0 < 0xEE:
			if len(s) < 3 || !contBetween(s[1], 0x80, 0x9F) || !contBetween(s[2], 0x80, 0xBF) {
				return s
			}
			s = s[3:]
		case b0 < 0xF0:
			if len(s) < 3 || !contBetween(s[1], 0x80, 0xBF) || !contBetween(s[2], 0x80, 0xBF) {
				return s
			}
			s = s[3:]
		case b0 < 0xF1:
			if len(s) < 4 || !contBetween(s[1], 0x90, 0xBF) || !contBetween(s[2], 0x80, 0xBF) || !contBetween(s[3], 0x80, 0xBF) {
				return s
			}
			s = s[4:]
		case b0 < 0xF4:
			if len(s) < 4 || !contBetween(s[1], 0x80, 0xBF) || !contBetween(s[2], 0x80, 0xBF) || !contBetween(s[3], 0x80, 0xBF) {
				return s
			}
			s = s[4:]
		case b0 < 0xF5:
			if len(s) < 4 || !contBetween(s[1], 0x80, 0x8F) || !contBetween(s[2], 0x80, 0xBF) || !contBetween(s[3], 0x80, 0xBF) {
				return s
			}
			s = s[4:]
		default:
			return s
		}
	}
	return s
}

func contBetween(b, lo, hi byte) bool {
	return b >= lo && b <= hi
}

// IsString reports whether s is well-formed UTF-8 with no embedded
// NUL byte. A trailing NUL is not part of s; callers strip it before
// calling IsString (the wire format always terminates strings with one,
// but the length prefix does not count it).
func IsString(s []byte) bool {
	return len(utf8Verify(s)) == 0
}

// IsPath reports whether s is a well-formed D-Bus object path: starts
// with '/', uses '/' only as a segment separator (no empty segments,
// no trailing '/' unless s is exactly "/"), and restricts segment
// characters to [A-Za-z0-9_].
func IsPath(s []byte) bool {
	if len(s) == 0 || s[0] != '/' {
		return false
	}
	slash := true
	for i := 1; i < len(s); i++ {
		switch {
		case s[i] == '/':
			if slash {
				return false
			}
			slash = true
		case isPathChar(s[i]):
			slash = false
		default:
			return false
		}
	}
	return !slash || len(s) == 1
}

func isPathChar(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9') || b == '_'
}

// IsSignature reports whether s is a sequence of zero or more complete
// types, each legal per the type grammar, and at most 255 characters
// long.
func IsSignature(s []byte) bool {
	if len(s) > 255 {
		return false
	}
	for len(s) > 0 {
		n, ok := verifyType(s)
		if !ok {
			return false
		}
		s = s[n:]
	}
	return true
}

// isCompleteType reports whether s is exactly one complete type with
// nothing left over — the stricter check the '<' variant-signature
// path needs, since a variant may carry exactly one type, never a
// concatenation of several.
func isCompleteType(s []byte) bool {
	n, ok := verifyType(s)
	return ok && n == len(s)
}

// verifyType walks the single complete type at the front of s and
// returns its length in bytes, or ok=false if s does not begin with a
// well-formed type. It is the structural half of the type compiler,
// kept free of any allocation so IsSignature/isCompleteType can run
// without building a descriptor array.
//
// Tracking which container a position is nested in (for the dict-entry
// first/second/closed checks) uses an explicit small-int state instead
// of looking behind at string[i-1]/string[i-2] the way the original
// parser does: the original's look-behind is only safe because '{'
// itself occupies the i-1 slot on the first iteration inside a dict
// entry, which is easy to get wrong at the boundary. Counting how many
// characters have been seen since the enclosing '{' sidesteps the
// underflow question entirely.
func verifyType(s []byte) (int, bool) {
	type frame struct {
		container   byte // 'a', '(', or '{'
		sinceOpen   int  // characters seen since this '{' opened, 0/1/2+
	}
	var stack [maxDepth]frame
	depth := 0
	nTuple := 0

	for i := 0; i < len(s); i++ {
		c := s[i]

		if depth > 0 && stack[depth-1].container == '{' {
			switch stack[depth-1].sinceOpen {
			case 0:
				if !isBasicElement(c) {
					return 0, false
				}
			case 1:
				if c == '}' {
					return 0, false
				}
			default:
				if c != '}' {
					return 0, false
				}
			}
		}

		switch c {
		case '{':
			if depth == 0 || stack[depth-1].container != 'a' {
				return 0, false
			}
			fallthrough
		case '(':
			nTuple++
			fallthrough
		case 'a':
			if depth > 0 {
				stack[depth-1].sinceOpen++
			}
			if depth >= maxDepth || nTuple > maxDepth/2 || depth+1-nTuple > maxDepth/2 {
				return 0, false
			}
			stack[depth] = frame{container: c}
			depth++
			continue

		case '}', ')':
			want := byte('(')
			if c == '}' {
				want = '{'
			}
			if depth == 0 || stack[depth-1].container != want {
				return 0, false
			}
			// mirrors CompileOne: an empty tuple is always invalid.
			if c == ')' && i > 0 && s[i-1] == '(' {
				return 0, false
			}
			if stack[depth-1].container == '{' && stack[depth-1].sinceOpen < 2 {
				return 0, false
			}
			nTuple--
			depth--

		case 'y', 'b', 'n', 'q', 'i', 'u', 'x', 't', 'h', 'd', 's', 'o', 'g', 'v':
			// terminal basic/variant type, handled below

		default:
			return 0, false
		}

		if depth > 0 {
			stack[depth-1].sinceOpen++
		}
		for depth > 0 && stack[depth-1].container == 'a' {
			depth--
			if depth > 0 {
				stack[depth-1].sinceOpen++
			}
		}

		if depth == 0 {
			return i + 1, true
		}
	}

	return 0, false
}

func isBasicElement(c byte) bool {
	switch c {
	case 'y', 'b', 'n', 'q', 'i', 'u', 'x', 't', 'h', 'd', 's', 'o', 'g':
		return true
	default:
		return false
	}
}
