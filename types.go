package dvar

// maxDepth is the maximum total container nesting depth a signature
// may reach (arrays and tuples/dict-entries combined). Tuple depth and
// array depth are each further capped at maxDepth/2.
const maxDepth = 64

// maxTypeLength is the longest a single signature may be, in
// characters, before it is rejected as overlong.
const maxTypeLength = 255

// Type is one descriptor in a compiled signature: a flat,
// position-indexed record of size, alignment, element class, subtree
// span, and basic-ness, one per signature character. Child i_type+1
// describes the first child of a container at i_type; the next
// sibling of the subtree rooted at i_type is i_type+Length.
type Type struct {
	// Size is the fixed wire size in bytes, or 0 if this type (or any
	// descendant) is dynamically sized.
	Size uint16
	// Alignment is the wire alignment of this type, as a power-of-two
	// exponent (0..3).
	Alignment uint8
	// Element is the type's single-character code: a basic code, 'v',
	// 'a', '(', ')', '{', or '}'.
	Element byte
	// Length is the number of descriptors in this type's subtree,
	// including itself.
	Length uint8
	// Basic reports whether this type may be used as a dict-entry key.
	Basic bool
}

var builtinTypes = map[byte]Type{
	'y': {Size: 1, Alignment: 0, Element: 'y', Length: 1, Basic: true},
	'b': {Size: 4, Alignment: 2, Element: 'b', Length: 1, Basic: true},
	'n': {Size: 2, Alignment: 1, Element: 'n', Length: 1, Basic: true},
	'q': {Size: 2, Alignment: 1, Element: 'q', Length: 1, Basic: true},
	'i': {Size: 4, Alignment: 2, Element: 'i', Length: 1, Basic: true},
	'u': {Size: 4, Alignment: 2, Element: 'u', Length: 1, Basic: true},
	'x': {Size: 8, Alignment: 3, Element: 'x', Length: 1, Basic: true},
	't': {Size: 8, Alignment: 3, Element: 't', Length: 1, Basic: true},
	'h': {Size: 4, Alignment: 2, Element: 'h', Length: 1, Basic: true},
	'd': {Size: 8, Alignment: 3, Element: 'd', Length: 1, Basic: true},
	's': {Size: 0, Alignment: 2, Element: 's', Length: 1, Basic: true},
	'o': {Size: 0, Alignment: 2, Element: 'o', Length: 1, Basic: true},
	'g': {Size: 0, Alignment: 0, Element: 'g', Length: 1, Basic: true},
	'v': {Size: 0, Alignment: 0, Element: 'v', Length: 1, Basic: false},
}

// scanOneLength figures out how many characters from the front of sig
// make up the next complete type, without fully validating it: it
// only tracks open/close brackets and 'a' prefixes, enough to size the
// descriptor array before the real parse. Mirrors the first pass of
// c_dvar_type_new_from_signature.
func scanOneLength(sig string) (int, *Error) {
	n := 0
	depth := 0
	for {
		if n >= maxTypeLength {
			return 0, newError(KindOverlongType, "signature exceeds 255 characters")
		}
		if n >= len(sig) {
			return 0, newError(KindInvalidType, "unterminated container")
		}
		c := sig[n]
		n++
		switch c {
		case '(', '{':
			depth++
		case ')', '}':
			if depth == 0 {
				return 0, newError(KindDepthOverflow, "unmatched closing bracket")
			}
			depth--
		}
		if !(c == 'a' || depth > 0) {
			break
		}
	}
	return n, nil
}

// CompileOne parses the single complete type at the front of signature,
// returning its flat descriptor array and the unconsumed remainder.
// Bytes past the first complete type are not inspected.
func CompileOne(signature string) ([]Type, string, error) {
	if len(signature) == 0 {
		return nil, "", newError(KindInvalidType, "empty signature")
	}

	n, err := scanOneLength(signature)
	if err != nil {
		return nil, "", err
	}
	sig := signature[:n]

	types := make([]Type, n)
	type stackEntry struct {
		pos       int
		container byte
		sinceOpen int
	}
	var stack [maxDepth]stackEntry
	depth := 0
	depthTuple := 0

	for i := 0; i < n; i++ {
		c := sig[i]
		var terminalPos int

		if depth > 0 && stack[depth-1].container == '{' {
			switch stack[depth-1].sinceOpen {
			case 0:
				if !isBasicElement(c) {
					return nil, "", newError(KindInvalidType, "dict-entry key must be a basic type")
				}
			case 1:
				if c == '}' {
					return nil, "", newError(KindInvalidType, "dict-entry missing value type")
				}
			default:
				if c != '}' {
					return nil, "", newError(KindInvalidType, "dict-entry has more than two types")
				}
			}
		}

		switch c {
		case '(', '{', 'a':
			if c != 'a' {
				depthTuple++
			}
			depth++
			if depth > maxDepth || depthTuple > maxDepth/2 || depth-depthTuple > maxDepth/2 {
				return nil, "", newError(KindDepthOverflow, "signature exceeds container depth limits")
			}

			var alignment uint8 = 2
			length := uint8(1)
			if c != 'a' {
				alignment = 3
				length = 2
			}
			types[i] = Type{Size: 0, Alignment: alignment, Element: c, Length: length, Basic: false}

			if c == '{' && (depth < 2 || stack[depth-2].container != 'a') {
				return nil, "", newError(KindInvalidType, "dict-entry outside array")
			}

			stack[depth-1] = stackEntry{pos: i, container: c}
			continue

		case ')', '}':
			want := byte('(')
			if c == '}' {
				want = '{'
			}
			if depth == 0 || stack[depth-1].container != want {
				return nil, "", newError(KindInvalidType, "mismatched closing bracket")
			}
			// An empty tuple is always invalid, at any depth: see
			// DESIGN.md for why this follows the compiler's prose
			// definition rather than the bare-"()"-accepted example.
			if c == ')' && i > 0 && sig[i-1] == '(' {
				return nil, "", newError(KindInvalidType, "empty struct")
			}
			types[i] = Type{Size: 0, Alignment: 0, Element: c, Length: 1, Basic: false}

			openPos := stack[depth-1].pos
			depth--
			depthTuple--
			// the opening descriptor now records the whole subtree span;
			// it, not the closing bracket itself, is the terminal type
			// that completed here.
			types[openPos].Length = uint8(i - openPos + 1)
			terminalPos = openPos

		default:
			builtin, ok := builtinTypes[c]
			if !ok {
				return nil, "", newError(KindInvalidType, "unknown type code '"+string(c)+"'")
			}
			types[i] = builtin
			terminalPos = i
		}

		// A terminal type (basic, variant, or just-closed container)
		// completed at position i. Propagate it into any enclosing
		// array frames (exactly one element type each), then account
		// for it in the nearest enclosing tuple/dict-entry's running
		// size.
		childLen := int(types[terminalPos].Length)
		childAlign := types[terminalPos].Alignment
		childSize := types[terminalPos].Size
		childPos := terminalPos

		for depth > 0 && stack[depth-1].container == 'a' {
			arrPos := stack[depth-1].pos
			types[arrPos].Length = uint8(int(types[arrPos].Length) + childLen)
			childLen = int(types[arrPos].Length)
			childPos = arrPos
			depth--
		}
		// once any enclosing arrays have absorbed the terminal, the
		// thing completing at this point is the array itself (always
		// dynamically sized) rather than whatever is inside it
		childAlign = types[childPos].Alignment
		childSize = types[childPos].Size

		if depth > 0 {
			top := &stack[depth-1]
			top.sinceOpen++
			parentPos := top.pos
			if childSize != 0 && (childPos == parentPos+1 || types[parentPos].Size != 0) {
				types[parentPos].Size = uint16(alignTo(int(types[parentPos].Size), 1<<childAlign))
				types[parentPos].Size += childSize
			} else {
				types[parentPos].Size = 0
			}
		}
	}

	if depth != 0 {
		return nil, "", newError(KindInvalidType, "unterminated container")
	}

	return types, signature[n:], nil
}

// Compile parses every complete type in signature back to back,
// returning the concatenated descriptor array and the number of
// top-level complete types it contains. BeginRead/BeginWrite take the
// descriptor array; the root count is informational.
func Compile(signature string) ([]Type, int, error) {
	var all []Type
	nRoots := 0
	rest := signature
	for len(rest) > 0 {
		t, r, err := CompileOne(rest)
		if err != nil {
			return nil, 0, err
		}
		all = append(all, t...)
		nRoots++
		rest = r
	}
	return all, nRoots, nil
}

// Compare orders types against the string representation of a type,
// first by subtree length, then lexicographically by element byte. It
// performs no validation of s: if s is not a well-formed type,
// equality with types still implies structural equivalence, but a
// non-zero result carries no meaning beyond ordering.
func Compare(types []Type, s string) int {
	var length int
	if len(types) > 0 {
		length = int(types[0].Length)
	}
	if length != len(s) {
		if length > len(s) {
			return 1
		}
		return -1
	}
	for i := 0; i < len(s); i++ {
		diff := int(types[i].Element) - int(s[i])
		if diff != 0 {
			if diff > 0 {
				return 1
			}
			return -1
		}
	}
	return 0
}
