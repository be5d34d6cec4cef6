package dvar

// Kind classifies the fixed set of ways a signature can fail to
// compile or a buffer can fail to decode/encode against a type.
type Kind int

const (
	// KindOverlongType means a signature exceeded the 255 character
	// limit while being compiled.
	KindOverlongType Kind = iota + 1
	// KindDepthOverflow means a signature exceeded the container depth
	// limits (64 total, 32 tuple, 32 array).
	KindDepthOverflow
	// KindInvalidType means a signature violates the type grammar.
	KindInvalidType
	// KindCorruptData means the wire data violates a structural
	// invariant: non-zero alignment padding, a bool that isn't 0 or 1,
	// a malformed string/path/signature, a non-zero string terminator,
	// or trailing bytes at an array close.
	KindCorruptData
	// KindOutOfBounds means a declared size exceeds the remaining
	// buffer.
	KindOutOfBounds
	// KindTypeMismatch means an on-wire variant signature differs from
	// the type the caller declared for it.
	KindTypeMismatch
	// KindNotRecoverable means the format string does not match the
	// compiled type at the current cursor position, or the API was
	// misused (e.g. calling Write on a read session).
	KindNotRecoverable
)

func (k Kind) String() string {
	switch k {
	case KindOverlongType:
		return "overlong type"
	case KindDepthOverflow:
		return "depth overflow"
	case KindInvalidType:
		return "invalid type"
	case KindCorruptData:
		return "corrupt data"
	case KindOutOfBounds:
		return "out of bounds"
	case KindTypeMismatch:
		return "type mismatch"
	case KindNotRecoverable:
		return "not recoverable"
	default:
		return "unknown error"
	}
}

// Error is the error type the signature compiler and the reader/writer
// engine return (the reflection layer in encoder.go may also return
// invalidTypeError). It carries a
// stable Kind so callers can branch on failure category with
// errors.Is(err, &Error{Kind: KindCorruptData}) without caring about
// the exact message.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return "dvar: " + e.Kind.String()
	}
	return "dvar: " + e.Kind.String() + ": " + e.Msg
}

// Is reports whether target is an *Error with the same Kind, so
// errors.Is(err, &Error{Kind: KindCorruptData}) works regardless of Msg.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newError(k Kind, msg string) *Error {
	return &Error{Kind: k, Msg: msg}
}

// invalidTypeError mirrors the teacher's reflect-path programmer error.
// The reflection layer (Marshal, Unmarshal) returns it as a plain error
// value for a Go type with no D-Bus mapping or a misuse such as a nil
// Unmarshal target; it is not an *Error and carries no Kind.
type invalidTypeError struct {
	msg string
}

func (e invalidTypeError) Error() string {
	return "dvar: invalid use: " + e.msg
}
