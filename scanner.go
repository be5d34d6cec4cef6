package dvar

// Scanner is a typed adapter over Read for callers who would rather
// not hand-assemble a format string: each method decodes one value (or
// opens/closes one container). The first error short-circuits every
// later call; collect it from End.
type Scanner struct {
	d   *Dvar
	err error
}

// NewScanner starts a read session over data and returns a Scanner
// over it.
func NewScanner(bigEndian bool, types []Type, data []byte) (*Scanner, error) {
	d := New()
	if err := d.BeginRead(bigEndian, types, data); err != nil {
		return nil, err
	}
	return &Scanner{d: d}, nil
}

func (s *Scanner) fail(err error) error {
	if s.err == nil {
		s.err = s.d.poisonAnd(err)
	}
	return s.err
}

func read1[T any](s *Scanner, c byte) (T, error) {
	var zero, v T
	if s.err != nil {
		return zero, s.err
	}
	if err := s.d.gate(c); err != nil {
		return zero, s.fail(err)
	}
	if err := s.d.readBasicInto(c, &v); err != nil {
		return zero, s.fail(err)
	}
	s.d.advance(1)
	return v, nil
}

func (s *Scanner) Byte() (uint8, error)        { return read1[uint8](s, 'y') }
func (s *Scanner) Bool() (bool, error)         { return read1[bool](s, 'b') }
func (s *Scanner) Int16() (int16, error)       { return read1[int16](s, 'n') }
func (s *Scanner) Uint16() (uint16, error)     { return read1[uint16](s, 'q') }
func (s *Scanner) Int32() (int32, error)       { return read1[int32](s, 'i') }
func (s *Scanner) Uint32() (uint32, error)     { return read1[uint32](s, 'u') }
func (s *Scanner) Int64() (int64, error)       { return read1[int64](s, 'x') }
func (s *Scanner) Uint64() (uint64, error)     { return read1[uint64](s, 't') }
func (s *Scanner) UnixFD() (UnixFDIndex, error) { return read1[UnixFDIndex](s, 'h') }
func (s *Scanner) Double() (float64, error)    { return read1[float64](s, 'd') }
func (s *Scanner) Str() (string, error)        { return read1[string](s, 's') }
func (s *Scanner) Path() (ObjectPath, error)   { return read1[ObjectPath](s, 'o') }
func (s *Scanner) Sig() (Signature, error)     { return read1[Signature](s, 'g') }

func (s *Scanner) OpenArray() error {
	if s.err != nil {
		return s.err
	}
	if err := s.d.gate('['); err != nil {
		return s.fail(err)
	}
	if err := s.d.openArrayRead(); err != nil {
		return s.fail(err)
	}
	return nil
}

func (s *Scanner) CloseArray() error {
	if s.err != nil {
		return s.err
	}
	if err := s.d.gate(']'); err != nil {
		return s.fail(err)
	}
	if err := s.d.closeArrayRead(); err != nil {
		return s.fail(err)
	}
	return nil
}

func (s *Scanner) OpenStruct() error {
	if s.err != nil {
		return s.err
	}
	if err := s.d.gate('('); err != nil {
		return s.fail(err)
	}
	if err := s.d.alignRead(8); err != nil {
		return s.fail(err)
	}
	s.d.pushContainer('(')
	return nil
}

func (s *Scanner) CloseStruct() error {
	if s.err != nil {
		return s.err
	}
	if err := s.d.gate(')'); err != nil {
		return s.fail(err)
	}
	s.d.popContainer()
	return nil
}

func (s *Scanner) OpenDictEntry() error {
	if s.err != nil {
		return s.err
	}
	if err := s.d.gate('{'); err != nil {
		return s.fail(err)
	}
	if err := s.d.alignRead(8); err != nil {
		return s.fail(err)
	}
	s.d.pushContainer('{')
	return nil
}

func (s *Scanner) CloseDictEntry() error {
	if s.err != nil {
		return s.err
	}
	if err := s.d.gate('}'); err != nil {
		return s.fail(err)
	}
	s.d.popContainer()
	return nil
}

// OpenVariant reads the wire-embedded signature and returns it,
// without requiring the caller to already know it: the mirror of the
// "no expected descriptor array supplied" branch of the variant read
// path, which Read's format-string-driven '<' can't reach since it
// always derives an expected signature from the format text itself.
func (s *Scanner) OpenVariant() (Signature, error) {
	if s.err != nil {
		return "", s.err
	}
	if err := s.d.gate('<'); err != nil {
		return "", s.fail(err)
	}
	sig, err := s.d.openVariantReadAny()
	if err != nil {
		return "", s.fail(err)
	}
	return Signature(sig), nil
}

func (s *Scanner) CloseVariant() error {
	if s.err != nil {
		return s.err
	}
	if err := s.d.gate('>'); err != nil {
		return s.fail(err)
	}
	s.d.popContainer()
	return nil
}

// End finishes the read session, requiring every root type to have
// been consumed, and returns the first error any chained call
// produced, if any.
func (s *Scanner) End() error {
	if s.err != nil {
		s.d.Reset()
		return s.err
	}
	return s.d.EndRead()
}
