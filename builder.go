package dvar

// Builder is a typed, chainable adapter over Write for callers who
// would rather not hand-assemble a format string: each method writes
// one value (or opens/closes one container) and returns the receiver,
// so calls can be strung together. The first error short-circuits every
// later call; collect it from End.
type Builder struct {
	d   *Dvar
	err error
}

// NewBuilder starts a write session and returns a Builder over it.
func NewBuilder(bigEndian bool, types []Type) (*Builder, error) {
	d := New()
	if err := d.BeginWrite(bigEndian, types); err != nil {
		return nil, err
	}
	return &Builder{d: d}, nil
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = b.d.poisonAnd(err)
	}
	return b
}

func (b *Builder) write1(c byte, v any) *Builder {
	if b.err != nil {
		return b
	}
	if err := b.d.gate(c); err != nil {
		return b.fail(err)
	}
	if err := b.d.writeBasicFrom(c, v); err != nil {
		return b.fail(err)
	}
	b.d.advance(1)
	return b
}

func (b *Builder) Byte(v uint8) *Builder         { return b.write1('y', v) }
func (b *Builder) Bool(v bool) *Builder          { return b.write1('b', v) }
func (b *Builder) Int16(v int16) *Builder        { return b.write1('n', v) }
func (b *Builder) Uint16(v uint16) *Builder      { return b.write1('q', v) }
func (b *Builder) Int32(v int32) *Builder        { return b.write1('i', v) }
func (b *Builder) Uint32(v uint32) *Builder      { return b.write1('u', v) }
func (b *Builder) Int64(v int64) *Builder        { return b.write1('x', v) }
func (b *Builder) Uint64(v uint64) *Builder      { return b.write1('t', v) }
func (b *Builder) UnixFD(v UnixFDIndex) *Builder { return b.write1('h', v) }
func (b *Builder) Double(v float64) *Builder     { return b.write1('d', v) }
func (b *Builder) Str(v string) *Builder         { return b.write1('s', v) }
func (b *Builder) Path(v ObjectPath) *Builder    { return b.write1('o', v) }
func (b *Builder) Sig(v Signature) *Builder      { return b.write1('g', v) }

func (b *Builder) OpenArray() *Builder {
	if b.err != nil {
		return b
	}
	if err := b.d.gate('['); err != nil {
		return b.fail(err)
	}
	if err := b.d.openArrayWrite(); err != nil {
		return b.fail(err)
	}
	return b
}

func (b *Builder) CloseArray() *Builder {
	if b.err != nil {
		return b
	}
	if err := b.d.gate(']'); err != nil {
		return b.fail(err)
	}
	if err := b.d.closeArrayWrite(); err != nil {
		return b.fail(err)
	}
	return b
}

func (b *Builder) OpenStruct() *Builder {
	if b.err != nil {
		return b
	}
	if err := b.d.gate('('); err != nil {
		return b.fail(err)
	}
	if err := b.d.alignWrite(8); err != nil {
		return b.fail(err)
	}
	b.d.pushContainer('(')
	return b
}

func (b *Builder) CloseStruct() *Builder {
	if b.err != nil {
		return b
	}
	if err := b.d.gate(')'); err != nil {
		return b.fail(err)
	}
	b.d.popContainer()
	return b
}

func (b *Builder) OpenDictEntry() *Builder {
	if b.err != nil {
		return b
	}
	if err := b.d.gate('{'); err != nil {
		return b.fail(err)
	}
	if err := b.d.alignWrite(8); err != nil {
		return b.fail(err)
	}
	b.d.pushContainer('{')
	return b
}

func (b *Builder) CloseDictEntry() *Builder {
	if b.err != nil {
		return b
	}
	if err := b.d.gate('}'); err != nil {
		return b.fail(err)
	}
	b.d.popContainer()
	return b
}

// OpenVariant begins a variant whose payload is of type sig, a single
// complete type. Callers must provide sig up front, unlike Read's
// Scanner counterpart, because a writer has no wire bytes to discover
// it from.
func (b *Builder) OpenVariant(sig Signature) *Builder {
	if b.err != nil {
		return b
	}
	if err := b.d.gate('<'); err != nil {
		return b.fail(err)
	}
	if err := b.d.openVariantWrite(string(sig)); err != nil {
		return b.fail(err)
	}
	return b
}

func (b *Builder) CloseVariant() *Builder {
	if b.err != nil {
		return b
	}
	if err := b.d.gate('>'); err != nil {
		return b.fail(err)
	}
	b.d.popContainer()
	return b
}

// End finishes the write session and returns the encoded bytes, or the
// first error any chained call produced.
func (b *Builder) End() ([]byte, error) {
	if b.err != nil {
		b.d.Reset()
		return nil, b.err
	}
	return b.d.EndWrite()
}
