package dvar

import "math"

// isValueChar reports whether format character c consumes one
// caller-supplied argument: the basic wire types, but not a container
// bracket and not the skip wildcard.
func isValueChar(c byte) bool {
	switch c {
	case 'y', 'b', 'n', 'q', 'i', 'u', 'x', 't', 'h', 'd', 's', 'o', 'g':
		return true
	default:
		return false
	}
}

// zeroFrom sets every pointer argument from index idx onward back to
// its zero value, so a caller who aborts on error never sees a
// partially-filled result next to untouched garbage.
func zeroFrom(args []any, idx int) {
	for i := idx; i < len(args); i++ {
		zeroArg(args[i])
	}
}

func zeroArg(arg any) {
	switch p := arg.(type) {
	case *uint8:
		*p = 0
	case *bool:
		*p = false
	case *int16:
		*p = 0
	case *uint16:
		*p = 0
	case *int32:
		*p = 0
	case *uint32:
		*p = 0
	case *int64:
		*p = 0
	case *uint64:
		*p = 0
	case *UnixFDIndex:
		*p = 0
	case *float64:
		*p = 0
	case *string:
		*p = ""
	case *ObjectPath:
		*p = ""
	case *Signature:
		*p = ""
	}
}

// Read decodes one value per non-container character of format,
// checking each against the session's compiled type before consuming
// any bytes. Containers nest by pairing '['/']', '<'/'>', '('/')',
// '{'/'}' within the same format string; the variant delimiters '<'
// and '>' wrap a nested format string for the single type the variant
// is expected to hold.
func (d *Dvar) Read(format string, args ...any) error {
	return d.readOrSkip(format, args, false)
}

// Skip behaves like Read but additionally accepts '*' in place of one
// complete type, discarding it (with the same validation Read would
// have applied) without consuming a caller argument.
func (d *Dvar) Skip(format string, args ...any) error {
	return d.readOrSkip(format, args, true)
}

func (d *Dvar) readOrSkip(format string, args []any, allowWildcard bool) error {
	if !d.active || !d.ro {
		return newError(KindNotRecoverable, "Read/Skip called without an active read session")
	}
	if d.poison != nil {
		zeroFrom(args, 0)
		return d.poison
	}

	argIdx := 0
	for i := 0; i < len(format); i++ {
		c := format[i]

		if c == '*' {
			if !allowWildcard {
				zeroFrom(args, argIdx)
				return d.poisonAnd(newError(KindNotRecoverable, "'*' is only valid in Skip"))
			}
			if err := d.fastForward(); err != nil {
				zeroFrom(args, argIdx)
				return d.poisonAnd(err)
			}
			continue
		}

		var arg any
		if isValueChar(c) {
			if argIdx >= len(args) {
				return d.poisonAnd(newError(KindNotRecoverable, "not enough arguments for format string"))
			}
			arg = args[argIdx]
		}

		if err := d.gate(c); err != nil {
			zeroFrom(args, argIdx)
			return d.poisonAnd(err)
		}

		switch c {
		case '[':
			if err := d.openArrayRead(); err != nil {
				zeroFrom(args, argIdx)
				return d.poisonAnd(err)
			}
		case ']':
			if err := d.closeArrayRead(); err != nil {
				zeroFrom(args, argIdx)
				return d.poisonAnd(err)
			}
		case '(', '{':
			if err := d.alignRead(8); err != nil {
				zeroFrom(args, argIdx)
				return d.poisonAnd(err)
			}
			d.pushContainer(c)
		case ')', '}':
			d.popContainer()
		case '<':
			sig, _, err := formatSignature(format[i+1:])
			if err != nil {
				zeroFrom(args, argIdx)
				return d.poisonAnd(err)
			}
			if err := d.openVariantRead(sig); err != nil {
				zeroFrom(args, argIdx)
				return d.poisonAnd(err)
			}
		case '>':
			d.popContainer()
		default:
			if err := d.readBasicInto(c, arg); err != nil {
				zeroFrom(args, argIdx)
				return d.poisonAnd(err)
			}
			d.advance(1)
			argIdx++
		}
	}
	return nil
}

func (d *Dvar) alignRead(align int) error {
	f := &d.frames[d.level]
	target := alignTo(d.pos, align)
	if target > f.bound {
		return newError(KindOutOfBounds, "alignment padding exceeds remaining data")
	}
	for i := d.pos; i < target; i++ {
		if d.data[i] != 0 {
			return newError(KindCorruptData, "non-zero alignment padding")
		}
	}
	d.pos = target
	return nil
}

func (d *Dvar) readBytes(n int) ([]byte, error) {
	f := &d.frames[d.level]
	if d.pos+n > f.bound {
		return nil, newError(KindOutOfBounds, "declared size exceeds remaining data")
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *Dvar) readRaw(alignExp uint8, size int) ([]byte, error) {
	if err := d.alignRead(1 << alignExp); err != nil {
		return nil, err
	}
	return d.readBytes(size)
}

func (d *Dvar) readLengthPrefixed32() ([]byte, error) {
	if err := d.alignRead(4); err != nil {
		return nil, err
	}
	lb, err := d.readBytes(4)
	if err != nil {
		return nil, err
	}
	n := int(d.order().Uint32(lb))
	body, err := d.readBytes(n)
	if err != nil {
		return nil, err
	}
	nul, err := d.readBytes(1)
	if err != nil {
		return nil, err
	}
	if nul[0] != 0 {
		return nil, newError(KindCorruptData, "missing NUL terminator")
	}
	return body, nil
}

func (d *Dvar) readLengthPrefixed8() ([]byte, error) {
	lb, err := d.readBytes(1)
	if err != nil {
		return nil, err
	}
	n := int(lb[0])
	body, err := d.readBytes(n)
	if err != nil {
		return nil, err
	}
	nul, err := d.readBytes(1)
	if err != nil {
		return nil, err
	}
	if nul[0] != 0 {
		return nil, newError(KindCorruptData, "missing NUL terminator")
	}
	return body, nil
}

func (d *Dvar) readString() ([]byte, error) {
	b, err := d.readLengthPrefixed32()
	if err != nil {
		return nil, err
	}
	if !IsString(b) {
		return nil, newError(KindCorruptData, "string is not valid UTF-8")
	}
	return b, nil
}

func (d *Dvar) readPath() ([]byte, error) {
	b, err := d.readLengthPrefixed32()
	if err != nil {
		return nil, err
	}
	if !IsPath(b) {
		return nil, newError(KindCorruptData, "malformed object path")
	}
	return b, nil
}

func (d *Dvar) readSignatureBytes() ([]byte, error) {
	b, err := d.readLengthPrefixed8()
	if err != nil {
		return nil, err
	}
	if !IsSignature(b) {
		return nil, newError(KindCorruptData, "malformed signature")
	}
	return b, nil
}

func (d *Dvar) readBasicInto(c byte, arg any) error {
	switch c {
	case 'y':
		p, ok := arg.(*uint8)
		if !ok {
			return newError(KindNotRecoverable, "argument type mismatch for 'y'")
		}
		b, err := d.readRaw(0, 1)
		if err != nil {
			return err
		}
		*p = b[0]

	case 'b':
		p, ok := arg.(*bool)
		if !ok {
			return newError(KindNotRecoverable, "argument type mismatch for 'b'")
		}
		b, err := d.readRaw(2, 4)
		if err != nil {
			return err
		}
		v := d.order().Uint32(b)
		if v != 0 && v != 1 {
			return newError(KindCorruptData, "boolean value is neither 0 nor 1")
		}
		*p = v == 1

	case 'n':
		p, ok := arg.(*int16)
		if !ok {
			return newError(KindNotRecoverable, "argument type mismatch for 'n'")
		}
		b, err := d.readRaw(1, 2)
		if err != nil {
			return err
		}
		*p = int16(d.order().Uint16(b))

	case 'q':
		p, ok := arg.(*uint16)
		if !ok {
			return newError(KindNotRecoverable, "argument type mismatch for 'q'")
		}
		b, err := d.readRaw(1, 2)
		if err != nil {
			return err
		}
		*p = d.order().Uint16(b)

	case 'i':
		p, ok := arg.(*int32)
		if !ok {
			return newError(KindNotRecoverable, "argument type mismatch for 'i'")
		}
		b, err := d.readRaw(2, 4)
		if err != nil {
			return err
		}
		*p = int32(d.order().Uint32(b))

	case 'u':
		p, ok := arg.(*uint32)
		if !ok {
			return newError(KindNotRecoverable, "argument type mismatch for 'u'")
		}
		b, err := d.readRaw(2, 4)
		if err != nil {
			return err
		}
		*p = d.order().Uint32(b)

	case 'x':
		p, ok := arg.(*int64)
		if !ok {
			return newError(KindNotRecoverable, "argument type mismatch for 'x'")
		}
		b, err := d.readRaw(3, 8)
		if err != nil {
			return err
		}
		*p = int64(d.order().Uint64(b))

	case 't':
		p, ok := arg.(*uint64)
		if !ok {
			return newError(KindNotRecoverable, "argument type mismatch for 't'")
		}
		b, err := d.readRaw(3, 8)
		if err != nil {
			return err
		}
		*p = d.order().Uint64(b)

	case 'h':
		p, ok := arg.(*UnixFDIndex)
		if !ok {
			return newError(KindNotRecoverable, "argument type mismatch for 'h'")
		}
		b, err := d.readRaw(2, 4)
		if err != nil {
			return err
		}
		*p = UnixFDIndex(d.order().Uint32(b))

	case 'd':
		p, ok := arg.(*float64)
		if !ok {
			return newError(KindNotRecoverable, "argument type mismatch for 'd'")
		}
		b, err := d.readRaw(3, 8)
		if err != nil {
			return err
		}
		*p = math.Float64frombits(d.order().Uint64(b))

	case 's':
		p, ok := arg.(*string)
		if !ok {
			return newError(KindNotRecoverable, "argument type mismatch for 's'")
		}
		b, err := d.readString()
		if err != nil {
			return err
		}
		*p = string(b)

	case 'o':
		p, ok := arg.(*ObjectPath)
		if !ok {
			return newError(KindNotRecoverable, "argument type mismatch for 'o'")
		}
		b, err := d.readPath()
		if err != nil {
			return err
		}
		*p = ObjectPath(b)

	case 'g':
		p, ok := arg.(*Signature)
		if !ok {
			return newError(KindNotRecoverable, "argument type mismatch for 'g'")
		}
		b, err := d.readSignatureBytes()
		if err != nil {
			return err
		}
		*p = Signature(b)

	default:
		return newError(KindNotRecoverable, "unsupported format character '"+string(c)+"'")
	}
	return nil
}

func (d *Dvar) openArrayRead() error {
	if err := d.alignRead(4); err != nil {
		return err
	}
	lb, err := d.readBytes(4)
	if err != nil {
		return err
	}
	size := int(d.order().Uint32(lb))

	elemTypes := d.arrayElementTypes()
	elemAlign := 1 << elemTypes[0].Alignment
	if err := d.alignRead(elemAlign); err != nil {
		return err
	}

	f := &d.frames[d.level]
	end := d.pos + size
	if end > f.bound {
		return newError(KindOutOfBounds, "array size exceeds remaining data")
	}

	d.level++
	d.frames[d.level] = frame{parentTypes: elemTypes, container: 'a', bound: end, arrayStart: d.pos}
	return nil
}

func (d *Dvar) closeArrayRead() error {
	f := &d.frames[d.level]
	if d.pos != f.bound {
		return newError(KindCorruptData, "trailing bytes in array")
	}
	d.popContainer()
	return nil
}

func (d *Dvar) openVariantRead(expectedSig string) error {
	wire, err := d.readLengthPrefixed8()
	if err != nil {
		return err
	}
	if string(wire) != expectedSig {
		return newError(KindTypeMismatch, "on-wire variant signature does not match expected type")
	}
	types, _, err := CompileOne(expectedSig)
	if err != nil {
		return err
	}
	bound := d.frames[d.level].bound
	d.level++
	d.frames[d.level] = frame{parentTypes: types, container: 'v', bound: bound, allocated: true}
	return nil
}

// openVariantReadAny reads and validates the wire-embedded signature
// without comparing it against anything the caller already knows,
// compiling it fresh and pushing a frame rooted at the result. This is
// the "no expected descriptor array supplied" branch: Scanner.OpenVariant
// is its only caller, since Read's format-string '<' always derives an
// expected signature from the nested format text instead.
func (d *Dvar) openVariantReadAny() (string, error) {
	wire, err := d.readLengthPrefixed8()
	if err != nil {
		return "", err
	}
	if !isCompleteType(wire) {
		return "", newError(KindCorruptData, "malformed variant signature")
	}
	types, _, err := CompileOne(string(wire))
	if err != nil {
		return "", err
	}
	bound := d.frames[d.level].bound
	d.level++
	d.frames[d.level] = frame{parentTypes: types, container: 'v', bound: bound, allocated: true}
	return string(wire), nil
}

// fastForward consumes the complete type under the cursor without
// producing a value, applying the same structural and content
// validation Read would have, then advances past it like any other
// terminal.
func (d *Dvar) fastForward() error {
	f := &d.frames[d.level]
	if f.iType >= len(f.parentTypes) {
		return newError(KindNotRecoverable, "no type left to skip")
	}
	desc := f.parentTypes[f.iType]
	sub := f.parentTypes[f.iType : f.iType+int(desc.Length)]
	if err := d.skipType(sub); err != nil {
		return err
	}
	d.advance(int(desc.Length))
	return nil
}

// skipType consumes exactly the bytes for the complete type rooted at
// types[0], whose subtree spans all of types.
func (d *Dvar) skipType(types []Type) error {
	desc := types[0]
	switch desc.Element {
	case 'y', 'n', 'q', 'i', 'u', 'x', 't', 'h', 'd':
		_, err := d.readRaw(desc.Alignment, int(desc.Size))
		return err
	case 'b':
		b, err := d.readRaw(2, 4)
		if err != nil {
			return err
		}
		v := d.order().Uint32(b)
		if v != 0 && v != 1 {
			return newError(KindCorruptData, "boolean value is neither 0 nor 1")
		}
		return nil
	case 's':
		_, err := d.readString()
		return err
	case 'o':
		_, err := d.readPath()
		return err
	case 'g':
		_, err := d.readSignatureBytes()
		return err
	case 'v':
		return d.skipVariant()
	case 'a':
		return d.skipArray(types[1:])
	case '(', '{':
		if err := d.alignRead(8); err != nil {
			return err
		}
		return d.skipTuple(types[1 : len(types)-1])
	default:
		return newError(KindNotRecoverable, "unsupported type in skip")
	}
}

func (d *Dvar) skipArray(elemTypes []Type) error {
	if err := d.alignRead(4); err != nil {
		return err
	}
	lb, err := d.readBytes(4)
	if err != nil {
		return err
	}
	size := int(d.order().Uint32(lb))

	elemAlign := 1 << elemTypes[0].Alignment
	if err := d.alignRead(elemAlign); err != nil {
		return err
	}

	f := &d.frames[d.level]
	end := d.pos + size
	if end > f.bound {
		return newError(KindOutOfBounds, "array size exceeds remaining data")
	}

	code := elemTypes[0].Element
	if len(elemTypes) == 1 && isFixedUnvalidated(code) {
		elemSize := int(elementSize(code))
		if size%elemSize != 0 {
			return newError(KindCorruptData, "array size is not a multiple of its element size")
		}
		d.pos = end
		return nil
	}

	for d.pos < end {
		if err := d.skipType(elemTypes); err != nil {
			return err
		}
	}
	if d.pos != end {
		return newError(KindCorruptData, "trailing bytes in array")
	}
	return nil
}

func (d *Dvar) skipTuple(inner []Type) error {
	i := 0
	for i < len(inner) {
		length := int(inner[i].Length)
		if err := d.skipType(inner[i : i+length]); err != nil {
			return err
		}
		i += length
	}
	return nil
}

func (d *Dvar) skipVariant() error {
	wire, err := d.readLengthPrefixed8()
	if err != nil {
		return err
	}
	if !isCompleteType(wire) {
		return newError(KindCorruptData, "malformed variant signature")
	}
	types, _, err := CompileOne(string(wire))
	if err != nil {
		return err
	}
	return d.skipType(types)
}
