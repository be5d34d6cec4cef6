package dvar

import (
	"encoding/binary"
	"math"
)

// Write encodes one value per non-container character of format,
// checking each against the session's compiled type before appending
// any bytes. The grammar and nesting rules are identical to Read's;
// '*' is not accepted here since a writer always needs a concrete value
// to emit.
func (d *Dvar) Write(format string, args ...any) error {
	if !d.active || d.ro {
		return newError(KindNotRecoverable, "Write called without an active write session")
	}
	if d.poison != nil {
		return d.poison
	}

	argIdx := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c == '*' {
			return d.poisonAnd(newError(KindNotRecoverable, "'*' is not valid in Write"))
		}

		var arg any
		if isValueChar(c) {
			if argIdx >= len(args) {
				return d.poisonAnd(newError(KindNotRecoverable, "not enough arguments for format string"))
			}
			arg = args[argIdx]
		}

		if err := d.gate(c); err != nil {
			return d.poisonAnd(err)
		}

		switch c {
		case '[':
			if err := d.openArrayWrite(); err != nil {
				return d.poisonAnd(err)
			}
		case ']':
			if err := d.closeArrayWrite(); err != nil {
				return d.poisonAnd(err)
			}
		case '(', '{':
			if err := d.alignWrite(8); err != nil {
				return d.poisonAnd(err)
			}
			d.pushContainer(c)
		case ')', '}':
			d.popContainer()
		case '<':
			sig, _, err := formatSignature(format[i+1:])
			if err != nil {
				return d.poisonAnd(err)
			}
			if err := d.openVariantWrite(sig); err != nil {
				return d.poisonAnd(err)
			}
		case '>':
			d.popContainer()
		default:
			if err := d.writeBasicFrom(c, arg); err != nil {
				return d.poisonAnd(err)
			}
			d.advance(1)
			argIdx++
		}
	}
	return nil
}

func (d *Dvar) order() binary.ByteOrder {
	return byteOrder(d.bigEndian)
}

// ensureCapacity grows d.data so that len(d.data)+extra bytes can be
// appended without a further reallocation: first to 4096 bytes, then
// doubling, mirroring the original writer's realloc policy.
func (d *Dvar) ensureCapacity(extra int) {
	need := len(d.data) + extra
	if need <= cap(d.data) {
		return
	}
	newCap := 4096
	for newCap < need {
		newCap *= 2
	}
	grown := make([]byte, len(d.data), newCap)
	copy(grown, d.data)
	d.data = grown
}

func (d *Dvar) appendBytes(b []byte) {
	d.ensureCapacity(len(b))
	d.data = append(d.data, b...)
	d.pos = len(d.data)
}

func (d *Dvar) appendZeros(n int) {
	d.ensureCapacity(n)
	d.data = append(d.data, make([]byte, n)...)
	d.pos = len(d.data)
}

func (d *Dvar) alignWrite(align int) error {
	pad := alignTo(len(d.data), align) - len(d.data)
	if pad > 0 {
		d.appendZeros(pad)
	}
	return nil
}

func (d *Dvar) writeRaw(alignExp uint8, b []byte) error {
	if err := d.alignWrite(1 << alignExp); err != nil {
		return err
	}
	d.appendBytes(b)
	return nil
}

func (d *Dvar) writeLengthPrefixed32(body []byte) error {
	if err := d.alignWrite(4); err != nil {
		return err
	}
	if len(body) > math.MaxUint32 {
		return newError(KindNotRecoverable, "string too long to encode")
	}
	lb := make([]byte, 4)
	d.order().PutUint32(lb, uint32(len(body)))
	d.appendBytes(lb)
	d.appendBytes(body)
	d.appendBytes([]byte{0})
	return nil
}

func (d *Dvar) writeLengthPrefixed8(body []byte) error {
	if len(body) > 255 {
		return newError(KindNotRecoverable, "signature too long to encode")
	}
	d.appendBytes([]byte{byte(len(body))})
	d.appendBytes(body)
	d.appendBytes([]byte{0})
	return nil
}

func (d *Dvar) writeBasicFrom(c byte, arg any) error {
	switch c {
	case 'y':
		v, ok := arg.(uint8)
		if !ok {
			return newError(KindNotRecoverable, "argument type mismatch for 'y'")
		}
		return d.writeRaw(0, []byte{v})

	case 'b':
		v, ok := arg.(bool)
		if !ok {
			return newError(KindNotRecoverable, "argument type mismatch for 'b'")
		}
		b := make([]byte, 4)
		if v {
			d.order().PutUint32(b, 1)
		}
		return d.writeRaw(2, b)

	case 'n':
		v, ok := arg.(int16)
		if !ok {
			return newError(KindNotRecoverable, "argument type mismatch for 'n'")
		}
		b := make([]byte, 2)
		d.order().PutUint16(b, uint16(v))
		return d.writeRaw(1, b)

	case 'q':
		v, ok := arg.(uint16)
		if !ok {
			return newError(KindNotRecoverable, "argument type mismatch for 'q'")
		}
		b := make([]byte, 2)
		d.order().PutUint16(b, v)
		return d.writeRaw(1, b)

	case 'i':
		v, ok := arg.(int32)
		if !ok {
			return newError(KindNotRecoverable, "argument type mismatch for 'i'")
		}
		b := make([]byte, 4)
		d.order().PutUint32(b, uint32(v))
		return d.writeRaw(2, b)

	case 'u':
		v, ok := arg.(uint32)
		if !ok {
			return newError(KindNotRecoverable, "argument type mismatch for 'u'")
		}
		b := make([]byte, 4)
		d.order().PutUint32(b, v)
		return d.writeRaw(2, b)

	case 'x':
		v, ok := arg.(int64)
		if !ok {
			return newError(KindNotRecoverable, "argument type mismatch for 'x'")
		}
		b := make([]byte, 8)
		d.order().PutUint64(b, uint64(v))
		return d.writeRaw(3, b)

	case 't':
		v, ok := arg.(uint64)
		if !ok {
			return newError(KindNotRecoverable, "argument type mismatch for 't'")
		}
		b := make([]byte, 8)
		d.order().PutUint64(b, v)
		return d.writeRaw(3, b)

	case 'h':
		v, ok := arg.(UnixFDIndex)
		if !ok {
			return newError(KindNotRecoverable, "argument type mismatch for 'h'")
		}
		b := make([]byte, 4)
		d.order().PutUint32(b, uint32(v))
		return d.writeRaw(2, b)

	case 'd':
		v, ok := arg.(float64)
		if !ok {
			return newError(KindNotRecoverable, "argument type mismatch for 'd'")
		}
		b := make([]byte, 8)
		d.order().PutUint64(b, math.Float64bits(v))
		return d.writeRaw(3, b)

	case 's':
		v, ok := arg.(string)
		if !ok {
			return newError(KindNotRecoverable, "argument type mismatch for 's'")
		}
		return d.writeLengthPrefixed32([]byte(v))

	case 'o':
		v, ok := arg.(ObjectPath)
		if !ok {
			return newError(KindNotRecoverable, "argument type mismatch for 'o'")
		}
		return d.writeLengthPrefixed32([]byte(v))

	case 'g':
		v, ok := arg.(Signature)
		if !ok {
			return newError(KindNotRecoverable, "argument type mismatch for 'g'")
		}
		return d.writeLengthPrefixed8([]byte(v))

	default:
		return newError(KindNotRecoverable, "unsupported format character '"+string(c)+"'")
	}
}

func (d *Dvar) openArrayWrite() error {
	if err := d.alignWrite(4); err != nil {
		return err
	}
	lenOffset := len(d.data)
	d.appendBytes([]byte{0, 0, 0, 0})

	elemTypes := d.arrayElementTypes()
	elemAlign := 1 << elemTypes[0].Alignment
	if err := d.alignWrite(elemAlign); err != nil {
		return err
	}

	d.level++
	d.frames[d.level] = frame{parentTypes: elemTypes, container: 'a', lenOffset: lenOffset, arrayStart: len(d.data)}
	return nil
}

func (d *Dvar) closeArrayWrite() error {
	f := &d.frames[d.level]
	size := len(d.data) - f.arrayStart
	if size > math.MaxUint32 {
		return newError(KindNotRecoverable, "array body too large to encode")
	}
	d.order().PutUint32(d.data[f.lenOffset:f.lenOffset+4], uint32(size))
	d.popContainer()
	return nil
}

func (d *Dvar) openVariantWrite(sig string) error {
	types, _, err := CompileOne(sig)
	if err != nil {
		return err
	}
	if err := d.writeLengthPrefixed8([]byte(sig)); err != nil {
		return err
	}
	d.level++
	d.frames[d.level] = frame{parentTypes: types, container: 'v', allocated: true}
	return nil
}
