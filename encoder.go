package dvar

import (
	"reflect"
	"strings"
)

// The following Go types are encoded as their respective D-Bus
// equivalents by Marshal, and decoded back by Unmarshal:
//
//     Go type     | D-Bus type
//     ------------+-----------
//     uint8       | BYTE
//     bool        | BOOLEAN
//     int16       | INT16
//     uint16      | UINT16
//     int32       | INT32
//     uint32      | UINT32
//     int64       | INT64
//     uint64      | UINT64
//     float64     | DOUBLE
//     string      | STRING
//     ObjectPath  | OBJECT_PATH
//     Signature   | SIGNATURE
//     Variant     | VARIANT
//     UnixFDIndex | UNIX_FD
//
// Slices and arrays encode as ARRAYs of their element type. Maps
// encode as arrays of dict-entries, provided their key type maps to a
// basic D-Bus type. Structs other than the ones above encode as a
// STRUCT of their exported fields; a field tagged `dbus:"-"` is
// skipped. Pointers encode as the value they point to, and are
// allocated on decode if nil.
//
// Any other Go type causes Marshal/Unmarshal to fail.

var (
	objectPathType = reflect.TypeOf(ObjectPath(""))
	signatureType  = reflect.TypeOf(Signature(""))
	unixFDType     = reflect.TypeOf(UnixFDIndex(0))
	variantType    = reflect.TypeOf(Variant{})
)

func isDBusField(f reflect.StructField) bool {
	return f.PkgPath == "" && f.Tag.Get("dbus") != "-"
}

// signatureOf infers the D-Bus signature denoted by a Go type, under
// the mapping documented above.
func signatureOf(t reflect.Type) (string, error) {
	switch t {
	case objectPathType:
		return "o", nil
	case signatureType:
		return "g", nil
	case unixFDType:
		return "h", nil
	case variantType:
		return "v", nil
	}

	switch t.Kind() {
	case reflect.Uint8:
		return "y", nil
	case reflect.Bool:
		return "b", nil
	case reflect.Int16:
		return "n", nil
	case reflect.Uint16:
		return "q", nil
	case reflect.Int32:
		return "i", nil
	case reflect.Uint32:
		return "u", nil
	case reflect.Int64:
		return "x", nil
	case reflect.Uint64:
		return "t", nil
	case reflect.Float64:
		return "d", nil
	case reflect.String:
		return "s", nil
	case reflect.Ptr:
		return signatureOf(t.Elem())
	case reflect.Slice, reflect.Array:
		elem, err := signatureOf(t.Elem())
		if err != nil {
			return "", err
		}
		return "a" + elem, nil
	case reflect.Map:
		key, err := signatureOf(t.Key())
		if err != nil || len(key) != 1 {
			return "", invalidTypeError{msg: "map key type " + t.Key().String() + " is not a basic D-Bus type"}
		}
		val, err := signatureOf(t.Elem())
		if err != nil {
			return "", err
		}
		return "a{" + key + val + "}", nil
	case reflect.Struct:
		var sb strings.Builder
		sb.WriteByte('(')
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !isDBusField(f) {
				continue
			}
			part, err := signatureOf(f.Type)
			if err != nil {
				return "", err
			}
			sb.WriteString(part)
		}
		sb.WriteByte(')')
		return sb.String(), nil
	default:
		return "", invalidTypeError{msg: "unsupported Go type " + t.String()}
	}
}

// Marshal infers v's wire signature by reflection and encodes it as a
// single complete value.
func Marshal(bigEndian bool, v any) ([]byte, Signature, error) {
	rv := reflect.ValueOf(v)
	sig, err := signatureOf(rv.Type())
	if err != nil {
		return nil, "", err
	}
	types, _, err := Compile(sig)
	if err != nil {
		return nil, "", err
	}
	b, err := NewBuilder(bigEndian, types)
	if err != nil {
		return nil, "", err
	}
	marshalValue(b, rv)
	data, err := b.End()
	if err != nil {
		return nil, "", err
	}
	return data, Signature(sig), nil
}

// marshalValue walks v and appends it to b. Builder already
// short-circuits every call once one of them fails, so this needs no
// error return of its own: the first failing write latches b's error
// and every later call in the walk becomes a no-op.
func marshalValue(b *Builder, v reflect.Value) {
	t := v.Type()
	switch t {
	case objectPathType:
		b.Path(ObjectPath(v.String()))
		return
	case signatureType:
		b.Sig(Signature(v.String()))
		return
	case unixFDType:
		b.UnixFD(UnixFDIndex(v.Uint()))
		return
	case variantType:
		variant := v.Interface().(Variant)
		inner := reflect.ValueOf(variant.Value)
		sig := variant.Sig
		if sig == "" {
			s, err := signatureOf(inner.Type())
			if err != nil {
				b.fail(err)
				return
			}
			sig = Signature(s)
		}
		b.OpenVariant(sig)
		marshalValue(b, inner)
		b.CloseVariant()
		return
	}

	switch v.Kind() {
	case reflect.Uint8:
		b.Byte(uint8(v.Uint()))
	case reflect.Bool:
		b.Bool(v.Bool())
	case reflect.Int16:
		b.Int16(int16(v.Int()))
	case reflect.Uint16:
		b.Uint16(uint16(v.Uint()))
	case reflect.Int32:
		b.Int32(int32(v.Int()))
	case reflect.Uint32:
		b.Uint32(uint32(v.Uint()))
	case reflect.Int64:
		b.Int64(v.Int())
	case reflect.Uint64:
		b.Uint64(v.Uint())
	case reflect.Float64:
		b.Double(v.Float())
	case reflect.String:
		b.Str(v.String())
	case reflect.Ptr:
		marshalValue(b, v.Elem())
	case reflect.Slice, reflect.Array:
		b.OpenArray()
		for i := 0; i < v.Len(); i++ {
			marshalValue(b, v.Index(i))
		}
		b.CloseArray()
	case reflect.Map:
		b.OpenArray()
		for _, k := range v.MapKeys() {
			b.OpenDictEntry()
			marshalValue(b, k)
			marshalValue(b, v.MapIndex(k))
			b.CloseDictEntry()
		}
		b.CloseArray()
	case reflect.Struct:
		b.OpenStruct()
		for i := 0; i < t.NumField(); i++ {
			if !isDBusField(t.Field(i)) {
				continue
			}
			marshalValue(b, v.Field(i))
		}
		b.CloseStruct()
	default:
		b.fail(invalidTypeError{msg: "unsupported Go type " + t.String()})
	}
}

// Unmarshal decodes data, encoded against sig, into v, which must be a
// non-nil pointer to a Go value compatible with sig under Marshal's
// mapping.
func Unmarshal(bigEndian bool, sig Signature, data []byte, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return invalidTypeError{msg: "Unmarshal requires a non-nil pointer"}
	}
	types, _, err := Compile(string(sig))
	if err != nil {
		return err
	}
	s, err := NewScanner(bigEndian, types, data)
	if err != nil {
		return err
	}
	if err := unmarshalValue(s, rv.Elem()); err != nil {
		return err
	}
	return s.End()
}

func unmarshalValue(s *Scanner, v reflect.Value) error {
	t := v.Type()
	switch t {
	case objectPathType:
		x, err := s.Path()
		if err != nil {
			return err
		}
		v.SetString(string(x))
		return nil
	case signatureType:
		x, err := s.Sig()
		if err != nil {
			return err
		}
		v.SetString(string(x))
		return nil
	case unixFDType:
		x, err := s.UnixFD()
		if err != nil {
			return err
		}
		v.SetUint(uint64(x))
		return nil
	case variantType:
		sig, err := s.OpenVariant()
		if err != nil {
			return err
		}
		value, err := decodeAny(s, string(sig))
		if err != nil {
			return err
		}
		if err := s.CloseVariant(); err != nil {
			return err
		}
		v.Set(reflect.ValueOf(Variant{Sig: sig, Value: value}))
		return nil
	}

	switch v.Kind() {
	case reflect.Uint8:
		x, err := s.Byte()
		if err != nil {
			return err
		}
		v.SetUint(uint64(x))
	case reflect.Bool:
		x, err := s.Bool()
		if err != nil {
			return err
		}
		v.SetBool(x)
	case reflect.Int16:
		x, err := s.Int16()
		if err != nil {
			return err
		}
		v.SetInt(int64(x))
	case reflect.Uint16:
		x, err := s.Uint16()
		if err != nil {
			return err
		}
		v.SetUint(uint64(x))
	case reflect.Int32:
		x, err := s.Int32()
		if err != nil {
			return err
		}
		v.SetInt(int64(x))
	case reflect.Uint32:
		x, err := s.Uint32()
		if err != nil {
			return err
		}
		v.SetUint(uint64(x))
	case reflect.Int64:
		x, err := s.Int64()
		if err != nil {
			return err
		}
		v.SetInt(x)
	case reflect.Uint64:
		x, err := s.Uint64()
		if err != nil {
			return err
		}
		v.SetUint(x)
	case reflect.Float64:
		x, err := s.Double()
		if err != nil {
			return err
		}
		v.SetFloat(x)
	case reflect.String:
		x, err := s.Str()
		if err != nil {
			return err
		}
		v.SetString(x)
	case reflect.Ptr:
		if v.IsNil() {
			v.Set(reflect.New(t.Elem()))
		}
		return unmarshalValue(s, v.Elem())
	case reflect.Slice:
		if err := s.OpenArray(); err != nil {
			return err
		}
		sl := reflect.MakeSlice(t, 0, 0)
		for s.d.More() {
			elem := reflect.New(t.Elem()).Elem()
			if err := unmarshalValue(s, elem); err != nil {
				return err
			}
			sl = reflect.Append(sl, elem)
		}
		if err := s.CloseArray(); err != nil {
			return err
		}
		v.Set(sl)
	case reflect.Array:
		if err := s.OpenArray(); err != nil {
			return err
		}
		i := 0
		for s.d.More() {
			if i >= v.Len() {
				return newError(KindNotRecoverable, "array on the wire is longer than the Go array")
			}
			if err := unmarshalValue(s, v.Index(i)); err != nil {
				return err
			}
			i++
		}
		if err := s.CloseArray(); err != nil {
			return err
		}
	case reflect.Map:
		if err := s.OpenArray(); err != nil {
			return err
		}
		mv := reflect.MakeMap(t)
		for s.d.More() {
			if err := s.OpenDictEntry(); err != nil {
				return err
			}
			key := reflect.New(t.Key()).Elem()
			if err := unmarshalValue(s, key); err != nil {
				return err
			}
			val := reflect.New(t.Elem()).Elem()
			if err := unmarshalValue(s, val); err != nil {
				return err
			}
			if err := s.CloseDictEntry(); err != nil {
				return err
			}
			mv.SetMapIndex(key, val)
		}
		if err := s.CloseArray(); err != nil {
			return err
		}
		v.Set(mv)
	case reflect.Struct:
		if err := s.OpenStruct(); err != nil {
			return err
		}
		for i := 0; i < t.NumField(); i++ {
			if !isDBusField(t.Field(i)) {
				continue
			}
			if err := unmarshalValue(s, v.Field(i)); err != nil {
				return err
			}
		}
		if err := s.CloseStruct(); err != nil {
			return err
		}
	default:
		return invalidTypeError{msg: "unsupported Go type " + t.String()}
	}
	return nil
}

// splitTopLevel breaks a concatenation of complete types (the inside
// of a struct signature, say) into its individual complete types.
func splitTopLevel(sig string) ([]string, error) {
	var parts []string
	rest := sig
	for len(rest) > 0 {
		_, r, err := CompileOne(rest)
		if err != nil {
			return nil, err
		}
		parts = append(parts, rest[:len(rest)-len(r)])
		rest = r
	}
	return parts, nil
}

// decodeAny decodes the single complete type sig into its natural Go
// representation, for a caller reading a variant whose payload type
// isn't known ahead of time: basic types become their Go equivalents,
// arrays become []any, dict-entry arrays become map[any]any, and
// nested variants recurse through the same function.
func decodeAny(s *Scanner, sig string) (any, error) {
	switch sig[0] {
	case 'y':
		return s.Byte()
	case 'b':
		return s.Bool()
	case 'n':
		return s.Int16()
	case 'q':
		return s.Uint16()
	case 'i':
		return s.Int32()
	case 'u':
		return s.Uint32()
	case 'x':
		return s.Int64()
	case 't':
		return s.Uint64()
	case 'h':
		return s.UnixFD()
	case 'd':
		return s.Double()
	case 's':
		return s.Str()
	case 'o':
		return s.Path()
	case 'g':
		return s.Sig()
	case 'v':
		inner, err := s.OpenVariant()
		if err != nil {
			return nil, err
		}
		val, err := decodeAny(s, string(inner))
		if err != nil {
			return nil, err
		}
		if err := s.CloseVariant(); err != nil {
			return nil, err
		}
		return Variant{Sig: inner, Value: val}, nil
	case 'a':
		if len(sig) >= 2 && sig[1] == '{' {
			if err := s.OpenArray(); err != nil {
				return nil, err
			}
			keySig, valSig := sig[2:3], sig[3:len(sig)-1]
			m := map[any]any{}
			for s.d.More() {
				if err := s.OpenDictEntry(); err != nil {
					return nil, err
				}
				k, err := decodeAny(s, keySig)
				if err != nil {
					return nil, err
				}
				v, err := decodeAny(s, valSig)
				if err != nil {
					return nil, err
				}
				if err := s.CloseDictEntry(); err != nil {
					return nil, err
				}
				m[k] = v
			}
			if err := s.CloseArray(); err != nil {
				return nil, err
			}
			return m, nil
		}
		if err := s.OpenArray(); err != nil {
			return nil, err
		}
		out := []any{}
		elemSig := sig[1:]
		for s.d.More() {
			v, err := decodeAny(s, elemSig)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		if err := s.CloseArray(); err != nil {
			return nil, err
		}
		return out, nil
	case '(':
		if err := s.OpenStruct(); err != nil {
			return nil, err
		}
		fields, err := splitTopLevel(sig[1 : len(sig)-1])
		if err != nil {
			return nil, err
		}
		out := []any{}
		for _, f := range fields {
			v, err := decodeAny(s, f)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		if err := s.CloseStruct(); err != nil {
			return nil, err
		}
		return out, nil
	default:
		return nil, newError(KindNotRecoverable, "unsupported signature character '"+string(sig[0])+"' in variant payload")
	}
}

// UnmarshalVariant decodes data, a single complete value of type sig,
// into its natural Go representation without requiring the caller to
// supply a destination type. See decodeAny for the mapping.
func UnmarshalVariant(bigEndian bool, sig Signature, data []byte) (any, error) {
	types, _, err := Compile(string(sig))
	if err != nil {
		return nil, err
	}
	s, err := NewScanner(bigEndian, types, data)
	if err != nil {
		return nil, err
	}
	v, err := decodeAny(s, string(sig))
	if err != nil {
		return nil, err
	}
	if err := s.End(); err != nil {
		return nil, err
	}
	return v, nil
}
