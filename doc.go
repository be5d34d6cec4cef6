// Package dvar implements the D-Bus variant type system: a signature
// compiler plus a format-driven reader and writer for the D-Bus wire
// serialization.
//
// The following D-Bus types are supported, named after their wire type
// code:
//
//	code | Go type      | D-Bus type
//	-----+--------------+------------
//	y    | uint8        | BYTE
//	b    | bool         | BOOLEAN
//	n    | int16        | INT16
//	q    | uint16       | UINT16
//	i    | int32        | INT32
//	u    | uint32       | UINT32
//	x    | int64        | INT64
//	t    | uint64       | UINT64
//	h    | UnixFDIndex  | UNIX_FD
//	d    | float64      | DOUBLE
//	s    | string       | STRING
//	o    | ObjectPath   | OBJECT_PATH
//	g    | Signature    | SIGNATURE
//	v    | Variant      | VARIANT
//	a    | slice/array  | ARRAY
//	()   | struct       | STRUCT
//	{}   | dict entry   | DICT_ENTRY (array element only)
//
// Callers drive the wire format with a short format string, one
// character per value, matching the grammar above plus '[' ']' for
// arrays, '<' '>' for variants, '(' ')' for structs, '{' '}' for
// dict-entries, and '*' (Skip only) to fast-forward over one complete
// type. Each call to Compile turns a signature into a flat []Type
// descriptor array that Read/Write validate format characters against.
//
// This package is strictly scoped to the D-Bus dialect of the variant
// type system. It does not implement D-Bus message framing, the
// message header layer, transport, or any policy around file
// descriptors referenced by the 'h' type: those are the responsibility
// of a surrounding D-Bus client/server implementation.
package dvar
