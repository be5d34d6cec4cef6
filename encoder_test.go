package dvar

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type person struct {
	Name    string
	Age     uint32
	Ignored string `dbus:"-"`
}

func TestMarshalUnmarshalStruct(t *testing.T) {
	in := person{Name: "Ann", Age: 30, Ignored: "skip"}
	data, sig, err := Marshal(false, in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if sig != "(su)" {
		t.Fatalf("signature = %q, want \"(su)\"", sig)
	}

	var out person
	if err := Unmarshal(false, sig, data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.Name != "Ann" || out.Age != 30 || out.Ignored != "" {
		t.Fatalf("got %+v, want Name=Ann Age=30 Ignored=\"\"", out)
	}
}

func TestMarshalUnmarshalSlice(t *testing.T) {
	in := []uint32{1, 2, 3, 4}
	data, sig, err := Marshal(false, in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if sig != "au" {
		t.Fatalf("signature = %q, want \"au\"", sig)
	}

	var out []uint32
	if err := Unmarshal(false, sig, data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshalUnmarshalMap(t *testing.T) {
	in := map[string]uint32{"a": 1, "b": 2}
	data, sig, err := Marshal(false, in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if sig != "a{su}" {
		t.Fatalf("signature = %q, want \"a{su}\"", sig)
	}

	var out map[string]uint32
	if err := Unmarshal(false, sig, data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshalUnmarshalPointer(t *testing.T) {
	v := uint32(42)
	data, sig, err := Marshal(false, &v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if sig != "u" {
		t.Fatalf("signature = %q, want \"u\"", sig)
	}

	var out *uint32
	if err := Unmarshal(false, sig, data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out == nil || *out != 42 {
		t.Fatalf("got %v, want pointer to 42", out)
	}
}

func TestMarshalUnmarshalVariantWithInferredSignature(t *testing.T) {
	in := Variant{Value: uint32(7)}
	data, sig, err := Marshal(false, in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if sig != "v" {
		t.Fatalf("signature = %q, want \"v\"", sig)
	}

	var out Variant
	if err := Unmarshal(false, sig, data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.Sig != "u" {
		t.Fatalf("decoded variant signature = %q, want \"u\"", out.Sig)
	}
	if v, ok := out.Value.(uint32); !ok || v != 7 {
		t.Fatalf("decoded variant value = %#v, want uint32(7)", out.Value)
	}
}

func TestMarshalRejectsUnsupportedType(t *testing.T) {
	type unsupported struct {
		Ch chan int
	}
	if _, _, err := Marshal(false, unsupported{}); err == nil {
		t.Fatal("Marshal(chan field): expected error, got none")
	}
}

func TestUnmarshalVariantWithoutGoType(t *testing.T) {
	type pair struct {
		Name string
		Age  uint32
	}
	data, sig, err := Marshal(false, []pair{{Name: "x", Age: 1}, {Name: "y", Age: 2}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	decoded, err := UnmarshalVariant(false, sig, data)
	if err != nil {
		t.Fatalf("UnmarshalVariant: %v", err)
	}

	arr, ok := decoded.([]any)
	if !ok || len(arr) != 2 {
		t.Fatalf("decoded = %#v, want a 2-element []any", decoded)
	}
	first, ok := arr[0].([]any)
	if !ok || len(first) != 2 {
		t.Fatalf("decoded[0] = %#v, want a 2-element []any", arr[0])
	}
	if name, ok := first[0].(string); !ok || name != "x" {
		t.Fatalf("decoded[0][0] = %#v, want \"x\"", first[0])
	}
	if age, ok := first[1].(uint32); !ok || age != 1 {
		t.Fatalf("decoded[0][1] = %#v, want uint32(1)", first[1])
	}
}
