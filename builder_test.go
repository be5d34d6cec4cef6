package dvar

import "testing"

func TestBuilderScannerRoundTrip(t *testing.T) {
	types := compileRoot(t, "(ybsaug)")

	b, err := NewBuilder(false, types)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	b.OpenStruct().
		Byte(9).
		Bool(true).
		Str("hi").
		OpenArray()
	b.Uint32(1)
	b.Uint32(2)
	b.CloseArray().
		Sig("au").
		CloseStruct()
	data, err := b.End()
	if err != nil {
		t.Fatalf("Builder.End: %v", err)
	}

	s, err := NewScanner(false, types, data)
	if err != nil {
		t.Fatalf("NewScanner: %v", err)
	}
	if err := s.OpenStruct(); err != nil {
		t.Fatalf("OpenStruct: %v", err)
	}
	y, err := s.Byte()
	if err != nil {
		t.Fatalf("Byte: %v", err)
	}
	bl, err := s.Bool()
	if err != nil {
		t.Fatalf("Bool: %v", err)
	}
	str, err := s.Str()
	if err != nil {
		t.Fatalf("Str: %v", err)
	}
	if err := s.OpenArray(); err != nil {
		t.Fatalf("OpenArray: %v", err)
	}
	var us []uint32
	for s.d.More() {
		u, err := s.Uint32()
		if err != nil {
			t.Fatalf("Uint32: %v", err)
		}
		us = append(us, u)
	}
	if err := s.CloseArray(); err != nil {
		t.Fatalf("CloseArray: %v", err)
	}
	g, err := s.Sig()
	if err != nil {
		t.Fatalf("Sig: %v", err)
	}
	if err := s.CloseStruct(); err != nil {
		t.Fatalf("CloseStruct: %v", err)
	}
	if err := s.End(); err != nil {
		t.Fatalf("Scanner.End: %v", err)
	}

	if y != 9 || !bl || str != "hi" || g != "au" {
		t.Fatalf("got y=%d bool=%v str=%q sig=%q", y, bl, str, g)
	}
	if len(us) != 2 || us[0] != 1 || us[1] != 2 {
		t.Fatalf("got array %v, want [1 2]", us)
	}
}

func TestBuilderPoisonsOnTypeMismatch(t *testing.T) {
	types := compileRoot(t, "y")
	b, err := NewBuilder(false, types)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	b.Uint32(1) // wrong type for the compiled "y" root
	if _, err := b.End(); err == nil {
		t.Fatal("End after a type-mismatched write: expected error, got none")
	}
}

func TestScannerPoisonsOnTypeMismatch(t *testing.T) {
	types := compileRoot(t, "y")
	d := New()
	if err := d.BeginWrite(false, types); err != nil {
		t.Fatalf("BeginWrite: %v", err)
	}
	if err := d.Write("y", uint8(1)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := d.EndWrite()
	if err != nil {
		t.Fatalf("EndWrite: %v", err)
	}

	s, err := NewScanner(false, types, data)
	if err != nil {
		t.Fatalf("NewScanner: %v", err)
	}
	if _, err := s.Uint32(); err == nil {
		t.Fatal("Uint32 against a compiled \"y\" root: expected error, got none")
	}
	if err := s.End(); err == nil {
		t.Fatal("End after a type-mismatched read: expected error, got none")
	}
}

func TestBuilderVariantRoundTrip(t *testing.T) {
	types := compileRoot(t, "v")
	b, err := NewBuilder(false, types)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	b.OpenVariant("s").Str("nested").CloseVariant()
	data, err := b.End()
	if err != nil {
		t.Fatalf("Builder.End: %v", err)
	}

	s, err := NewScanner(false, types, data)
	if err != nil {
		t.Fatalf("NewScanner: %v", err)
	}
	sig, err := s.OpenVariant()
	if err != nil {
		t.Fatalf("OpenVariant: %v", err)
	}
	if sig != "s" {
		t.Fatalf("sig = %q, want \"s\"", sig)
	}
	str, err := s.Str()
	if err != nil {
		t.Fatalf("Str: %v", err)
	}
	if err := s.CloseVariant(); err != nil {
		t.Fatalf("CloseVariant: %v", err)
	}
	if err := s.End(); err != nil {
		t.Fatalf("Scanner.End: %v", err)
	}
	if str != "nested" {
		t.Fatalf("got %q, want \"nested\"", str)
	}
}
