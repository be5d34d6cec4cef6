package dvar

import "testing"

func TestIsPath(t *testing.T) {
	accepted := []string{"/", "/foo/bar", "/_0_f"}
	for _, p := range accepted {
		if !IsPath([]byte(p)) {
			t.Errorf("IsPath(%q) = false, want true", p)
		}
	}
	rejected := []string{"", "//", "/f/", "/f//o", "/f\x00o"}
	for _, p := range rejected {
		if IsPath([]byte(p)) {
			t.Errorf("IsPath(%q) = true, want false", p)
		}
	}
}

func TestIsSignature(t *testing.T) {
	accepted := []string{"u", "ayayay", "a{yb}u"}
	for _, s := range accepted {
		if !IsSignature([]byte(s)) {
			t.Errorf("IsSignature(%q) = false, want true", s)
		}
	}
	rejected := []string{"$", "u()", "a{yb}{yb}", "u\x00u"}
	for _, s := range rejected {
		if IsSignature([]byte(s)) {
			t.Errorf("IsSignature(%q) = true, want false", s)
		}
	}
}

func TestIsSignatureOverlong(t *testing.T) {
	long := make([]byte, 256)
	for i := range long {
		long[i] = 'y'
	}
	if IsSignature(long) {
		t.Errorf("IsSignature(256 'y's) = true, want false")
	}
}

func TestIsString(t *testing.T) {
	if !IsString([]byte("hello, 世界")) {
		t.Error("IsString(valid UTF-8) = false, want true")
	}
	if IsString([]byte("bad\xffutf8")) {
		t.Error("IsString(invalid UTF-8) = true, want false")
	}
	if IsString([]byte("has\x00nul")) {
		t.Error("IsString(embedded NUL) = true, want false")
	}
}

func TestIsCompleteType(t *testing.T) {
	if !isCompleteType([]byte("a{sv}")) {
		t.Error("isCompleteType(\"a{sv}\") = false, want true")
	}
	if isCompleteType([]byte("yy")) {
		t.Error("isCompleteType(\"yy\") = true, want false (two types, not one)")
	}
}
