package dvar

import (
	"strings"
	"testing"
)

func TestCompileOneAccepted(t *testing.T) {
	for _, sig := range []string{"u", "(nq)", "a{sv}", "(yqut)"} {
		if _, _, err := CompileOne(sig); err != nil {
			t.Errorf("CompileOne(%q): unexpected error: %v", sig, err)
		}
	}
}

func TestCompileOneRejected(t *testing.T) {
	cases := []string{
		"{yy}",                        // dict-entry outside array
		"()",                          // empty tuple, even as the sole type
		"(())",                        // empty tuple nested inside another container
		strings.Repeat("a", 33) + "y", // 33-level nested arrays
		"A",                           // unknown type code
		"(",                           // unterminated container
		"{aau}",                       // dict-entry key must be basic
		"(" + strings.Repeat("y", 254) + ")", // a single complete type 256 characters long
	}
	for _, sig := range cases {
		if _, _, err := CompileOne(sig); err == nil {
			t.Errorf("CompileOne(%q): expected error, got none", sig)
		}
	}
}

func TestCompileOneDepthLimits(t *testing.T) {
	// exactly 32 array nestings is fine, 33 is not (array nesting capped
	// at maxDepth/2 == 32).
	ok := strings.Repeat("a", 32) + "y"
	if _, _, err := CompileOne(ok); err != nil {
		t.Errorf("CompileOne(32-deep array): unexpected error: %v", err)
	}
	bad := strings.Repeat("a", 33) + "y"
	if _, _, err := CompileOne(bad); err == nil {
		t.Errorf("CompileOne(33-deep array): expected error, got none")
	}
}

func TestCompileConcatenatesRoots(t *testing.T) {
	types, n, err := Compile("sy(iu)")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if n != 3 {
		t.Fatalf("nRoots = %d, want 3", n)
	}
	if len(types) != 1+1+4 {
		t.Fatalf("len(types) = %d, want 6", len(types))
	}
}

func TestCompileEmptySignatureIsZeroRoots(t *testing.T) {
	types, n, err := Compile("")
	if err != nil {
		t.Fatalf("Compile(\"\"): %v", err)
	}
	if n != 0 || len(types) != 0 {
		t.Fatalf("Compile(\"\") = %#v, %d, want empty", types, n)
	}
}

func TestStructuralSoundnessAgreement(t *testing.T) {
	sigs := []string{
		"u", "(nq)", "a{sv}", "()", "(yqut)",
		"{yy}", "(())", "A", "(", "{aau}",
		"ayayay", "a{yb}u", "a{yb}{yb}",
	}
	for _, sig := range sigs {
		_, _, compileErr := Compile(sig)
		compiled := compileErr == nil
		validated := IsSignature([]byte(sig))

		if compiled != validated {
			t.Errorf("signature %q: Compile ok=%v, IsSignature ok=%v, want agreement",
				sig, compiled, validated)
		}
	}
}

func TestCompare(t *testing.T) {
	types, _, err := CompileOne("(iu)")
	if err != nil {
		t.Fatalf("CompileOne: %v", err)
	}
	if got := Compare(types, "(iu)"); got != 0 {
		t.Errorf("Compare(types, \"(iu)\") = %d, want 0", got)
	}
	if got := Compare(types, "(iy)"); got == 0 {
		t.Errorf("Compare(types, \"(iy)\") = 0, want nonzero")
	}
	if got := Compare(types, "i"); got <= 0 {
		t.Errorf("Compare(types, \"i\") = %d, want > 0 (types is longer)", got)
	}
}
