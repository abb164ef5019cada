package security

import "testing"

func TestFingerprint_Stable(t *testing.T) {
	a := Fingerprint("user@example.com")
	b := Fingerprint("  USER@example.com ")
	if a != b {
		t.Errorf("Fingerprint not case/space insensitive: %q vs %q", a, b)
	}
	if len(a) != 24 {
		t.Errorf("fingerprint length = %d, want 24", len(a))
	}
}

func TestFingerprint_DifferentInputs(t *testing.T) {
	if Fingerprint("a@example.com") == Fingerprint("b@example.com") {
		t.Error("Fingerprint produced same value for different addresses")
	}
}

func TestFingerprint_Empty(t *testing.T) {
	if got := Fingerprint("   "); got != "" {
		t.Errorf("Fingerprint(blank) = %q, want empty", got)
	}
}
