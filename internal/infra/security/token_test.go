package security

import (
	"encoding/base64"
	"testing"
)

func TestGenerateNumericCode(t *testing.T) {
	seen := make(map[byte]bool)
	for i := 0; i < 200; i++ {
		code, err := GenerateNumericCode(6)
		if err != nil {
			t.Fatalf("GenerateNumericCode returned error: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		for j := 0; j < len(code); j++ {
			c := code[j]
			if c < '0' || c > '9' {
				t.Fatalf("non-digit character in %q", code)
			}
			seen[c] = true
		}
	}
	// 1200 uniform draws leave a vanishing chance of missing a digit.
	if len(seen) != 10 {
		t.Fatalf("expected every digit to appear, saw %d", len(seen))
	}
}

func TestGenerateNumericCodeRejectsNonPositiveLength(t *testing.T) {
	if _, err := GenerateNumericCode(0); err == nil {
		t.Fatal("expected error for zero length")
	}
}

func TestGenerateSecureToken(t *testing.T) {
	first, err := GenerateSecureToken(32)
	if err != nil {
		t.Fatalf("GenerateSecureToken returned error: %v", err)
	}
	raw, err := base64.RawURLEncoding.DecodeString(first)
	if err != nil {
		t.Fatalf("token is not url-safe base64: %v", err)
	}
	if len(raw) != 32 {
		t.Fatalf("expected 32 random bytes, got %d", len(raw))
	}

	second, err := GenerateSecureToken(32)
	if err != nil {
		t.Fatalf("GenerateSecureToken returned error: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct tokens")
	}
}

func TestTokenHasher(t *testing.T) {
	h, err := NewTokenHasher("test-secret")
	if err != nil {
		t.Fatalf("NewTokenHasher returned error: %v", err)
	}

	digest := h.Hash("123456")
	if digest == "123456" || len(digest) != 64 {
		t.Fatalf("unexpected digest %q", digest)
	}
	if digest != h.Hash("123456") {
		t.Fatal("hash must be deterministic")
	}
	if !h.Equal("123456", digest) {
		t.Fatal("expected matching value to compare equal")
	}
	if h.Equal("654321", digest) {
		t.Fatal("expected different value to compare unequal")
	}
	if h.Equal("123456", "not-hex") {
		t.Fatal("expected malformed digest to compare unequal")
	}

	other, _ := NewTokenHasher("other-secret")
	if other.Hash("123456") == digest {
		t.Fatal("digests must depend on the key")
	}
}

func TestNewTokenHasherRequiresSecret(t *testing.T) {
	if _, err := NewTokenHasher(""); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
