package security

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/mediciel/clinic-records/internal/core/domain"
)

func newTestCipher(t *testing.T) *FieldCipher {
	t.Helper()
	c, err := NewFieldCipher("clinic-field-passphrase")
	if err != nil {
		t.Fatalf("NewFieldCipher returned error: %v", err)
	}
	return c
}

func TestFieldCipher_RoundTrip(t *testing.T) {
	c := newTestCipher(t)
	for _, plain := range []string{"", "+33 6 12 34 56 78", "12 rue de l'Hôpital, Montréal", "保险公司 ✓"} {
		enc, err := c.Encrypt(plain)
		if err != nil {
			t.Fatalf("Encrypt(%q) returned error: %v", plain, err)
		}
		if plain != "" && enc == plain {
			t.Fatalf("ciphertext equals plaintext for %q", plain)
		}
		dec, err := c.Decrypt(enc)
		if err != nil {
			t.Fatalf("Decrypt returned error: %v", err)
		}
		if dec != plain {
			t.Fatalf("round trip mismatch: want %q, got %q", plain, dec)
		}
	}
}

func TestFieldCipher_FreshNoncePerCall(t *testing.T) {
	c := newTestCipher(t)
	a, _ := c.Encrypt("POL-88812")
	b, _ := c.Encrypt("POL-88812")
	if a == b {
		t.Fatalf("expected distinct ciphertexts for identical plaintexts")
	}
}

func TestFieldCipher_RejectsCorruptedInput(t *testing.T) {
	c := newTestCipher(t)
	enc, _ := c.Encrypt("sensitive")

	raw, _ := base64.StdEncoding.DecodeString(enc)
	raw[len(raw)-1] ^= 0xff
	tampered := base64.StdEncoding.EncodeToString(raw)

	cases := map[string]string{
		"not base64": "%%%",
		"too short":  base64.StdEncoding.EncodeToString([]byte("abc")),
		"tampered":   tampered,
	}
	for name, in := range cases {
		if _, err := c.Decrypt(in); !errors.Is(err, domain.ErrDecryption) {
			t.Fatalf("%s: expected ErrDecryption, got %v", name, err)
		}
	}
}

func TestFieldCipher_WrongPassphrase(t *testing.T) {
	enc, _ := newTestCipher(t).Encrypt("secret")
	other, _ := NewFieldCipher("different")
	if _, err := other.Decrypt(enc); !errors.Is(err, domain.ErrDecryption) {
		t.Fatalf("expected ErrDecryption, got %v", err)
	}
}

func TestNewFieldCipher_EmptyPassphrase(t *testing.T) {
	if _, err := NewFieldCipher(""); err == nil {
		t.Fatalf("expected error for empty passphrase")
	}
}
