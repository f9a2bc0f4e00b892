package l402

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestVerifyPreimageMatches(t *testing.T) {
	preimage := "deadbeefcafebabe0011223344556677"
	raw, _ := hex.DecodeString(preimage)
	sum := sha256.Sum256(raw)
	paymentHash := hex.EncodeToString(sum[:])

	if !VerifyPreimage(preimage, paymentHash) {
		t.Fatal("expected matching preimage to verify")
	}
}

func TestVerifyPreimageRejectsMismatch(t *testing.T) {
	if VerifyPreimage("aa", "bb") {
		t.Fatal("expected mismatched preimage to fail")
	}
}

func TestVerifyPreimageRejectsBadHex(t *testing.T) {
	cases := []struct{ preimage, hash string }{
		{"not hex", "aa"},
		{"aa", "not hex"},
	}
	for _, c := range cases {
		if VerifyPreimage(c.preimage, c.hash) {
			t.Errorf("VerifyPreimage(%q, %q) = true, want false", c.preimage, c.hash)
		}
	}
}
