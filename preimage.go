package l402

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// VerifyPreimage reports whether preimageHex, once SHA-256 hashed, equals
// paymentHashHex. This is the only proof-of-payment the gate trusts: a
// wallet only learns the preimage once the invoice is actually settled, so
// presenting it proves payment without the gate needing to re-query the
// wallet on every retry. The comparison runs in constant time so response
// latency can't leak how much of the hash matched.
func VerifyPreimage(preimageHex, paymentHashHex string) bool {
	preimage, err := hex.DecodeString(preimageHex)
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(paymentHashHex)
	if err != nil {
		return false
	}
	got := sha256.Sum256(preimage)
	return subtle.ConstantTimeCompare(got[:], want) == 1
}
