package l402

import "errors"

// Sentinel errors naming the failure kinds of the macaroon codec and
// preimage check. The codec itself does not return them: Decode reports
// failure as a nil Macaroon, Verify as a VerifyResult.Error string, and
// VerifyPreimage as false.
var (
	ErrMalformedMacaroon  = errors.New("l402: malformed macaroon")
	ErrInvalidSignature   = errors.New("l402: invalid macaroon signature")
	ErrMalformedCaveat    = errors.New("l402: malformed caveat")
	ErrMacaroonExpired    = errors.New("l402: macaroon expired")
	ErrEndpointMismatch   = errors.New("l402: endpoint mismatch")
	ErrMethodMismatch     = errors.New("l402: method mismatch")
	ErrIPMismatch         = errors.New("l402: ip mismatch")
	ErrInvalidPreimage    = errors.New("l402: preimage does not match payment hash")
	ErrMissingCredentials = errors.New("l402: missing or malformed Authorization header")
)
