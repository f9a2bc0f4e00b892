package l402

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Caveat keys recognized by Verify. Any other key in a caveat string is
// ignored rather than rejected, so operators can add informational caveats
// without breaking older gates that don't know about them.
const (
	CaveatExpiresAt = "expires_at"
	CaveatEndpoint  = "endpoint"
	CaveatMethod    = "method"
	CaveatIP        = "ip"
)

// Macaroon is the bearer credential handed to a payer alongside an invoice.
// Its signature chains an HMAC-SHA256 over the payment hash through each
// caveat in order, so appending a caveat (done only at mint time) changes
// the signature and stripping one invalidates it.
type Macaroon struct {
	ID        string   `json:"id"`
	Caveats   []string `json:"caveats"`
	Signature string   `json:"signature"`
}

// MintParams describes the caveats to bind into a freshly minted macaroon.
// Zero-value fields are omitted: an empty Endpoint means "don't bind the
// endpoint", not "bind to the empty string".
type MintParams struct {
	PaymentHash string
	ExpiresAt   *int64
	Endpoint    string
	Method      string
	IP          string
}

// Mint produces a signed macaroon for paymentHash and the given caveats.
// Both secret and PaymentHash are required; a caller that reaches Mint
// without them has a bug in its request handling, not a condition a
// payer can trigger, so Mint panics rather than returning an error a
// caller might silently ignore.
func Mint(secret []byte, p MintParams) *Macaroon {
	if len(secret) == 0 {
		panic("l402: Mint requires a non-empty secret")
	}
	if p.PaymentHash == "" {
		panic("l402: Mint requires a payment hash")
	}

	var caveats []string
	if p.ExpiresAt != nil {
		caveats = append(caveats, caveat(CaveatExpiresAt, strconv.FormatInt(*p.ExpiresAt, 10)))
	}
	if p.Endpoint != "" {
		caveats = append(caveats, caveat(CaveatEndpoint, p.Endpoint))
	}
	if p.Method != "" {
		caveats = append(caveats, caveat(CaveatMethod, strings.ToUpper(p.Method)))
	}
	if p.IP != "" {
		caveats = append(caveats, caveat(CaveatIP, p.IP))
	}

	sig := chain(secret, p.PaymentHash, caveats)
	return &Macaroon{ID: p.PaymentHash, Caveats: caveats, Signature: hex.EncodeToString(sig)}
}

func caveat(key, value string) string {
	return key + " = " + value
}

func splitCaveat(c string) (key, value string, ok bool) {
	idx := strings.Index(c, " = ")
	if idx < 0 {
		return "", "", false
	}
	key, value = c[:idx], c[idx+3:]
	if key == "" {
		return "", "", false
	}
	return key, value, true
}

func chain(secret []byte, paymentHash string, caveats []string) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(paymentHash))
	sig := mac.Sum(nil)
	for _, c := range caveats {
		mac = hmac.New(sha256.New, sig)
		mac.Write([]byte(c))
		sig = mac.Sum(nil)
	}
	return sig
}

// Encode serializes the macaroon as base64url (no padding) JSON, the form
// carried in the WWW-Authenticate header and the Authorization retry header.
func (m *Macaroon) Encode() string {
	data, err := json.Marshal(m)
	if err != nil {
		// Macaroon only holds strings; Marshal cannot fail on it.
		panic("l402: marshal of a Macaroon failed unexpectedly: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

// Decode parses a base64url-encoded macaroon. Any structural failure —
// bad base64, bad JSON, a missing or mistyped field — yields a nil
// Macaroon rather than an error, since a malformed credential and an
// absent one are handled identically by callers.
func Decode(raw string) *Macaroon {
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}

	idRaw, ok := fields["id"]
	if !ok {
		return nil
	}
	var id string
	if err := json.Unmarshal(idRaw, &id); err != nil || id == "" {
		return nil
	}

	sigRaw, ok := fields["signature"]
	if !ok {
		return nil
	}
	var sig string
	if err := json.Unmarshal(sigRaw, &sig); err != nil || sig == "" {
		return nil
	}

	caveatsRaw, ok := fields["caveats"]
	if !ok {
		return nil
	}
	var caveats []string
	if err := json.Unmarshal(caveatsRaw, &caveats); err != nil {
		return nil
	}

	return &Macaroon{ID: id, Signature: sig, Caveats: caveats}
}

// VerifyContext carries the request-side facts caveats are checked against.
// A zero-value field disables that dimension's check: operators that never
// bind IP, for instance, simply never populate VerifyContext.IP.
type VerifyContext struct {
	Now      time.Time
	Endpoint string
	Method   string
	IP       string
}

// VerifyResult reports whether a macaroon is valid for ctx, and if not,
// the exact reason — which the gate returns verbatim in the 401 body so a
// client can tell "expired" from "wrong endpoint" from "bad signature".
type VerifyResult struct {
	Valid       bool
	Error       string
	PaymentHash string
}

// Verify checks m's signature against secret and then walks its caveats in
// order, rejecting on the first one that the request context doesn't
// satisfy. Caveat order never matters for correctness here (each caveat is
// independent), but the signature chain was built over them in mint order
// so Verify must recompute the chain in that same order.
func Verify(secret []byte, m *Macaroon, ctx VerifyContext) VerifyResult {
	want, err := hex.DecodeString(m.Signature)
	if err != nil {
		return VerifyResult{Valid: false, Error: "Invalid macaroon signature"}
	}
	got := chain(secret, m.ID, m.Caveats)
	if !hmac.Equal(got, want) {
		return VerifyResult{Valid: false, Error: "Invalid macaroon signature"}
	}

	for _, c := range m.Caveats {
		key, value, ok := splitCaveat(c)
		if !ok {
			return VerifyResult{Valid: false, Error: "Malformed caveat"}
		}
		switch key {
		case CaveatExpiresAt:
			exp, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return VerifyResult{Valid: false, Error: "Malformed caveat"}
			}
			if !ctx.Now.IsZero() && ctx.Now.Unix() > exp {
				return VerifyResult{Valid: false, Error: "Macaroon expired"}
			}
		case CaveatEndpoint:
			if ctx.Endpoint != "" && ctx.Endpoint != value {
				return VerifyResult{Valid: false, Error: "Endpoint mismatch"}
			}
		case CaveatMethod:
			if ctx.Method != "" && !strings.EqualFold(ctx.Method, value) {
				return VerifyResult{Valid: false, Error: "Method mismatch"}
			}
		case CaveatIP:
			if ctx.IP != "" && ctx.IP != value {
				return VerifyResult{Valid: false, Error: "IP mismatch"}
			}
		}
	}

	return VerifyResult{Valid: true, PaymentHash: m.ID}
}
