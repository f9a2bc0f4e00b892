package l402

import (
	"fmt"
	"strings"
)

// Challenge is everything a gate needs to tell a payer how to pay: the
// invoice to settle, the macaroon that proves who's paying, and what the
// payment buys. Header and Body render the same data onto the wire two
// ways — a WWW-Authenticate header for clients that only look there, and a
// JSON body for clients (and humans in a browser) that read the response.
type Challenge struct {
	PaymentHash string
	Invoice     string
	Macaroon    string
	AmountSats  int64
	Description string
}

// Header renders the WWW-Authenticate challenge header value.
func (c Challenge) Header() string {
	return fmt.Sprintf(`L402 invoice="%s", macaroon="%s"`, c.Invoice, c.Macaroon)
}

// ChallengeBody is the JSON body of a 402 response.
type ChallengeBody struct {
	Status       int          `json:"status"`
	Message      string       `json:"message"`
	PaymentHash  string       `json:"paymentHash"`
	Invoice      string       `json:"invoice"`
	Macaroon     string       `json:"macaroon"`
	AmountSats   int64        `json:"amountSats"`
	Description  string       `json:"description"`
	Protocol     string       `json:"protocol"`
	Instructions Instructions `json:"instructions"`
}

// Instructions spells out the retry handshake for clients that don't
// already speak L402, since the whole point of the 402 body (as opposed to
// just the header) is to be legible to a human or a generic HTTP client.
type Instructions struct {
	Step1 string `json:"step1"`
	Step2 string `json:"step2"`
	Step3 string `json:"step3"`
}

// Body renders the JSON body for c.
func (c Challenge) Body() ChallengeBody {
	return ChallengeBody{
		Status:      402,
		Message:     "Payment Required",
		PaymentHash: c.PaymentHash,
		Invoice:     c.Invoice,
		Macaroon:    c.Macaroon,
		AmountSats:  c.AmountSats,
		Description: c.Description,
		Protocol:    "L402",
		Instructions: Instructions{
			Step1: "Pay the invoice with any Lightning wallet.",
			Step2: "Obtain the payment preimage from your wallet once it settles.",
			Step3: `Retry the request with header: Authorization: L402 <macaroon>:<preimage>`,
		},
	}
}

// Credentials is a parsed Authorization header in L402 retry form.
type Credentials struct {
	MacaroonRaw string
	PreimageHex string
}

// ParseAuthorization parses an "Authorization: L402 <macaroon>:<preimage>"
// header. It matches the scheme token case-insensitively (per RFC 7235) and
// the rest of the header exactly; any deviation — wrong scheme, missing
// colon, empty macaroon or preimage — yields nil rather than an error, same
// as Decode, since a malformed header and a missing one are handled
// identically by the gate.
func ParseAuthorization(header string) *Credentials {
	if header == "" {
		return nil
	}
	scheme, rest, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "L402") {
		return nil
	}
	mac, preimage, ok := strings.Cut(rest, ":")
	if !ok || mac == "" || preimage == "" {
		return nil
	}
	return &Credentials{MacaroonRaw: mac, PreimageHex: preimage}
}
