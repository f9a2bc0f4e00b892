package mcpgate

import "time"

// MCP-specific metadata keys, mirroring the request/response _meta
// convention the HTTP challenge/retry flow expresses as headers.
const (
	// MetaKeyAuthorization is the key under params._meta holding the raw
	// value a client would otherwise send as an HTTP Authorization header:
	// "L402 <macaroon>:<preimage>".
	MetaKeyAuthorization = "l402/authorization"

	// MetaKeyPaymentResponse is the key under result._meta holding the
	// settlement outcome of a paid tool call.
	MetaKeyPaymentResponse = "l402/payment-response"
)

// ToolPrice describes what a paid tool costs and how long a client has to
// pay before its invoice expires.
type ToolPrice struct {
	AmountSats    int64
	Description   string
	InvoiceExpiry time.Duration
}

// PaymentResponse is injected into a successful paid tool call's
// result._meta so a client can confirm what was charged.
type PaymentResponse struct {
	Paid        bool   `json:"paid"`
	AmountSats  int64  `json:"amount_sats"`
	PaymentHash string `json:"payment_hash,omitempty"`
}
