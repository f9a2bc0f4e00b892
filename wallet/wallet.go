package wallet

import (
	"context"
	"time"

	"github.com/l402lab/l402-go"
)

// CreateInvoiceParams describes the invoice a gate wants minted.
type CreateInvoiceParams struct {
	AmountSats  int64
	Description string
	Expiry      time.Duration
}

// SettlementResult is what WaitForPayment returns once an invoice settles.
type SettlementResult struct {
	Paid      bool
	Preimage  string
	SettledAt time.Time
}

// PayResult is what PayInvoice returns after paying a bolt11 invoice.
type PayResult struct {
	Preimage string
}

// Wallet is the only surface the gate needs from a Lightning wallet.
// CreateInvoice and WaitForPayment drive the server side of the L402
// handshake; PayInvoice exists for the client side (see the client
// package) so a peer can settle a 402 challenge and retry automatically.
//
// Implementations must be safe for concurrent use: a gate may be serving
// many in-flight 402 challenges, each with its own watcher polling
// WaitForPayment, at once.
type Wallet interface {
	CreateInvoice(ctx context.Context, params CreateInvoiceParams) (l402.InvoiceHandle, error)
	WaitForPayment(ctx context.Context, paymentHash string, timeout time.Duration) (SettlementResult, error)
	PayInvoice(ctx context.Context, bolt11 string) (PayResult, error)
}
