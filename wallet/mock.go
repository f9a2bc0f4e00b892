package wallet

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/l402lab/l402-go"
)

// Mock is a Wallet implementation for tests: CreateInvoice mints a
// deterministic payment hash/preimage pair, and Settle marks one as paid so
// a subsequent WaitForPayment call returns immediately. It is not meant for
// production use.
type Mock struct {
	mu       sync.Mutex
	invoices map[string]string // paymentHash -> preimage
	settled  map[string]time.Time
	next     int
}

// NewMock returns a ready-to-use Mock wallet.
func NewMock() *Mock {
	return &Mock{invoices: map[string]string{}, settled: map[string]time.Time{}}
}

func (m *Mock) CreateInvoice(ctx context.Context, params CreateInvoiceParams) (l402.InvoiceHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	preimage := fmt.Sprintf("%064x", m.next)
	sum := sha256.Sum256(mustDecodeHex(preimage))
	paymentHash := hex.EncodeToString(sum[:])
	m.invoices[paymentHash] = preimage
	invoice := fmt.Sprintf("lnbc%dn1mock%s", params.AmountSats, paymentHash[:8])
	return l402.InvoiceHandle{Invoice: invoice, PaymentHash: paymentHash}, nil
}

// Preimage returns the preimage for an invoice previously minted by
// CreateInvoice, as a test would need in order to simulate a payer
// presenting proof of payment.
func (m *Mock) Preimage(paymentHash string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	preimage, ok := m.invoices[paymentHash]
	return preimage, ok
}

// Settle marks paymentHash as paid, as if the payer had just settled it.
func (m *Mock) Settle(paymentHash string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settled[paymentHash] = time.Now()
}

func (m *Mock) WaitForPayment(ctx context.Context, paymentHash string, timeout time.Duration) (SettlementResult, error) {
	deadline := time.Now().Add(timeout)
	for {
		m.mu.Lock()
		settledAt, ok := m.settled[paymentHash]
		preimage := m.invoices[paymentHash]
		m.mu.Unlock()
		if ok {
			return SettlementResult{Paid: true, Preimage: preimage, SettledAt: settledAt}, nil
		}
		if time.Now().After(deadline) {
			return SettlementResult{}, ErrTimeout
		}
		select {
		case <-ctx.Done():
			return SettlementResult{}, ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func (m *Mock) PayInvoice(ctx context.Context, bolt11 string) (PayResult, error) {
	return PayResult{Preimage: fmt.Sprintf("%064x", len(bolt11))}, nil
}

func mustDecodeHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}
