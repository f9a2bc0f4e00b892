package wallet

import (
	"context"
	"testing"
	"time"
)

func TestMockCreateInvoiceThenSettle(t *testing.T) {
	m := NewMock()
	ctx := context.Background()

	handle, err := m.CreateInvoice(ctx, CreateInvoiceParams{AmountSats: 100, Description: "test"})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if handle.Invoice == "" || handle.PaymentHash == "" {
		t.Fatalf("got empty handle: %+v", handle)
	}

	m.Settle(handle.PaymentHash)

	result, err := m.WaitForPayment(ctx, handle.PaymentHash, time.Second)
	if err != nil {
		t.Fatalf("WaitForPayment: %v", err)
	}
	if !result.Paid || result.Preimage == "" {
		t.Fatalf("got %+v", result)
	}
}

func TestMockWaitForPaymentTimesOut(t *testing.T) {
	m := NewMock()
	handle, _ := m.CreateInvoice(context.Background(), CreateInvoiceParams{AmountSats: 1})

	_, err := m.WaitForPayment(context.Background(), handle.PaymentHash, 20*time.Millisecond)
	if err != ErrTimeout {
		t.Errorf("got %v, want ErrTimeout", err)
	}
}
