package gate

import (
	"context"
	"net/http"
)

type contextKey struct{ name string }

var paymentContextKey = &contextKey{"l402-payment"}

// PaymentContext records how the current request was admitted: with a
// settled L402 payment, or through the free tier. Handlers that care about
// who paid (or whether anyone did) pull this out of the request context.
type PaymentContext struct {
	Paid        bool
	Free        bool
	PaymentHash string
	AmountSats  int64
	ClientID    string
}

func withPaymentContext(ctx context.Context, pc *PaymentContext) context.Context {
	return context.WithValue(ctx, paymentContextKey, pc)
}

// FromContext returns the PaymentContext the gate attached to r's request
// context, if any. A handler mounted outside a gate (or called directly in
// a test) gets ok == false.
func FromContext(ctx context.Context) (*PaymentContext, bool) {
	pc, ok := ctx.Value(paymentContextKey).(*PaymentContext)
	return pc, ok
}

// FromRequest is a convenience wrapper over FromContext(r.Context()).
func FromRequest(r *http.Request) (*PaymentContext, bool) {
	return FromContext(r.Context())
}
