package gate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/l402lab/l402-go/wallet"
)

// watcherGroup tracks every background payment watcher spawned by a Toll so
// Close can cancel and wait for all of them instead of leaking goroutines
// past the Toll's own lifetime.
type watcherGroup struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newWatcherGroup() *watcherGroup {
	ctx, cancel := context.WithCancel(context.Background())
	return &watcherGroup{ctx: ctx, cancel: cancel}
}

// Start watches paymentHash for up to timeout, and calls onPayment once if
// and only if it settles in time. A panic inside onPayment is recovered and
// logged rather than propagated — a broken callback must never take down
// the process that's gating unrelated requests.
func (g *watcherGroup) Start(paymentHash string, amountSats int64, endpoint, clientID string, timeout time.Duration, w wallet.Wallet, onPayment func(PaymentEvent)) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Default().Error("l402: OnPayment callback panicked", "error", r, "paymentHash", paymentHash)
			}
		}()

		ctx, cancel := context.WithTimeout(g.ctx, timeout)
		defer cancel()

		result, err := w.WaitForPayment(ctx, paymentHash, timeout)
		if err != nil {
			return
		}
		if !result.Paid {
			return
		}

		onPayment(PaymentEvent{
			PaymentHash: paymentHash,
			AmountSats:  amountSats,
			Endpoint:    endpoint,
			ClientID:    clientID,
			Preimage:    result.Preimage,
			SettledAt:   result.SettledAt,
		})
	}()
}

// Close cancels every in-flight watcher and waits for them to return.
func (g *watcherGroup) Close() {
	g.cancel()
	g.wg.Wait()
}
