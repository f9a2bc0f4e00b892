// Package gate wires the l402 credential codec, a wallet.Wallet, the
// free-tier accountant and the stats recorder into an HTTP middleware: the
// payment-gating state machine itself. Toll.Middleware returns a plain
// func(http.Handler) http.Handler per protected route, the same shape the
// teacher's own http.Config/NewX402Middleware produces, so framework
// adapters (gin, chi, pocketbase) only ever need to host that shape.
package gate
