// Package wallet defines the narrow interface the gate uses to talk to a
// Lightning wallet — create an invoice, wait for it to settle, pay one on
// the client side — plus an adapter that speaks that interface over Nostr
// Wallet Connect (NWC). The gate never touches a wallet directly; it only
// ever holds a wallet.Wallet, so any implementation (NWC, LND, a test
// double) plugs in the same way.
package wallet
