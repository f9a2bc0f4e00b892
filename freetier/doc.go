// Package freetier implements the fixed-window free-request counter a
// gate consults before minting an invoice: a client gets a handful of free
// calls per window, starting at its first call, before the gate starts
// charging. The shape — a
// mutex-guarded map with a lazily-evicting sweeper — mirrors an in-memory
// idempotency store; a free-tier counter is exactly that, keyed by client
// instead of by request ID.
package freetier
