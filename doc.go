// Package l402 implements the credential and wire-format core of the L402
// protocol: a chained-HMAC macaroon bound to a Lightning payment hash, the
// HTTP 402 challenge/response bodies that carry it, and the constant-time
// preimage check that admits a paid request. It has no knowledge of HTTP
// routing, wallets, or accounting — those live in the gate, wallet, stats
// and freetier packages, which depend on this one rather than the reverse.
package l402
