// Package client provides an L402-aware HTTP client. It wraps a standard
// http.Client with a RoundTripper that automatically pays a 402 challenge
// using a wallet.Wallet and retries the request with the resulting
// macaroon and preimage.
package client
