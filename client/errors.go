package client

import "errors"

var (
	// ErrNoChallenge is returned when a 402 response can't be parsed as an
	// L402 challenge body.
	ErrNoChallenge = errors.New("client: response did not carry a parseable L402 challenge")
	// ErrMissingWallet is returned by New, and by Transport.RoundTrip, when
	// no wallet is configured.
	ErrMissingWallet = errors.New("client: wallet is required")
)
