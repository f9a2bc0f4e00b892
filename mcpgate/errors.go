package mcpgate

import "errors"

var (
	// ErrToolNotFound names a lookup of a tool that was never registered.
	// The price lookup does not return it: an unregistered tool is simply
	// treated as free.
	ErrToolNotFound = errors.New("mcpgate: tool not registered")
	// ErrMissingWallet is the value NewServer panics with when no wallet.Wallet is configured.
	ErrMissingWallet = errors.New("mcpgate: wallet is required")
	// ErrMissingSecret is the value NewServer panics with when no macaroon secret is configured.
	ErrMissingSecret = errors.New("mcpgate: secret is required")
)
