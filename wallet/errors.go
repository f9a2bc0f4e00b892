package wallet

import "errors"

var (
	ErrInvalidConnectionURI = errors.New("wallet: invalid nostr+walletconnect:// connection URI")
	ErrInvalidMnemonic      = errors.New("wallet: invalid BIP-39 mnemonic")
	ErrTimeout              = errors.New("wallet: timed out waiting for payment")
	ErrTransport            = errors.New("wallet: transport error talking to wallet service")
)
