package wallet

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
)

// deriveNostrKey derives the secp256k1 keypair an NWC client uses to
// authenticate to the wallet service, from a BIP-39 mnemonic. This mirrors
// an EVM signer's mnemonic derivation almost exactly — same BIP32 master
// key, same hardened-path walk — except the path follows NIP-06 (Nostr's
// key-derivation convention, coin type 1237) rather than BIP44/Ethereum's
// coin type 60: m/44'/1237'/{account}'/0/0.
func deriveNostrKey(mnemonic string, account uint32) (*ecdsa.PrivateKey, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}

	seed := bip39.NewSeed(mnemonic, "")

	masterKey, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}

	key, err := masterKey.NewChildKey(bip32.FirstHardenedChild + 44)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	key, err = key.NewChildKey(bip32.FirstHardenedChild + 1237)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	key, err = key.NewChildKey(bip32.FirstHardenedChild + account)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	key, err = key.NewChildKey(0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	key, err = key.NewChildKey(0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}

	privateKey, err := crypto.ToECDSA(key.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	return privateKey, nil
}

// privateKeyHex returns the raw secp256k1 private key as hex, the form NWC
// connection URIs and NIP-04/44 encryption both expect.
func privateKeyHex(key *ecdsa.PrivateKey) string {
	return fmt.Sprintf("%x", crypto.FromECDSA(key))
}
