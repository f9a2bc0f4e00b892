package wallet

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/l402lab/l402-go"
	"github.com/l402lab/l402-go/retry"
)

// Transport sends a NIP-47 request over the wallet-connection channel — a
// Nostr relay in production, reached over the websocket URL(s) found in the
// connection URI — and returns the decoded response payload. The wallet
// package owns the NIP-47 method names and request/response shapes; it
// delegates the relay's wire protocol (event construction, NIP-04/44
// encryption, subscription bookkeeping) to Transport so this package isn't
// also a Nostr relay client.
type Transport interface {
	Do(ctx context.Context, method string, params any) (json.RawMessage, error)
}

// connection is the parsed form of a nostr+walletconnect:// URI.
type connection struct {
	walletPubkey string
	relays       []string
	secret       string
	lud16        string
}

// ParseConnectionURI parses a Nostr Wallet Connect URI of the form
// nostr+walletconnect://<wallet-pubkey>?relay=<url>&secret=<hex>[&lud16=<addr>].
// The relay parameter may repeat for multiple relays.
func ParseConnectionURI(uri string) (*connection, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConnectionURI, err)
	}
	if u.Scheme != "nostr+walletconnect" {
		return nil, ErrInvalidConnectionURI
	}
	pubkey := u.Host
	if pubkey == "" {
		return nil, ErrInvalidConnectionURI
	}
	q := u.Query()
	relays := q["relay"]
	if len(relays) == 0 {
		return nil, fmt.Errorf("%w: missing relay parameter", ErrInvalidConnectionURI)
	}
	secret := q.Get("secret")
	if secret == "" {
		return nil, fmt.Errorf("%w: missing secret parameter", ErrInvalidConnectionURI)
	}
	return &connection{
		walletPubkey: pubkey,
		relays:       relays,
		secret:       secret,
		lud16:        q.Get("lud16"),
	}, nil
}

// Option configures a wallet built with New.
type Option func(*nwcWallet) error

// WithMnemonic derives the client keypair used to authenticate to the
// wallet service from a BIP-39 mnemonic rather than taking it from the
// connection URI's secret parameter, the same way a signer can derive its
// key from a mnemonic instead of an inline private key.
func WithMnemonic(mnemonic string, account uint32) Option {
	return func(w *nwcWallet) error {
		key, err := deriveNostrKey(mnemonic, account)
		if err != nil {
			return err
		}
		w.clientKey = key
		return nil
	}
}

// WithPollInterval overrides how often WaitForPayment checks invoice status.
// Default is one second.
func WithPollInterval(d time.Duration) Option {
	return func(w *nwcWallet) error {
		w.pollInterval = d
		return nil
	}
}

type nwcWallet struct {
	conn         *connection
	clientKey    *ecdsa.PrivateKey
	transport    Transport
	pollInterval time.Duration
}

// New builds a Wallet backed by Nostr Wallet Connect, given the operator's
// connection URI and a Transport that actually speaks to the relay(s)
// named in it.
func New(uri string, transport Transport, opts ...Option) (Wallet, error) {
	conn, err := ParseConnectionURI(uri)
	if err != nil {
		return nil, err
	}
	w := &nwcWallet{conn: conn, transport: transport, pollInterval: time.Second}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	if w.clientKey == nil {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(conn.secret, "0x"))
		if err != nil {
			return nil, fmt.Errorf("%w: secret parameter is not a valid private key: %v", ErrInvalidConnectionURI, err)
		}
		w.clientKey = key
	}
	return w, nil
}

// FromClient wraps an already-constructed Wallet so it can be passed
// wherever a freshly-built NWC wallet would go. The gate never special-cases
// either origin — both satisfy the same Wallet interface.
func FromClient(w Wallet) Wallet { return w }

// ClientKeyHex returns the client identity's raw secp256k1 private key as
// hex. A Transport implementation needs this to sign and NIP-04/44 encrypt
// the events it sends to the wallet service's pubkey.
func (w *nwcWallet) ClientKeyHex() string { return privateKeyHex(w.clientKey) }

// WalletPubkey returns the wallet service's pubkey from the connection URI.
func (w *nwcWallet) WalletPubkey() string { return w.conn.walletPubkey }

// Relays returns the relay URLs from the connection URI.
func (w *nwcWallet) Relays() []string { return w.conn.relays }

type makeInvoiceParams struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description,omitempty"`
	Expiry      int64  `json:"expiry,omitempty"`
}

type makeInvoiceResult struct {
	Invoice     string `json:"invoice"`
	PaymentHash string `json:"payment_hash"`
}

func (w *nwcWallet) CreateInvoice(ctx context.Context, params CreateInvoiceParams) (l402.InvoiceHandle, error) {
	expiry := int64(params.Expiry / time.Second)
	raw, err := w.transport.Do(ctx, "make_invoice", makeInvoiceParams{
		Amount:      params.AmountSats * 1000,
		Description: params.Description,
		Expiry:      expiry,
	})
	if err != nil {
		return l402.InvoiceHandle{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	var result makeInvoiceResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return l402.InvoiceHandle{}, fmt.Errorf("%w: malformed make_invoice response: %v", ErrTransport, err)
	}
	return l402.InvoiceHandle{Invoice: result.Invoice, PaymentHash: result.PaymentHash}, nil
}

type lookupInvoiceParams struct {
	PaymentHash string `json:"payment_hash"`
}

type lookupInvoiceResult struct {
	SettledAt int64  `json:"settled_at"`
	Preimage  string `json:"preimage"`
}

var errNotYetSettled = errors.New("wallet: invoice not yet settled")

func (w *nwcWallet) WaitForPayment(ctx context.Context, paymentHash string, timeout time.Duration) (SettlementResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	maxAttempts := int(timeout/w.pollInterval) + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	config := retry.Config{
		MaxAttempts:  maxAttempts,
		InitialDelay: w.pollInterval,
		MaxDelay:     w.pollInterval,
		Multiplier:   1,
	}

	result, err := retry.WithRetry(ctx, config, func(err error) bool {
		return errors.Is(err, errNotYetSettled)
	}, func() (lookupInvoiceResult, error) {
		raw, err := w.transport.Do(ctx, "lookup_invoice", lookupInvoiceParams{PaymentHash: paymentHash})
		if err != nil {
			return lookupInvoiceResult{}, fmt.Errorf("%w: %v", ErrTransport, err)
		}
		var res lookupInvoiceResult
		if err := json.Unmarshal(raw, &res); err != nil {
			return lookupInvoiceResult{}, fmt.Errorf("%w: malformed lookup_invoice response: %v", ErrTransport, err)
		}
		if res.SettledAt == 0 {
			return lookupInvoiceResult{}, errNotYetSettled
		}
		return res, nil
	})
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, errNotYetSettled) {
			return SettlementResult{}, ErrTimeout
		}
		return SettlementResult{}, err
	}

	return SettlementResult{
		Paid:      true,
		Preimage:  result.Preimage,
		SettledAt: time.Unix(result.SettledAt, 0),
	}, nil
}

type payInvoiceParams struct {
	Invoice string `json:"invoice"`
}

type payInvoiceResult struct {
	Preimage string `json:"preimage"`
}

func (w *nwcWallet) PayInvoice(ctx context.Context, bolt11 string) (PayResult, error) {
	raw, err := w.transport.Do(ctx, "pay_invoice", payInvoiceParams{Invoice: bolt11})
	if err != nil {
		return PayResult{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	var result payInvoiceResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return PayResult{}, fmt.Errorf("%w: malformed pay_invoice response: %v", ErrTransport, err)
	}
	return PayResult{Preimage: result.Preimage}, nil
}
