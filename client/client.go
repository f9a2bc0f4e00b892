package client

import (
	"net/http"

	"github.com/l402lab/l402-go/wallet"
)

// Client is an HTTP client that transparently pays L402 challenges.
type Client struct {
	*http.Client
}

// Option configures a Client.
type Option func(*Client) error

// New creates an L402-enabled HTTP client. A wallet.Wallet must be
// supplied via WithWallet, or New returns ErrMissingWallet.
func New(opts ...Option) (*Client, error) {
	c := &Client{Client: &http.Client{}}
	if c.Transport == nil {
		c.Transport = http.DefaultTransport
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	transport, ok := c.Transport.(*Transport)
	if !ok || transport.Wallet == nil {
		return nil, ErrMissingWallet
	}
	return c, nil
}

// WithHTTPClient sets a custom underlying HTTP client. Apply it before
// WithWallet/WithPaymentCallbacks so the L402 transport wraps whatever
// RoundTripper httpClient already carries.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) error {
		c.Client = httpClient
		if c.Transport == nil {
			c.Transport = http.DefaultTransport
		}
		return nil
	}
}

// WithWallet sets the wallet used to pay 402 challenges.
func WithWallet(w wallet.Wallet) Option {
	return func(c *Client) error {
		getOrCreateTransport(c).Wallet = w
		return nil
	}
}

// WithPaymentCallbacks sets the pay-and-retry lifecycle callbacks. Pass nil
// for any callback you don't want to set.
func WithPaymentCallbacks(onAttempt, onSuccess, onFailure PaymentCallback) Option {
	return func(c *Client) error {
		transport := getOrCreateTransport(c)
		if onAttempt != nil {
			transport.OnPaymentAttempt = onAttempt
		}
		if onSuccess != nil {
			transport.OnPaymentSuccess = onSuccess
		}
		if onFailure != nil {
			transport.OnPaymentFailure = onFailure
		}
		return nil
	}
}

func getOrCreateTransport(c *Client) *Transport {
	transport, ok := c.Transport.(*Transport)
	if !ok {
		transport = &Transport{Base: c.Transport}
		c.Transport = transport
	}
	return transport
}
