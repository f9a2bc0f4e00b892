package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	l402 "github.com/l402lab/l402-go"
	"github.com/l402lab/l402-go/wallet"
)

// PaymentEventType names a point in the pay-and-retry lifecycle a
// PaymentCallback can observe.
type PaymentEventType string

const (
	PaymentEventAttempt PaymentEventType = "payment_attempt"
	PaymentEventSuccess PaymentEventType = "payment_success"
	PaymentEventFailure PaymentEventType = "payment_failure"
)

// PaymentEvent describes one point in a request's pay-and-retry lifecycle.
type PaymentEvent struct {
	Type        PaymentEventType
	URL         string
	AmountSats  int64
	PaymentHash string
	Error       error
	Duration    time.Duration
}

// PaymentCallback observes PaymentEvents as a Transport pays a challenge.
type PaymentCallback func(PaymentEvent)

// Transport is an http.RoundTripper that intercepts 402 responses, pays the
// invoice in the challenge using Wallet, and retries the request with the
// resulting Authorization: L402 <macaroon>:<preimage> header.
type Transport struct {
	Base   http.RoundTripper
	Wallet wallet.Wallet

	OnPaymentAttempt PaymentCallback
	OnPaymentSuccess PaymentCallback
	OnPaymentFailure PaymentCallback
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(req.Clone(req.Context()))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusPaymentRequired {
		return resp, nil
	}

	challenge, err := parseChallenge(resp)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	if t.OnPaymentAttempt != nil {
		t.OnPaymentAttempt(PaymentEvent{
			Type:        PaymentEventAttempt,
			URL:         req.URL.String(),
			AmountSats:  challenge.AmountSats,
			PaymentHash: challenge.PaymentHash,
		})
	}

	if t.Wallet == nil {
		err := ErrMissingWallet
		t.fail(req, start, err)
		return nil, err
	}

	payResult, err := t.Wallet.PayInvoice(req.Context(), challenge.Invoice)
	if err != nil {
		wrapped := fmt.Errorf("client: failed to pay invoice: %w", err)
		t.fail(req, start, wrapped)
		return nil, wrapped
	}

	retry := req.Clone(req.Context())
	retry.Header.Set("Authorization", fmt.Sprintf("L402 %s:%s", challenge.Macaroon, payResult.Preimage))

	respRetry, err := base.RoundTrip(retry)
	duration := time.Since(start)
	if err != nil {
		t.fail(req, start, err)
		return nil, err
	}

	if t.OnPaymentSuccess != nil && respRetry.StatusCode < http.StatusBadRequest {
		t.OnPaymentSuccess(PaymentEvent{
			Type:        PaymentEventSuccess,
			URL:         req.URL.String(),
			AmountSats:  challenge.AmountSats,
			PaymentHash: challenge.PaymentHash,
			Duration:    duration,
		})
	}

	return respRetry, nil
}

func (t *Transport) fail(req *http.Request, start time.Time, err error) {
	if t.OnPaymentFailure != nil {
		t.OnPaymentFailure(PaymentEvent{
			Type:     PaymentEventFailure,
			URL:      req.URL.String(),
			Error:    err,
			Duration: time.Since(start),
		})
	}
}

// parseChallenge reads and validates the JSON challenge body of a 402
// response.
func parseChallenge(resp *http.Response) (l402.ChallengeBody, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return l402.ChallengeBody{}, fmt.Errorf("client: failed to read 402 response body: %w", err)
	}

	var challenge l402.ChallengeBody
	if err := json.Unmarshal(body, &challenge); err != nil {
		return l402.ChallengeBody{}, fmt.Errorf("%w: %v", ErrNoChallenge, err)
	}
	if challenge.Invoice == "" || challenge.Macaroon == "" {
		return l402.ChallengeBody{}, ErrNoChallenge
	}
	return challenge, nil
}
