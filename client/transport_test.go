package client

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	l402 "github.com/l402lab/l402-go"
	"github.com/l402lab/l402-go/wallet"
)

// fixedPreimageWallet is a payer-side test double: PayInvoice always
// returns the same preimage, regardless of which invoice string it's asked
// to pay, since these tests use a fake invoice string rather than a real
// bolt11 one.
type fixedPreimageWallet struct {
	preimage string
}

func (w *fixedPreimageWallet) CreateInvoice(ctx context.Context, params wallet.CreateInvoiceParams) (l402.InvoiceHandle, error) {
	return l402.InvoiceHandle{}, nil
}

func (w *fixedPreimageWallet) WaitForPayment(ctx context.Context, paymentHash string, timeout time.Duration) (wallet.SettlementResult, error) {
	return wallet.SettlementResult{}, nil
}

func (w *fixedPreimageWallet) PayInvoice(ctx context.Context, bolt11 string) (wallet.PayResult, error) {
	return wallet.PayResult{Preimage: w.preimage}, nil
}

func TestRoundTripPassesThroughNonPaymentResponses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	transport := &Transport{Wallet: wallet.NewMock()}
	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	resp, err := transport.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestRoundTripPaysChallengeAndRetries(t *testing.T) {
	secret := []byte("client-transport-test-secret-32b!")
	preimage := "aa11bb22cc33dd44ee55ff66aa11bb22cc33dd44ee55ff66aa11bb22cc33dd44"
	sum := sha256.Sum256(mustHex(preimage))
	paymentHash := hex.EncodeToString(sum[:])

	mac := l402.Mint(secret, l402.MintParams{PaymentHash: paymentHash})

	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		auth := r.Header.Get("Authorization")
		if auth == "" {
			body, _ := json.Marshal(l402.Challenge{
				PaymentHash: paymentHash,
				Invoice:     "lnbc1mockinvoice",
				Macaroon:    mac.Encode(),
				AmountSats:  10,
				Description: "test resource",
			}.Body())
			w.Header().Set("WWW-Authenticate", `L402 invoice="lnbc1mockinvoice", macaroon="`+mac.Encode()+`"`)
			w.WriteHeader(http.StatusPaymentRequired)
			_, _ = w.Write(body)
			return
		}
		creds := l402.ParseAuthorization(auth)
		if creds == nil || creds.PreimageHex != preimage {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("premium content"))
	}))
	defer server.Close()

	payingWallet := &fixedPreimageWallet{preimage: preimage}
	transport := &Transport{Wallet: payingWallet}

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	resp, err := transport.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2 (initial + retry)", attempts)
	}
}

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}
