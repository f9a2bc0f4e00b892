package pocketbase

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/l402lab/l402-go/gate"
	"github.com/l402lab/l402-go/wallet"
	"github.com/pocketbase/pocketbase/core"
)

func testEvent(method, target string) (*core.RequestEvent, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	e := &core.RequestEvent{}
	e.Request = req
	e.Response = rec
	return e, rec
}

func TestMiddlewareCreation(t *testing.T) {
	mockWallet := wallet.NewMock()
	toll := gate.New(gate.Options{
		Wallet: mockWallet,
		Secret: []byte("pocketbase-adapter-test-secret-32bytes!"),
		Clock:  clock.NewMock(),
	})
	defer toll.Close()

	middleware := NewMiddleware(toll, gate.RouteOptions{})
	if middleware == nil {
		t.Fatal("expected middleware function to be created")
	}
}

// TestMiddlewareChallengesWithoutCredentials exercises the no-Authorization
// path, which returns before ever calling e.Next() — safe to test without a
// real PocketBase router wired up behind the event.
func TestMiddlewareChallengesWithoutCredentials(t *testing.T) {
	mockWallet := wallet.NewMock()
	toll := gate.New(gate.Options{
		Wallet: mockWallet,
		Secret: []byte("pocketbase-adapter-test-secret-32bytes!"),
		Clock:  clock.NewMock(),
	})
	defer toll.Close()

	middleware := NewMiddleware(toll, gate.RouteOptions{})
	e, rec := testEvent(http.MethodGet, "/api/premium/data")

	if err := middleware(e); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want 402", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Error("expected WWW-Authenticate challenge header")
	}
}
