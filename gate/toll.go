package gate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/l402lab/l402-go"
	"github.com/l402lab/l402-go/freetier"
	"github.com/l402lab/l402-go/stats"
	"github.com/l402lab/l402-go/wallet"
)

// Toll is a configured payment gate: one secret, one wallet, one stats
// recorder, shared across every route it protects. Build one with New and
// hand Toll.Middleware(routeOpts) to whatever router is hosting the API,
// the same way the teacher builds one Config/facilitator pair and hands out
// one middleware per framework.
type Toll struct {
	opts     Options
	stats    *stats.Recorder
	clock    l402.Clock
	watchers *watcherGroup
	seen     *seenSet

	mu        sync.Mutex
	sweepers  []func()
	closeOnce sync.Once
}

// New builds a Toll from opts, applying documented defaults to anything
// left zero. It panics if Wallet is nil — a Toll with no wallet can never
// mint an invoice, so constructing one is always a programmer error, not a
// runtime condition.
func New(opts Options) *Toll {
	if opts.Wallet == nil {
		panic("l402/gate: Options.Wallet is required")
	}
	if len(opts.Secret) == 0 {
		panic("l402/gate: Options.Secret is required")
	}
	if len(opts.Secret) < 32 {
		slog.Default().Warn("l402/gate: Secret is shorter than the recommended 32 bytes", "length", len(opts.Secret))
	}
	if opts.DefaultSats == 0 {
		opts.DefaultSats = 10
	}
	if opts.InvoiceExpiry == 0 {
		opts.InvoiceExpiry = defaultInvoiceExpiry
	}
	if opts.MacaroonExpiry == 0 {
		opts.MacaroonExpiry = defaultMacaroonExpiry
	}
	if opts.Clock == nil {
		opts.Clock = l402.WallClock()
	}

	t := &Toll{
		opts:     opts,
		stats:    stats.New(0, opts.Clock),
		clock:    opts.Clock,
		watchers: newWatcherGroup(),
	}
	if opts.EnableReplayProtection {
		t.seen = newSeenSet(opts.MacaroonExpiry, opts.Clock)
		t.addSweeper(t.seen.startSweeper())
	}
	return t
}

const (
	defaultInvoiceExpiry  = 5 * time.Minute
	defaultMacaroonExpiry = time.Hour
)

func (t *Toll) addSweeper(stop func()) {
	t.mu.Lock()
	t.sweepers = append(t.sweepers, stop)
	t.mu.Unlock()
}

// Stats returns a snapshot of accumulated request/payment statistics.
func (t *Toll) Stats() stats.Snapshot {
	return t.stats.Snapshot()
}

// Close cancels every background watcher and sweeper started by this Toll
// and its routes. Call it when shutting down the server hosting the gate.
func (t *Toll) Close() {
	t.closeOnce.Do(func() {
		t.watchers.Close()
		t.mu.Lock()
		sweepers := t.sweepers
		t.mu.Unlock()
		for _, stop := range sweepers {
			stop()
		}
	})
}

// Middleware returns the http.Handler wrapper that gates a single route
// according to routeOpts. Call it once per route at setup time — it starts
// a dedicated free-tier accountant (and its sweeper) for that route, so
// calling it per-request would leak goroutines.
func (t *Toll) Middleware(routeOpts RouteOptions) func(http.Handler) http.Handler {
	windowLength := freetier.ParseWindow(routeOpts.FreeWindow)
	accountant := freetier.New(routeOpts.FreeRequests, windowLength, t.clock)
	t.addSweeper(accountant.StartSweeper())

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.serve(w, r, next, routeOpts, accountant)
		})
	}
}

func (t *Toll) serve(w http.ResponseWriter, r *http.Request, next http.Handler, routeOpts RouteOptions, accountant *freetier.Accountant) {
	logger := slog.Default()
	endpoint := r.URL.Path
	clientID := clientIDFromRequest(r)

	if header := r.Header.Get("Authorization"); header != "" {
		t.serveWithCredentials(w, r, next, routeOpts, endpoint, clientID, header, logger)
		return
	}

	if accountant.Admit(clientID) {
		logger.Info("l402: admitted free-tier request", "endpoint", endpoint, "client", clientID)
		t.stats.Record(endpoint, false, 0, clientID, "")
		ctx := withPaymentContext(r.Context(), &PaymentContext{Free: true, ClientID: clientID})
		next.ServeHTTP(w, r.WithContext(ctx))
		return
	}

	t.challenge(w, r, routeOpts, endpoint, clientID, logger)
}

func (t *Toll) serveWithCredentials(w http.ResponseWriter, r *http.Request, next http.Handler, routeOpts RouteOptions, endpoint, clientID, header string, logger *slog.Logger) {
	creds := l402.ParseAuthorization(header)
	if creds == nil {
		writeJSONError(w, http.StatusUnauthorized, "Invalid macaroon")
		return
	}

	mac := l402.Decode(creds.MacaroonRaw)
	if mac == nil {
		writeJSONError(w, http.StatusUnauthorized, "Invalid macaroon")
		return
	}

	vctx := l402.VerifyContext{Now: t.clock.Now()}
	if boolDefault(t.opts.BindEndpoint, true) {
		vctx.Endpoint = endpoint
	}
	if boolDefault(t.opts.BindMethod, true) {
		vctx.Method = r.Method
	}
	if t.opts.BindIP {
		vctx.IP = clientID
	}

	result := l402.Verify(t.opts.Secret, mac, vctx)
	if !result.Valid {
		logger.Warn("l402: macaroon rejected", "endpoint", endpoint, "reason", result.Error)
		writeJSONError(w, http.StatusUnauthorized, result.Error)
		return
	}

	if !l402.VerifyPreimage(creds.PreimageHex, mac.ID) {
		writeJSONError(w, http.StatusUnauthorized, "Invalid preimage — does not match payment hash")
		return
	}

	if t.seen != nil && !t.seen.MarkUnseen(mac.ID) {
		writeJSONError(w, http.StatusUnauthorized, "Macaroon already used")
		return
	}

	amount := routeOpts.Price.Resolve(r, t.opts.DefaultSats)
	t.stats.Record(endpoint, true, amount, clientID, mac.ID)
	logger.Info("l402: admitted paid request", "endpoint", endpoint, "paymentHash", mac.ID, "amountSats", amount)

	ctx := withPaymentContext(r.Context(), &PaymentContext{
		Paid:        true,
		PaymentHash: mac.ID,
		AmountSats:  amount,
		ClientID:    clientID,
	})
	next.ServeHTTP(w, r.WithContext(ctx))
}

func (t *Toll) challenge(w http.ResponseWriter, r *http.Request, routeOpts RouteOptions, endpoint, clientID string, logger *slog.Logger) {
	amount := routeOpts.Price.Resolve(r, t.opts.DefaultSats)
	description := routeOpts.Description.Resolve(r)

	invoice, err := t.opts.Wallet.CreateInvoice(r.Context(), wallet.CreateInvoiceParams{
		AmountSats:  amount,
		Description: description,
		Expiry:      t.opts.InvoiceExpiry,
	})
	if err != nil {
		logger.Error("l402: failed to create invoice", "error", err)
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Toll booth error: %v", err))
		return
	}

	expiresAt := t.clock.Now().Add(t.opts.MacaroonExpiry).Unix()
	mintParams := l402.MintParams{PaymentHash: invoice.PaymentHash, ExpiresAt: &expiresAt}
	if boolDefault(t.opts.BindEndpoint, true) {
		mintParams.Endpoint = endpoint
	}
	if boolDefault(t.opts.BindMethod, true) {
		mintParams.Method = r.Method
	}
	if t.opts.BindIP {
		mintParams.IP = clientID
	}
	mac := l402.Mint(t.opts.Secret, mintParams)

	challenge := l402.Challenge{
		PaymentHash: invoice.PaymentHash,
		Invoice:     invoice.Invoice,
		Macaroon:    mac.Encode(),
		AmountSats:  amount,
		Description: description,
	}

	logger.Info("l402: issued payment challenge", "endpoint", endpoint, "paymentHash", invoice.PaymentHash, "amountSats", amount)

	w.Header().Set("WWW-Authenticate", challenge.Header())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusPaymentRequired)
	if err := json.NewEncoder(w).Encode(challenge.Body()); err != nil {
		logger.Warn("l402: failed to write challenge body", "error", err)
	}

	if t.opts.OnPayment != nil {
		t.watchers.Start(invoice.PaymentHash, amount, endpoint, clientID, t.opts.InvoiceExpiry, t.opts.Wallet, t.opts.OnPayment)
	}
}

func clientIDFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0]); first != "" {
			return first
		}
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
