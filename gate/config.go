package gate

import "time"

// Options configures a Toll. Wallet and Secret are required; everything
// else has a documented default applied by New, matching the teacher's own
// habit of taking plain struct literals for configuration rather than
// parsing a config file.
type Options struct {
	// Wallet is consulted to mint invoices and to watch for settlement.
	Wallet Wallet

	// Secret signs and verifies macaroons. At least 32 random bytes is
	// recommended; New logs a warning (not a panic — an operator
	// deliberately testing with a short secret should still be able to)
	// if it's shorter.
	Secret []byte

	// DefaultSats is the price charged when a route doesn't set its own
	// Price. Defaults to 10.
	DefaultSats int64

	// InvoiceExpiry bounds how long a minted invoice (and its watcher)
	// stays live. Defaults to 5 minutes.
	InvoiceExpiry time.Duration

	// MacaroonExpiry sets the expires_at caveat on minted macaroons.
	// Defaults to 1 hour.
	MacaroonExpiry time.Duration

	// BindEndpoint, BindMethod bind the request path/method into the
	// macaroon as caveats; both default to true. BindIP binds the
	// resolved client identity; it defaults to false since it's the one
	// dimension most likely to break legitimate retries from behind a
	// NAT or a rotating proxy.
	BindEndpoint *bool
	BindMethod   *bool
	BindIP       bool

	// OnPayment, if set, is called from a background watcher once an
	// invoice settles — fire-and-forget; its return (it has none) and
	// any panic inside it are never allowed to affect request handling.
	OnPayment func(PaymentEvent)

	// EnableReplayProtection turns on the opt-in seen-set that refuses to
	// admit the same macaroon ID twice, in-memory only, with entries kept
	// for MacaroonExpiry and swept on that same period. Off by default: most
	// deployments are fine letting a macaroon be reused until it expires.
	EnableReplayProtection bool

	// Clock is the time source threaded through macaroon verification,
	// the free-tier accountant, and stats timestamps. Defaults to the
	// real wall clock; tests inject a mock.
	Clock Clock
}

// RouteOptions configures gating for one route, as the argument to
// Toll.Middleware.
type RouteOptions struct {
	Price        Price
	Description  Description
	FreeRequests int
	FreeWindow   string
}

// PaymentEvent describes a settled payment, delivered to Options.OnPayment.
type PaymentEvent struct {
	PaymentHash string
	AmountSats  int64
	Endpoint    string
	ClientID    string
	Preimage    string
	SettledAt   time.Time
}

func boolDefault(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
