package freetier

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/l402lab/l402-go"
)

type window struct {
	count int
	start time.Time
}

// Accountant admits a bounded number of free requests per client within a
// fixed window that opens at the client's first request and is replaced by
// a fresh one once windowLength has passed. A client that resets its identity (new IP, new header)
// naturally gets a new window — the accountant makes no attempt to unify
// identities across changes, the same way an idempotency store makes no
// attempt to unify differently-keyed requests.
type Accountant struct {
	mu           sync.Mutex
	windows      map[string]*window
	freeRequests int
	windowLength time.Duration
	clock        l402.Clock
}

// New returns an Accountant that admits freeRequests per client per
// windowLength. A freeRequests of zero disables the free tier entirely:
// Admit always returns false.
func New(freeRequests int, windowLength time.Duration, clock l402.Clock) *Accountant {
	if windowLength <= 0 {
		windowLength = time.Hour
	}
	return &Accountant{
		windows:      make(map[string]*window),
		freeRequests: freeRequests,
		windowLength: windowLength,
		clock:        clock,
	}
}

// ParseWindow parses a duration string of the form "<n>ms|s|m|h|d", or a
// raw integer (milliseconds). An empty or unparseable string falls back to
// one hour, matching the gate's documented default.
func ParseWindow(s string) time.Duration {
	const fallback = time.Hour
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Millisecond
	}
	if strings.HasSuffix(s, "ms") {
		n, err := strconv.ParseInt(strings.TrimSuffix(s, "ms"), 10, 64)
		if err != nil {
			return fallback
		}
		return time.Duration(n) * time.Millisecond
	}
	if len(s) < 2 {
		return fallback
	}
	unit := s[len(s)-1:]
	n, err := strconv.ParseInt(s[:len(s)-1], 10, 64)
	if err != nil {
		return fallback
	}
	switch unit {
	case "s":
		return time.Duration(n) * time.Second
	case "m":
		return time.Duration(n) * time.Minute
	case "h":
		return time.Duration(n) * time.Hour
	case "d":
		return time.Duration(n) * 24 * time.Hour
	default:
		return fallback
	}
}

// Admit reports whether clientID has a free request left in its current
// window, consuming one if so.
func (a *Accountant) Admit(clientID string) bool {
	if a.freeRequests <= 0 {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()
	w, ok := a.windows[clientID]
	if !ok || now.Sub(w.start) >= a.windowLength {
		w = &window{start: now}
		a.windows[clientID] = w
	}
	if w.count >= a.freeRequests {
		return false
	}
	w.count++
	return true
}

// sweep evicts windows that are old enough that they can no longer be
// reused even by a client that hasn't been seen since — two window
// lengths, so a window is never evicted while it could still legitimately
// gate an Admit call.
func (a *Accountant) sweep() {
	a.mu.Lock()
	defer a.mu.Unlock()
	now := a.clock.Now()
	for id, w := range a.windows {
		if now.Sub(w.start) >= 2*a.windowLength {
			delete(a.windows, id)
		}
	}
}

// StartSweeper runs the sweep on a.windowLength cadence until the returned
// stop function is called. Safe to call even when the free tier is
// disabled (freeRequests == 0); the sweeper just has nothing to evict.
func (a *Accountant) StartSweeper() (stop func()) {
	ticker := a.clock.Ticker(a.windowLength)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				a.sweep()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	return func() { close(done) }
}
