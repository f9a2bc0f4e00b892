package stats

import (
	"sync"
	"time"

	"github.com/l402lab/l402-go"
)

const defaultCapacity = 100

// PaymentRecord is one settled payment, kept for the recent-activity view.
type PaymentRecord struct {
	Endpoint    string
	AmountSats  int64
	PayerID     string
	PaymentHash string
	Timestamp   time.Time
}

// EndpointStats aggregates request counts and revenue for a single endpoint.
type EndpointStats struct {
	Revenue  int64
	Requests int64
	Paid     int64
	Free     int64
}

// Snapshot is an immutable, deep-copied view of a Recorder at a point in
// time — safe to serialize or hand to a dashboard handler without holding
// the Recorder's lock.
type Snapshot struct {
	TotalRevenue   int64
	TotalRequests  int64
	TotalPaid      int64
	UniquePayers   int
	Endpoints      map[string]EndpointStats
	RecentPayments []PaymentRecord
}

// RecentNewestFirst returns up to n of the most recent payments, most
// recent first — the order a dashboard wants to display them in.
func (s Snapshot) RecentNewestFirst(n int) []PaymentRecord {
	if n > len(s.RecentPayments) {
		n = len(s.RecentPayments)
	}
	out := make([]PaymentRecord, 0, n)
	for i := len(s.RecentPayments) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.RecentPayments[i])
	}
	return out
}

// Recorder is the gate's in-memory stats sink. Record is called once per
// request, paid or not; Snapshot is called by the dashboard and metrics
// handlers. Both are safe for concurrent use.
type Recorder struct {
	mu            sync.Mutex
	totalRevenue  int64
	totalRequests int64
	totalPaid     int64
	payers        map[string]struct{}
	endpoints     map[string]*EndpointStats
	recent        []PaymentRecord
	capacity      int
	clock         l402.Clock
}

// New returns a Recorder that keeps at most capacity recent payment
// records. A non-positive capacity falls back to 100.
func New(capacity int, clock l402.Clock) *Recorder {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Recorder{
		payers:    make(map[string]struct{}),
		endpoints: make(map[string]*EndpointStats),
		capacity:  capacity,
		clock:     clock,
	}
}

// Record logs one request against endpoint. paid requests additionally
// record revenue, the payer's identity, and a recent-payments entry;
// free (unpaid, admitted-by-free-tier) requests only count toward totals.
func (r *Recorder) Record(endpoint string, paid bool, amountSats int64, payerID, paymentHash string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.totalRequests++
	ep, ok := r.endpoints[endpoint]
	if !ok {
		ep = &EndpointStats{}
		r.endpoints[endpoint] = ep
	}
	ep.Requests++

	if !paid || amountSats <= 0 {
		ep.Free++
		return
	}

	ep.Paid++
	ep.Revenue += amountSats
	r.totalPaid++
	r.totalRevenue += amountSats
	r.payers[payerID] = struct{}{}

	r.recent = append(r.recent, PaymentRecord{
		Endpoint:    endpoint,
		AmountSats:  amountSats,
		PayerID:     payerID,
		PaymentHash: paymentHash,
		Timestamp:   r.clock.Now(),
	})
	if len(r.recent) > r.capacity {
		r.recent = r.recent[len(r.recent)-r.capacity:]
	}
}

// Snapshot returns a deep copy of the recorder's current state.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	endpoints := make(map[string]EndpointStats, len(r.endpoints))
	for k, v := range r.endpoints {
		endpoints[k] = *v
	}
	recent := make([]PaymentRecord, len(r.recent))
	copy(recent, r.recent)

	return Snapshot{
		TotalRevenue:   r.totalRevenue,
		TotalRequests:  r.totalRequests,
		TotalPaid:      r.totalPaid,
		UniquePayers:   len(r.payers),
		Endpoints:      endpoints,
		RecentPayments: recent,
	}
}
