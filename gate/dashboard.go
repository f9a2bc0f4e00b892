package gate

import (
	"encoding/json"
	"net/http"

	"github.com/l402lab/l402-go/stats"
)

const dashboardRecentLimit = 20

type dashboardPayment struct {
	Endpoint    string `json:"endpoint"`
	AmountSats  int64  `json:"amountSats"`
	PayerID     string `json:"payerId"`
	PaymentHash string `json:"paymentHash"`
	Timestamp   int64  `json:"timestamp"`
}

type dashboardEndpoint struct {
	Revenue  int64 `json:"revenue"`
	Requests int64 `json:"requests"`
	Paid     int64 `json:"paid"`
	Free     int64 `json:"free"`
}

type dashboardSnapshot struct {
	TotalRevenue   int64                        `json:"totalRevenue"`
	TotalRequests  int64                        `json:"totalRequests"`
	TotalPaid      int64                        `json:"totalPaid"`
	UniquePayers   int                          `json:"uniquePayers"`
	Endpoints      map[string]dashboardEndpoint `json:"endpoints"`
	RecentPayments []dashboardPayment           `json:"recentPayments"`
}

func toDashboardView(snap stats.Snapshot) dashboardSnapshot {
	endpoints := make(map[string]dashboardEndpoint, len(snap.Endpoints))
	for name, ep := range snap.Endpoints {
		endpoints[name] = dashboardEndpoint{Revenue: ep.Revenue, Requests: ep.Requests, Paid: ep.Paid, Free: ep.Free}
	}

	recent := snap.RecentNewestFirst(dashboardRecentLimit)
	payments := make([]dashboardPayment, len(recent))
	for i, p := range recent {
		payments[i] = dashboardPayment{
			Endpoint:    p.Endpoint,
			AmountSats:  p.AmountSats,
			PayerID:     p.PayerID,
			PaymentHash: p.PaymentHash,
			Timestamp:   p.Timestamp.Unix(),
		}
	}

	return dashboardSnapshot{
		TotalRevenue:   snap.TotalRevenue,
		TotalRequests:  snap.TotalRequests,
		TotalPaid:      snap.TotalPaid,
		UniquePayers:   snap.UniquePayers,
		Endpoints:      endpoints,
		RecentPayments: payments,
	}
}

// Dashboard returns an http.HandlerFunc that serves a JSON projection of
// accumulated stats: totals, per-endpoint breakdowns, and up to the 20
// most recent payments, newest first. It is not mounted automatically —
// operators wire it onto whatever path and auth policy (see AdminAuth)
// they want.
func (t *Toll) Dashboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(toDashboardView(t.Stats()))
	}
}
