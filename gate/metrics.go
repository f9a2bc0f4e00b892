package gate

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/l402lab/l402-go/stats"
)

// Metrics returns an http.HandlerFunc exposing accumulated stats in
// Prometheus text exposition format: request/revenue counters overall and
// per endpoint, plus a derived payments-per-minute gauge.
func (t *Toll) Metrics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		writePrometheusMetrics(w, t.Stats(), t.clock.Now())
	}
}

func writePrometheusMetrics(w io.Writer, snap stats.Snapshot, now time.Time) {
	fmt.Fprintln(w, "# HELP lightning_toll_revenue_sats_total Total sats received for settled payments.")
	fmt.Fprintln(w, "# TYPE lightning_toll_revenue_sats_total counter")
	fmt.Fprintf(w, "lightning_toll_revenue_sats_total %d\n", snap.TotalRevenue)

	fmt.Fprintln(w, "# HELP lightning_toll_requests_total Total requests served, paid or free.")
	fmt.Fprintln(w, "# TYPE lightning_toll_requests_total counter")
	fmt.Fprintf(w, "lightning_toll_requests_total %d\n", snap.TotalRequests)

	fmt.Fprintln(w, "# HELP lightning_toll_paid_requests_total Total requests admitted via a settled payment.")
	fmt.Fprintln(w, "# TYPE lightning_toll_paid_requests_total counter")
	fmt.Fprintf(w, "lightning_toll_paid_requests_total %d\n", snap.TotalPaid)

	fmt.Fprintln(w, "# HELP lightning_toll_unique_payers Distinct client identities that have paid at least once.")
	fmt.Fprintln(w, "# TYPE lightning_toll_unique_payers gauge")
	fmt.Fprintf(w, "lightning_toll_unique_payers %d\n", snap.UniquePayers)

	fmt.Fprintln(w, "# HELP endpoint_revenue_sats Sats received per endpoint.")
	fmt.Fprintln(w, "# TYPE endpoint_revenue_sats gauge")
	fmt.Fprintln(w, "# HELP endpoint_requests Requests served per endpoint, paid or free.")
	fmt.Fprintln(w, "# TYPE endpoint_requests gauge")
	fmt.Fprintln(w, "# HELP endpoint_paid Requests admitted via a settled payment, per endpoint.")
	fmt.Fprintln(w, "# TYPE endpoint_paid gauge")
	fmt.Fprintln(w, "# HELP endpoint_free Requests admitted via the free tier, per endpoint.")
	fmt.Fprintln(w, "# TYPE endpoint_free gauge")

	endpoints := make([]string, 0, len(snap.Endpoints))
	for name := range snap.Endpoints {
		endpoints = append(endpoints, name)
	}
	sort.Strings(endpoints)
	for _, name := range endpoints {
		ep := snap.Endpoints[name]
		label := escapeLabel(name)
		fmt.Fprintf(w, "endpoint_revenue_sats{endpoint=\"%s\"} %d\n", label, ep.Revenue)
		fmt.Fprintf(w, "endpoint_requests{endpoint=\"%s\"} %d\n", label, ep.Requests)
		fmt.Fprintf(w, "endpoint_paid{endpoint=\"%s\"} %d\n", label, ep.Paid)
		fmt.Fprintf(w, "endpoint_free{endpoint=\"%s\"} %d\n", label, ep.Free)
	}

	fmt.Fprintln(w, "# HELP lightning_toll_payments_per_minute Settled payments in the trailing 60 seconds.")
	fmt.Fprintln(w, "# TYPE lightning_toll_payments_per_minute gauge")
	fmt.Fprintf(w, "lightning_toll_payments_per_minute %d\n", paymentsPerMinute(snap, now))

	if snap.TotalPaid > 0 {
		fmt.Fprintln(w, "# HELP lightning_toll_average_payment_sats Mean sats per settled payment.")
		fmt.Fprintln(w, "# TYPE lightning_toll_average_payment_sats gauge")
		fmt.Fprintf(w, "lightning_toll_average_payment_sats %f\n", float64(snap.TotalRevenue)/float64(snap.TotalPaid))
	}
}

func paymentsPerMinute(snap stats.Snapshot, now time.Time) int {
	cutoff := now.Add(-time.Minute)
	count := 0
	for _, p := range snap.RecentPayments {
		if p.Timestamp.After(cutoff) {
			count++
		}
	}
	return count
}

func escapeLabel(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	v = strings.ReplaceAll(v, "\n", `\n`)
	return v
}
