package stats

import (
	"testing"

	"github.com/benbjohnson/clock"
)

func TestRecordPaidAndFree(t *testing.T) {
	r := New(10, clock.NewMock())

	r.Record("/api/joke", true, 100, "payer-1", "hash-1")
	r.Record("/api/joke", false, 0, "payer-2", "")

	snap := r.Snapshot()
	if snap.TotalRequests != 2 {
		t.Errorf("TotalRequests = %d, want 2", snap.TotalRequests)
	}
	if snap.TotalPaid != 1 {
		t.Errorf("TotalPaid = %d, want 1", snap.TotalPaid)
	}
	if snap.TotalRevenue != 100 {
		t.Errorf("TotalRevenue = %d, want 100", snap.TotalRevenue)
	}
	if snap.UniquePayers != 1 {
		t.Errorf("UniquePayers = %d, want 1 (free requests don't count as payers)", snap.UniquePayers)
	}
	ep := snap.Endpoints["/api/joke"]
	if ep.Requests != 2 || ep.Paid != 1 || ep.Free != 1 || ep.Revenue != 100 {
		t.Errorf("endpoint stats = %+v", ep)
	}
}

func TestRecentPaymentsIsBounded(t *testing.T) {
	r := New(2, clock.NewMock())
	r.Record("/a", true, 1, "p1", "h1")
	r.Record("/a", true, 2, "p2", "h2")
	r.Record("/a", true, 3, "p3", "h3")

	snap := r.Snapshot()
	if len(snap.RecentPayments) != 2 {
		t.Fatalf("got %d recent payments, want 2", len(snap.RecentPayments))
	}
	if snap.RecentPayments[0].AmountSats != 2 || snap.RecentPayments[1].AmountSats != 3 {
		t.Errorf("expected oldest-evicted order, got %+v", snap.RecentPayments)
	}
}

func TestRecentNewestFirst(t *testing.T) {
	r := New(10, clock.NewMock())
	r.Record("/a", true, 1, "p1", "h1")
	r.Record("/a", true, 2, "p2", "h2")

	snap := r.Snapshot()
	newest := snap.RecentNewestFirst(1)
	if len(newest) != 1 || newest[0].AmountSats != 2 {
		t.Errorf("got %+v, want newest payment first", newest)
	}
}

func TestSnapshotIsIndependentOfFurtherRecords(t *testing.T) {
	r := New(10, clock.NewMock())
	r.Record("/a", true, 1, "p1", "h1")
	snap := r.Snapshot()

	r.Record("/a", true, 2, "p2", "h2")

	if snap.TotalRequests != 1 {
		t.Errorf("snapshot mutated after further Record calls: TotalRequests = %d", snap.TotalRequests)
	}
}
