// Package stats aggregates paid and free request counts per endpoint and
// keeps a bounded, oldest-first history of recent payments (with a
// newest-first view, RecentNewestFirst) for the gate's dashboard and
// metrics endpoints. It holds everything in memory only — no
// persistence, matching the gate's non-goal of durable stats storage — the
// same bounded-map shape an in-memory idempotency store uses to keep
// recent results without growing without bound.
package stats
