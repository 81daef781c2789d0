// Package trends defines the capability the fetch pipeline needs from an
// interest-over-time source, and ships an HTTP adapter for a trends gateway.
//
// The gateway is a small sidecar that wraps the upstream trends library and
// answers with a pandas "split" JSON document:
//
//	POST /interest_over_time
//	{"keywords": ["go", "rust"], "geo": "US", "timeframe": "today 12-m", "cat": 0, "gprop": "", "hl": "en-US", "tz": 0}
//
//	{"columns": ["go", "rust", "isPartial"],
//	 "index":   ["2024-01-07T00:00:00.000", ...],
//	 "data":    [[71, 38, false], ...]}
//
// Transient failures (HTTP 429, 5xx, transport errors) are returned as plain
// errors so callers may retry them. Requests the gateway rejects as invalid
// are wrapped with backoff.Permanent and must not be retried.
package trends
