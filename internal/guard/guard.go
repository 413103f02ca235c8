// Package guard holds in-memory admission checks applied before a request
// reaches the database: rate limiting, request-level idempotency, and a
// circuit breaker for the Kafka publish path.
package guard

// GuardResult is the outcome of one admission check.
type GuardResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Guard   string `json:"guard,omitempty"`
}

// Allow is the zero-friction pass result.
func Allow() GuardResult {
	return GuardResult{Allowed: true}
}
