// Package poll implements the resilient background-service pattern shared by
// the badge's network-fed data sources (weather, location, schedule,
// calendar). A Poller owns one periodically fetched value behind a circuit
// breaker and exposes non-blocking snapshot reads; fetch failures are fully
// absorbed here and never surface to screens as errors.
package poll

import "fmt"

// FailureKind classifies a fetch failure. The breaker treats every kind
// identically (each counts as one failure); the kind exists for logging and
// for the "no data" reason string shown on screens.
type FailureKind uint8

const (
	// KindNetwork covers transport-level failures: DNS, dial, TLS, timeouts.
	KindNetwork FailureKind = iota
	// KindBadStatus is a non-2xx HTTP response from the upstream.
	KindBadStatus
	// KindMalformed is a payload that could not be decoded, including panics
	// recovered during response parsing.
	KindMalformed
)

// String returns the wire-taxonomy name for the kind.
func (k FailureKind) String() string {
	switch k {
	case KindNetwork:
		return "network_error"
	case KindBadStatus:
		return "bad_status"
	case KindMalformed:
		return "malformed_payload"
	default:
		return fmt.Sprintf("FailureKind(%d)", uint8(k))
	}
}

// FetchError is the error type fetch functions return. Errors of other types
// are treated as KindNetwork.
type FetchError struct {
	Kind FailureKind
	Err  error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *FetchError) Unwrap() error { return e.Err }

// NetworkError wraps a transport failure.
func NetworkError(err error) *FetchError {
	return &FetchError{Kind: KindNetwork, Err: err}
}

// BadStatus reports a non-2xx upstream response.
func BadStatus(code int) *FetchError {
	return &FetchError{Kind: KindBadStatus, Err: fmt.Errorf("unexpected status %d", code)}
}

// Malformed wraps a payload decode failure.
func Malformed(err error) *FetchError {
	return &FetchError{Kind: KindMalformed, Err: err}
}
