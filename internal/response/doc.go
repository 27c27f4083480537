// Package response turns raw backend replies into one envelope shape.
//
// # Classification
//
// Every request ends in exactly one Kind:
//
//   - KindSuccess: 2xx, payload passed through
//   - KindClient: 4xx, message taken from the body
//   - KindAuth: 401 whose body says the token is invalid or expired
//   - KindRateLimited: 429 that survived the retry policy
//   - KindServer: 5xx
//   - KindNetwork: no response at all ("server unavailable")
//
// Failed requests surface as *Error, so callers branch with errors.As or the
// KindOf/StatusOf/MessageOf helpers instead of sniffing strings.
//
// # Payload shapes
//
// The backend wraps resources inconsistently ({"universe": {...}},
// {"data": {"universe": {...}}}, {"data": {"data": {...}}} or the bare
// object). Unwrap and Decode probe those shapes once, here, so services
// decode into concrete model types without repeating the probing.
package response
