// Package httpclient is the request pipeline every backend call goes through.
//
// # Overview
//
// A Client turns a route such as "/universes/7" into a full URL, attaches the
// bearer token from the session store, sends the request under a retry
// policy and reduces whatever comes back to a response.Envelope. Callers get
// the raw body on success and a *response.Error otherwise.
//
// # Pipeline
//
//	Do(ctx, method, path, body)
//	  ├─> FormatURL            base URL + "/api" prefix, exactly once
//	  ├─> Cache.Get            fresh GET hit returns without network
//	  ├─> bearer()             token, refreshed first if expiring in 30s
//	  ├─> Retrier.Do
//	  │     ├─> rate.Limiter   optional client-side throttle
//	  │     ├─> gobreaker      fails fast after repeated 5xx/network errors
//	  │     └─> http.Client    one attempt
//	  ├─> response.Classify
//	  ├─> 401 token invalid    single-flight refresh, replay once,
//	  │                        or tear the session down
//	  ├─> 5xx                  publish "server-error" on the event bus
//	  └─> cache set / invalidate
//
// # Retries
//
// Only statuses on the allow-list (408, 429, 500, 502, 503, 504 by default)
// and transient transport errors are retried. The delay is
// base*2^(attempt-1) capped at MaxDelay plus jitter. A 429 waits for
// Retry-After (integer seconds or HTTP-date, capped at MaxDelay), or
// RateLimitDelay when absent or malformed, plus
// RateLimitPenalty. When retries run out the last outcome is returned as is.
//
// # Authentication
//
// A 401 whose body carries one of the known token-invalid messages triggers
// a refresh through POST /api/auth/refresh. Concurrent 401s share one
// refresh. The original request is replayed once with the new token. When no
// refresh is possible the auth keys are cleared, token_verification_failed
// is set to "true" and "auth:signout" is published. Local demo sessions refresh
// locally.
//
// # Caching
//
// GET bodies are cached per formatted URL for the configured TTL. Any
// successful mutation drops the entry for its URL and for the parent
// collection, plus any paths passed with Invalidate. The cache belongs to the
// Client; ClearCache empties it on logout.
package httpclient
