package httpclient

import (
	"context"
	"errors"
	"io"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// RetryPolicy decides which attempts are retried and how long to wait.
type RetryPolicy struct {
	MaxRetries       int
	BaseDelay        time.Duration
	MaxDelay         time.Duration
	Jitter           time.Duration
	RateLimitDelay   time.Duration
	RateLimitPenalty time.Duration
	Statuses         []int
}

// DefaultRetryStatuses are retried unless configured otherwise.
var DefaultRetryStatuses = []int{
	http.StatusRequestTimeout,
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// DefaultRetryPolicy returns the stock policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:       3,
		BaseDelay:        time.Second,
		MaxDelay:         30 * time.Second,
		Jitter:           250 * time.Millisecond,
		RateLimitDelay:   5 * time.Second,
		RateLimitPenalty: time.Second,
		Statuses:         slices.Clone(DefaultRetryStatuses),
	}
}

// Retryable reports whether status is on the allow-list.
func (p RetryPolicy) Retryable(status int) bool {
	return slices.Contains(p.Statuses, status)
}

// Backoff returns the exponential delay before retry number attempt
// (1-based), without jitter.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// RateLimitWait returns how long to wait after a 429: the Retry-After value
// when present and parseable, otherwise RateLimitDelay, plus RateLimitPenalty.
// The server-supplied part is capped at the larger of MaxDelay and
// RateLimitDelay.
func (p RetryPolicy) RateLimitWait(header http.Header, now time.Time) time.Duration {
	wait, ok := ParseRetryAfter(header.Get("Retry-After"), now)
	if !ok {
		wait = p.RateLimitDelay
	}
	if limit := max(p.MaxDelay, p.RateLimitDelay); limit > 0 && wait > limit {
		wait = limit
	}
	return wait + p.RateLimitPenalty
}

// maxRetryAfterSeconds is the largest delta that fits in a time.Duration.
const maxRetryAfterSeconds = int64(math.MaxInt64 / int64(time.Second))

// ParseRetryAfter parses a Retry-After header given as integer delta seconds
// or an HTTP-date. Dates in the past yield zero. Negative, fractional and
// out-of-range deltas are rejected.
func ParseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if value[0] >= '0' && value[0] <= '9' || value[0] == '-' || value[0] == '+' {
		secs, err := strconv.ParseInt(value, 10, 64)
		if err != nil || secs < 0 || secs > maxRetryAfterSeconds {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	at, err := http.ParseTime(value)
	if err != nil {
		return 0, false
	}
	if d := at.Sub(now); d > 0 {
		return d, true
	}
	return 0, true
}

// Outcome is a received HTTP response, fully read.
type Outcome struct {
	Status int
	Header http.Header
	Body   []byte
}

// Attempt describes a scheduled retry.
type Attempt struct {
	Number int
	Delay  time.Duration
	Status int
	Err    error
}

// Retrier runs a send function under a RetryPolicy.
type Retrier struct {
	Policy  RetryPolicy
	OnRetry func(Attempt)

	now   func() time.Time
	jit   func(time.Duration) time.Duration
	sleep func(context.Context, time.Duration) error
}

// NewRetrier returns a Retrier using policy.
func NewRetrier(policy RetryPolicy) *Retrier {
	return &Retrier{Policy: policy}
}

// Do calls send until it yields a non-retryable outcome or the retries run
// out. The last outcome or error is returned unchanged; retries is the number
// of extra attempts made.
func (r *Retrier) Do(ctx context.Context, send func(context.Context) (Outcome, error)) (out Outcome, retries int, err error) {
	for attempt := 0; ; attempt++ {
		out, err = send(ctx)
		if attempt >= r.Policy.MaxRetries {
			return out, attempt, err
		}

		var delay time.Duration
		switch {
		case err != nil:
			if !isTransient(err) {
				return out, attempt, err
			}
			delay = r.Policy.Backoff(attempt+1) + r.jitter()
		case out.Status == http.StatusTooManyRequests && r.Policy.Retryable(out.Status):
			delay = r.Policy.RateLimitWait(out.Header, r.clock())
		case r.Policy.Retryable(out.Status):
			delay = r.Policy.Backoff(attempt+1) + r.jitter()
		default:
			return out, attempt, nil
		}

		if r.OnRetry != nil {
			r.OnRetry(Attempt{Number: attempt + 1, Delay: delay, Status: out.Status, Err: err})
		}
		if werr := r.wait(ctx, delay); werr != nil {
			if err == nil {
				err = werr
			}
			return out, attempt, err
		}
	}
}

func (r *Retrier) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

func (r *Retrier) jitter() time.Duration {
	if r.Policy.Jitter <= 0 {
		return 0
	}
	if r.jit != nil {
		return r.jit(r.Policy.Jitter)
	}
	return rand.N(r.Policy.Jitter)
}

func (r *Retrier) wait(ctx context.Context, d time.Duration) error {
	if r.sleep != nil {
		return r.sleep(ctx, d)
	}
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// isTransient reports whether a transport error is worth retrying.
func isTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, errCircuitOpen) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}
