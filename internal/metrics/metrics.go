// Package metrics exposes Prometheus counters for the request pipeline.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "harmonic"

// Collector holds the client metrics. A nil *Collector is valid and records
// nothing, so callers never need to check whether metrics are enabled.
type Collector struct {
	registry *prometheus.Registry

	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Retries         *prometheus.CounterVec
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	Refreshes       *prometheus.CounterVec
	SignOuts        prometheus.Counter
	BreakerState    prometheus.Gauge
}

// NewCollector creates a Collector with its own registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	c := &Collector{
		registry: registry,
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests sent to the backend by method and outcome kind.",
		}, []string{"method", "kind"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Request latency including retries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Retried attempts by reason.",
		}, []string{"reason"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "GET requests served from the response cache.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Cacheable GET requests that went to the network.",
		}),
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refreshes_total",
			Help:      "Token refresh attempts by result.",
		}, []string{"result"}),
		SignOuts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forced_signouts_total",
			Help:      "Sessions torn down after the backend rejected the token.",
		}),
		BreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "0 closed, 1 half-open, 2 open.",
		}),
	}
	registry.MustRegister(
		c.Requests,
		c.RequestDuration,
		c.Retries,
		c.CacheHits,
		c.CacheMisses,
		c.Refreshes,
		c.SignOuts,
		c.BreakerState,
	)
	return c
}

// Registry returns the registry the collector registers into.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ObserveRequest records one finished logical request.
func (c *Collector) ObserveRequest(method, kind string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.Requests.WithLabelValues(method, kind).Inc()
	c.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// Retry records a retried attempt.
func (c *Collector) Retry(reason string) {
	if c == nil {
		return
	}
	c.Retries.WithLabelValues(reason).Inc()
}

// Cache records a cache lookup.
func (c *Collector) Cache(hit bool) {
	if c == nil {
		return
	}
	if hit {
		c.CacheHits.Inc()
		return
	}
	c.CacheMisses.Inc()
}

// Refresh records a token refresh with result "ok", "failed" or "shared".
func (c *Collector) Refresh(result string) {
	if c == nil {
		return
	}
	c.Refreshes.WithLabelValues(result).Inc()
}

// SignOut records a forced sign-out.
func (c *Collector) SignOut() {
	if c == nil {
		return
	}
	c.SignOuts.Inc()
}

// Breaker records the circuit breaker state.
func (c *Collector) Breaker(state float64) {
	if c == nil {
		return
	}
	c.BreakerState.Set(state)
}

// Handler serves the collector's registry.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen metrics: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve metrics: %w", err)
	}
}
