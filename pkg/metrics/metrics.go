// Package metrics wraps a private Prometheus registry with short constructors
// and an HTTP handler, so each binary owns its metric set.
package metrics

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultBuckets are the default histogram buckets (in seconds).
var DefaultBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// Registry owns a set of collectors under one namespace.
type Registry struct {
	reg       *prometheus.Registry
	namespace string
}

// New creates a Registry with Go runtime and process collectors registered.
func New(namespace string) *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Registry{reg: reg, namespace: namespace}
}

// Counter registers a counter vector. Registering the same name twice returns
// the existing collector.
func (r *Registry) Counter(name, help string, labels ...string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: r.namespace, Name: name, Help: help}, labels)
	return register(r.reg, c)
}

// Gauge registers a gauge vector.
func (r *Registry) Gauge(name, help string, labels ...string) *prometheus.GaugeVec {
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: r.namespace, Name: name, Help: help}, labels)
	return register(r.reg, g)
}

// Histogram registers a histogram vector. Nil buckets use DefaultBuckets.
func (r *Registry) Histogram(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	if buckets == nil {
		buckets = DefaultBuckets
	}
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: r.namespace, Name: name, Help: help, Buckets: buckets}, labels)
	return register(r.reg, h)
}

func register[C prometheus.Collector](reg *prometheus.Registry, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// Since observes the seconds elapsed since t.
func Since(o prometheus.Observer, t time.Time) {
	o.Observe(time.Since(t).Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// ServeAsync serves /metrics on addr in a goroutine. Errors are logged.
func (r *Registry) ServeAsync(addr string, log *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", "addr", addr, "err", err)
		}
	}()
	return srv
}
