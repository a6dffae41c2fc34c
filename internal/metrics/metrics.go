// Package metrics exposes run and HTTP counters in Prometheus format.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the board glue and the HTTP layer report into.
type Recorder interface {
	ObserveRun(kind, status, errKind string, durationSeconds float64)
	ObserveRequest(method, route, status string, durationSeconds float64)
}

// Noop implements Recorder without emitting anything.
type Noop struct{}

func (Noop) ObserveRun(string, string, string, float64)     {}
func (Noop) ObserveRequest(string, string, string, float64) {}

// Prom implements Recorder backed by the default Prometheus registry.
type Prom struct {
	runs        *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

var runBuckets = []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60}

func NewProm(namespace string) *Prom {
	p := &Prom{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Settled card runs by adapter kind, status and error kind",
		}, []string{"kind", "status", "error_kind"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Card run latency by adapter kind",
			Buckets:   runBuckets,
		}, []string{"kind"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method/route/status",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method/route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	p.runs = register(p.runs)
	p.runDuration = register(p.runDuration)
	p.requests = register(p.requests)
	p.latency = register(p.latency)
	return p
}

// register adopts an already registered collector so that building the app
// twice in one process does not panic.
func register[C prometheus.Collector](c C) C {
	if err := prometheus.Register(c); err != nil {
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

func (p *Prom) ObserveRun(kind, status, errKind string, durationSeconds float64) {
	p.runs.WithLabelValues(kind, status, errKind).Inc()
	p.runDuration.WithLabelValues(kind).Observe(durationSeconds)
}

func (p *Prom) ObserveRequest(method, route, status string, durationSeconds float64) {
	p.requests.WithLabelValues(method, route, status).Inc()
	p.latency.WithLabelValues(method, route).Observe(durationSeconds)
}

// Handler returns an HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
