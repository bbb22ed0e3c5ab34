package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes the memoizer counters through a dedicated prometheus
// registry, so embedding applications can mount the handler wherever they
// serve their own metrics.
type Metrics struct {
	registry *prometheus.Registry
}

func NewMetrics(namespace string, memo MemoMetrics) *Metrics {
	if namespace == "" {
		namespace = "fetchcache"
	}

	registry := prometheus.NewRegistry()

	counter := func(name, help string, read func() int64) prometheus.CounterFunc {
		return prometheus.NewCounterFunc(
			prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help},
			func() float64 { return float64(read()) },
		)
	}

	registry.MustRegister(
		counter("hits_total", "Memoized calls served from the backing store", func() int64 {
			hits, _, _, _, _ := memo.Metrics()
			return hits
		}),
		counter("misses_total", "Memoized calls that invoked the origin", func() int64 {
			_, misses, _, _, _ := memo.Metrics()
			return misses
		}),
		counter("bypasses_total", "Calls passed through because caching is disabled", func() int64 {
			_, _, bypasses, _, _ := memo.Metrics()
			return bypasses
		}),
		counter("degraded_keys_total", "Calls whose arguments could not be canonicalized", func() int64 {
			_, _, _, degraded, _ := memo.Metrics()
			return degraded
		}),
		counter("write_errors_total", "Best-effort store writes that failed", func() int64 {
			_, _, _, _, writeErrs := memo.Metrics()
			return writeErrs
		}),
	)

	return &Metrics{registry: registry}
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
