// Package metrics holds the Prometheus collectors for the macro log.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is a private registry plus the counters the engine bumps.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	entryOps  *prometheus.CounterVec
	rollovers prometheus.Counter
	degraded  *prometheus.CounterVec
	lookups   *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		entryOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "macrolog",
			Name:      "entry_ops_total",
			Help:      "Entry mutations by operation and result.",
		}, []string{"op", "result"}),
		rollovers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "macrolog",
			Name:      "rollovers_total",
			Help:      "Day rollovers performed.",
		}),
		degraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "macrolog",
			Name:      "storage_degraded_total",
			Help:      "Unreadable stored values replaced by empty data.",
		}, []string{"area"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "macrolog",
			Name:      "lookup_requests_total",
			Help:      "Food lookup requests by kind and result.",
		}, []string{"kind", "result"}),
	}
	m.Registry.MustRegister(m.entryOps, m.rollovers, m.degraded, m.lookups)
	return m
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// EntryOp counts one add/edit/remove/clear.
func (m *Metrics) EntryOp(op string, err error) {
	if m == nil {
		return
	}
	m.entryOps.WithLabelValues(op, result(err)).Inc()
}

// Rollover counts a day change.
func (m *Metrics) Rollover() {
	if m == nil {
		return
	}
	m.rollovers.Inc()
}

// Degraded counts corrupt data that was read as empty. area is "live",
// "history", or "goals".
func (m *Metrics) Degraded(area string) {
	if m == nil {
		return
	}
	m.degraded.WithLabelValues(area).Inc()
}

// Lookup counts a food search or barcode request.
func (m *Metrics) Lookup(kind string, err error) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(kind, result(err)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
