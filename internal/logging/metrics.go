package logging

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the logging pipeline.
type Metrics struct {
	EntriesWritten *prometheus.CounterVec
	EntriesDropped prometheus.Counter
}

// NewMetrics initializes and registers the metrics on reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in
// tests so repeated construction does not collide.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EntriesWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inkpress",
			Subsystem: "audit",
			Name:      "entries_written_total",
			Help:      "Total number of audit log entries persisted, by type.",
		}, []string{"type"}),
		EntriesDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "inkpress",
			Subsystem: "audit",
			Name:      "entries_dropped_total",
			Help:      "Total number of audit log entries dropped because the write failed or was rejected.",
		}),
	}
}
