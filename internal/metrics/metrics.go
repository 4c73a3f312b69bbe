// Package metrics holds the Prometheus collectors exported by the bot.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "smokebot"

// Metrics groups the bot's collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry          *prometheus.Registry
	triggers          prometheus.Counter
	toggles           *prometheus.CounterVec
	participantsAdded prometheus.Counter
	migrations        *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry together
// with the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		triggers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "triggers_total",
			Help:      "Announcements recorded in the trigger log.",
		}),
		toggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "toggles_total",
			Help:      "Participation toggles by resulting state.",
		}, []string{"state"}),
		participantsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "participants_added_total",
			Help:      "Participants inserted into the roster on first sighting.",
		}),
		migrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schema_migrations_total",
			Help:      "Schema reconciliation steps by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.triggers,
		m.toggles,
		m.participantsAdded,
		m.migrations,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) TriggerRecorded() {
	if m == nil {
		return
	}
	m.triggers.Inc()
}

func (m *Metrics) Toggled(state string) {
	if m == nil {
		return
	}
	m.toggles.WithLabelValues(state).Inc()
}

func (m *Metrics) ParticipantAdded() {
	if m == nil {
		return
	}
	m.participantsAdded.Inc()
}

// MigrationResult counts one reconciliation step; result is "applied" or
// "failed".
func (m *Metrics) MigrationResult(result string) {
	if m == nil {
		return
	}
	m.migrations.WithLabelValues(result).Inc()
}
