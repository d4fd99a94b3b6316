// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the service reports.
type Metrics struct {
	registry *prometheus.Registry

	RoomsOpen           prometheus.Gauge
	SessionsOpen        prometheus.Gauge
	CommandsTotal       *prometheus.CounterVec
	CommandErrors       *prometheus.CounterVec
	SnapshotSaves       prometheus.Counter
	SnapshotFailures    prometheus.Counter
	BroadcastsCoalesced prometheus.Counter
	HandsCompleted      prometheus.Counter
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		RoomsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chiprail_rooms_open",
			Help: "Live room actors.",
		}),
		SessionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chiprail_sessions_open",
			Help: "Connected WebSocket sessions.",
		}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chiprail_commands_total",
			Help: "Commands processed by room actors.",
		}, []string{"kind"}),
		CommandErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chiprail_command_errors_total",
			Help: "Commands rejected by the engine, by error kind.",
		}, []string{"kind"}),
		SnapshotSaves: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chiprail_snapshot_saves_total",
			Help: "Snapshots written to the store.",
		}),
		SnapshotFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chiprail_snapshot_failures_total",
			Help: "Snapshot writes that failed and rolled the command back.",
		}),
		BroadcastsCoalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chiprail_broadcasts_coalesced_total",
			Help: "Snapshot broadcasts replaced by a newer one before delivery.",
		}),
		HandsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chiprail_hands_completed_total",
			Help: "Hands played to completion across all rooms.",
		}),
	}
	reg.MustRegister(
		m.RoomsOpen, m.SessionsOpen, m.CommandsTotal, m.CommandErrors,
		m.SnapshotSaves, m.SnapshotFailures, m.BroadcastsCoalesced,
		m.HandsCompleted,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
