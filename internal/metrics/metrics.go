package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the sync server.
type Metrics struct {
	registry          *prometheus.Registry
	eventsTotal       *prometheus.CounterVec
	droppedTotal      *prometheus.CounterVec
	broadcastsTotal   prometheus.Counter
	activeConnections prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	eventsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "watchroom_events_total",
		Help: "Total number of inbound websocket events by message type",
	}, []string{"type"})
	droppedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "watchroom_events_dropped_total",
		Help: "Total number of inbound events dropped as malformed or unauthorized",
	}, []string{"type"})
	broadcastsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "watchroom_broadcasts_total",
		Help: "Total number of messages fanned out to room members",
	})
	activeConnections := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "watchroom_active_connections",
		Help: "Number of currently open websocket connections",
	})

	registry.MustRegister(
		eventsTotal,
		droppedTotal,
		broadcastsTotal,
		activeConnections,
	)

	return &Metrics{
		registry:          registry,
		eventsTotal:       eventsTotal,
		droppedTotal:      droppedTotal,
		broadcastsTotal:   broadcastsTotal,
		activeConnections: activeConnections,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncEvent(messageType string) {
	m.eventsTotal.WithLabelValues(messageType).Inc()
}

func (m *Metrics) IncDropped(messageType string) {
	m.droppedTotal.WithLabelValues(messageType).Inc()
}

func (m *Metrics) AddBroadcasts(n int) {
	m.broadcastsTotal.Add(float64(n))
}

func (m *Metrics) ConnOpened() {
	m.activeConnections.Inc()
}

func (m *Metrics) ConnClosed() {
	m.activeConnections.Dec()
}
