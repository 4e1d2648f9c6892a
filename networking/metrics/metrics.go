// Package metrics exposes the server's operational counters over
// Prometheus, grounded on kstaniek-go-ampio-server's
// internal/metrics/metrics.go registry/CounterVec/GaugeVec pattern.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds every metric the tick loop updates.
type Server struct {
	registry *prometheus.Registry

	ConnectedClients prometheus.Gauge
	PacketsReceived  prometheus.Counter
	PacketsSent      prometheus.Counter
	DecodeErrors     prometheus.Counter
	TicksProcessed   prometheus.Counter
	InputsApplied    prometheus.Counter
	Timeouts         prometheus.Counter
	TickDuration     prometheus.Histogram
}

// New builds a fresh, independent metric set registered on its own registry.
func New() *Server {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Server{
		registry: reg,
		ConnectedClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "netcode",
			Subsystem: "server",
			Name:      "connected_clients",
			Help:      "Number of clients currently registered.",
		}),
		PacketsReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "netcode",
			Subsystem: "server",
			Name:      "packets_received_total",
			Help:      "Datagrams successfully decoded.",
		}),
		PacketsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "netcode",
			Subsystem: "server",
			Name:      "packets_sent_total",
			Help:      "Datagrams sent to clients.",
		}),
		DecodeErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "netcode",
			Subsystem: "server",
			Name:      "decode_errors_total",
			Help:      "Datagrams dropped because they failed to decode.",
		}),
		TicksProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "netcode",
			Subsystem: "server",
			Name:      "ticks_total",
			Help:      "Simulation ticks processed.",
		}),
		InputsApplied: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "netcode",
			Subsystem: "server",
			Name:      "inputs_applied_total",
			Help:      "Input packets applied to the simulation.",
		}),
		Timeouts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "netcode",
			Subsystem: "server",
			Name:      "client_timeouts_total",
			Help:      "Clients evicted for inactivity.",
		}),
		TickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "netcode",
			Subsystem: "server",
			Name:      "tick_duration_seconds",
			Help:      "Wall-clock time spent processing one tick.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Handler returns an http.Handler serving this metric set in the
// Prometheus exposition format.
func (s *Server) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
