package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the server.
type Metrics struct {
	ConnectionsTotal  prometheus.Counter
	ConnectionsActive prometheus.Gauge
	PacketsIn         *prometheus.CounterVec
	PacketsOut        *prometheus.CounterVec
	CodecErrors       *prometheus.CounterVec
	Disconnects       *prometheus.CounterVec
	HookInvocations   *prometheus.CounterVec
}

// newMetrics registers the server instruments with the given registerer.
func newMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ConnectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "obsidian",
			Name:      "connections_total",
			Help:      "Total number of accepted connections.",
		}),
		ConnectionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "obsidian",
			Name:      "connections_active",
			Help:      "Number of currently active connections.",
		}),
		PacketsIn: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "obsidian",
			Name:      "packets_in_total",
			Help:      "Inbound packets by packet name.",
		}, []string{"packet"}),
		PacketsOut: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "obsidian",
			Name:      "packets_out_total",
			Help:      "Outbound packets by packet name.",
		}, []string{"packet"}),
		CodecErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "obsidian",
			Name:      "codec_errors_total",
			Help:      "Packet encode and decode failures by packet name and severity.",
		}, []string{"packet", "severity"}),
		Disconnects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "obsidian",
			Name:      "disconnects_total",
			Help:      "Connection teardowns by cause.",
		}, []string{"cause"}),
		HookInvocations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "obsidian",
			Name:      "hook_invocations_total",
			Help:      "Extension point invocations by target.",
		}, []string{"target"}),
	}
}
