// Package monitoring exposes the coordinator's counters over Prometheus.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics satisfies app.Stats and ws.DropStats.
type Metrics struct {
	reg       *prometheus.Registry
	connected prometheus.Gauge
	broadcast prometheus.Counter
	dropped   prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lyricstage_connected_devices",
			Help: "Live connections in the broadcast scope.",
		}),
		broadcast: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lyricstage_document_broadcasts_total",
			Help: "Documents broadcast by masters or the upload endpoint.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lyricstage_dropped_sends_total",
			Help: "Outbound events dropped on backpressure.",
		}),
	}
	m.reg.MustRegister(m.connected, m.broadcast, m.dropped,
		collectors.NewGoCollector())
	return m
}

func (m *Metrics) ConnectedDevices(n int) { m.connected.Set(float64(n)) }
func (m *Metrics) DocumentBroadcast()     { m.broadcast.Inc() }
func (m *Metrics) DroppedSend()           { m.dropped.Inc() }

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
