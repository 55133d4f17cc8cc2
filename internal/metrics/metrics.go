// Package metrics exposes booth activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/snapstrip/photobooth/internal/filter"
	"github.com/snapstrip/photobooth/internal/session"
)

const namespace = "photobooth"

// Metrics holds the booth's collectors on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	photosTotal      *prometheus.CounterVec
	sequencesTotal   prometheus.Counter
	phase            *prometheus.GaugeVec
	exportsTotal     *prometheus.CounterVec
	exportDuration   prometheus.Histogram
	cameraSwitches   *prometheus.CounterVec
	wsClients        prometheus.Gauge
	wsDroppedClients prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		photosTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "photos_captured_total",
				Help:      "Total number of photos captured",
			},
			[]string{"filter"},
		),
		sequencesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sequences_completed_total",
				Help:      "Total number of capture sequences that took every photo",
			},
		),
		phase: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "phase",
				Help:      "1 for the booth's current phase, 0 otherwise",
			},
			[]string{"phase"},
		),
		exportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exports_total",
				Help:      "Total number of strip exports",
			},
			[]string{"status"}, // status: success, error
		),
		exportDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "export_duration_seconds",
				Help:      "Time spent rendering and writing a strip",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),
		cameraSwitches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "camera_switches_total",
				Help:      "Total number of camera facing switches",
			},
			[]string{"status"},
		),
		wsClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ws_clients",
				Help:      "Number of connected WebSocket clients",
			},
		),
		wsDroppedClients: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ws_dropped_clients_total",
				Help:      "WebSocket clients disconnected for falling behind",
			},
		),
	}
	m.reg.MustRegister(
		m.photosTotal,
		m.sequencesTotal,
		m.phase,
		m.exportsTotal,
		m.exportDuration,
		m.cameraSwitches,
		m.wsClients,
		m.wsDroppedClients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) PhotoCaptured(f filter.Kind) {
	m.photosTotal.WithLabelValues(f.String()).Inc()
}

func (m *Metrics) SequenceCompleted() {
	m.sequencesTotal.Inc()
}

func (m *Metrics) PhaseChanged(p session.Phase) {
	for _, ph := range []session.Phase{session.AwaitingPermission, session.Capturing, session.Editing} {
		v := 0.0
		if ph == p {
			v = 1
		}
		m.phase.WithLabelValues(ph.String()).Set(v)
	}
}

func (m *Metrics) Exported(d time.Duration, err error) {
	m.exportsTotal.WithLabelValues(status(err)).Inc()
	if err == nil {
		m.exportDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) CameraSwitched(err error) {
	m.cameraSwitches.WithLabelValues(status(err)).Inc()
}

// ClientConnected and ClientDisconnected track WebSocket clients.
func (m *Metrics) ClientConnected()    { m.wsClients.Inc() }
func (m *Metrics) ClientDisconnected() { m.wsClients.Dec() }

// ClientDropped counts a client cut off for not keeping up.
func (m *Metrics) ClientDropped() { m.wsDroppedClients.Inc() }

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

var _ session.Recorder = (*Metrics)(nil)
