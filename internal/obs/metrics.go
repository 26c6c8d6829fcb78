package obs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"homebroker/internal/adapter/enum"
)

const namespace = "homebroker"

// Metrics exposes the ingestion counters as Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	received      *prometheus.CounterVec
	coalesced     *prometheus.CounterVec
	dispatched    *prometheus.CounterVec
	errors        *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec
	connected     prometheus.Gauge
}

// NewMetrics allocates the collectors and registers them on reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_received_total",
			Help:      "Records pushed by the hub, per stream.",
		}, []string{"stream"}),
		coalesced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_coalesced_total",
			Help:      "Records superseded by a newer record of the same instrument before dispatch.",
		}, []string{"stream"}),
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tables_dispatched_total",
			Help:      "Normalized tables handed to callbacks, per table kind.",
		}, []string{"table"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_errors_total",
			Help:      "Errors raised while processing a stream batch.",
		}, []string{"stream"}),
		batchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Time spent normalizing and dispatching one stream batch.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}, []string{"stream"}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hub_connected",
			Help:      "1 while the hub connection is up.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.received, m.coalesced, m.dispatched, m.errors, m.batchDuration, m.connected)
	}

	return m
}

// ObserveReceived counts records pushed on a stream.
func (m *Metrics) ObserveReceived(stream enum.Stream, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.received.WithLabelValues(stream.String()).Add(float64(n))
}

// ObserveCoalesced counts records dropped by deduplication.
func (m *Metrics) ObserveCoalesced(stream enum.Stream, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.coalesced.WithLabelValues(stream.String()).Add(float64(n))
}

// IncDispatched counts a table delivered to its callback.
func (m *Metrics) IncDispatched(table string) {
	if m == nil {
		return
	}
	m.dispatched.WithLabelValues(table).Inc()
}

func (m *Metrics) IncError(stream enum.Stream) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(stream.String()).Inc()
}

func (m *Metrics) ObserveBatch(stream enum.Stream, d time.Duration) {
	if m == nil || d < 0 {
		return
	}
	m.batchDuration.WithLabelValues(stream.String()).Observe(d.Seconds())
}

// SetConnected flips the hub connection gauge.
func (m *Metrics) SetConnected(up bool) {
	if m == nil {
		return
	}
	if up {
		m.connected.Set(1)
		return
	}
	m.connected.Set(0)
}
