package obs

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homebroker/internal/adapter/enum"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func labelValue(m *dto.Metric, name string) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}

func TestMetricsRegisterAndCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveReceived(enum.StreamBoard, 3)
	m.ObserveReceived(enum.StreamBoard, 2)
	m.ObserveCoalesced(enum.StreamBoard, 1)
	m.IncDispatched("securities")
	m.IncError(enum.StreamOrderBook)
	m.ObserveBatch(enum.StreamPortfolio, 2*time.Millisecond)
	m.SetConnected(true)

	families := gather(t, reg)

	received := families["homebroker_records_received_total"]
	require.NotNil(t, received)
	require.Len(t, received.GetMetric(), 1)
	assert.Equal(t, "board", labelValue(received.GetMetric()[0], "stream"))
	assert.Equal(t, 5.0, received.GetMetric()[0].GetCounter().GetValue())

	assert.Equal(t, 1.0, families["homebroker_records_coalesced_total"].GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, "securities", labelValue(families["homebroker_tables_dispatched_total"].GetMetric()[0], "table"))
	assert.Equal(t, "order_book", labelValue(families["homebroker_pipeline_errors_total"].GetMetric()[0], "stream"))
	assert.Equal(t, uint64(1), families["homebroker_batch_duration_seconds"].GetMetric()[0].GetHistogram().GetSampleCount())
	assert.Equal(t, 1.0, families["homebroker_hub_connected"].GetMetric()[0].GetGauge().GetValue())

	m.SetConnected(false)
	assert.Equal(t, 0.0, gather(t, reg)["homebroker_hub_connected"].GetMetric()[0].GetGauge().GetValue())
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveReceived(enum.StreamBoard, 1)
		m.ObserveCoalesced(enum.StreamBoard, 1)
		m.IncDispatched("options")
		m.IncError(enum.StreamBoard)
		m.ObserveBatch(enum.StreamBoard, time.Second)
		m.SetConnected(true)
	})
}

func TestNewMetricsWithoutRegisterer(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics(nil)
		NewMetrics(nil)
	})
}
