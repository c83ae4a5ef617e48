package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	require.NoError(t, m.Track("fx:warmup").End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("fx:warmup").End(boom), boom)
	m.AddWarmedRates(4)
	m.AddWarmedRates(0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("fx:warmup", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("fx:warmup", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("fx:warmup")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.warmed))
}

func TestNilMetricsTracker(t *testing.T) {
	var m *Metrics
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("fx:warmup").End(boom), boom)
	m.AddWarmedRates(2)
}
