package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveConversion("success")
	m.ObserveConversion("success")
	m.ObserveConversion("unknown_currency")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ConversionsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConversionsTotal.WithLabelValues("unknown_currency")))

	m.ObserveImport(42, nil)
	m.ObserveImport(0, errors.New("feed down"))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.SnapshotsImported))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImportRunsTotal.WithLabelValues("error")))

	m.ObserveCache(true)
	m.ObserveCache(false)
	m.ObserveCache(false)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookupsTotal.WithLabelValues("miss")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveConversion("success")
		m.ObserveAlignment(3)
		m.ObserveImport(1, nil)
		m.ObserveCache(true)
		m.ObserveHTTP("/convert", "GET", "2xx", 0.01)
	})
}
