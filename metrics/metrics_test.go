package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveUpdatesCollectors(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())

	m.Observe(Observation{
		RiskLevel:     2,
		Drawdown:      0.035,
		BreakerState:  1,
		ExposureScale: 0.75,
		VaR95:         -0.021,
		Breaches:      3,
	})
	m.Observe(Observation{RiskLevel: 0, ExposureScale: 1.0})

	assert.InDelta(t, 2.0, testutil.ToFloat64(m.CyclesTotal), 1e-12)
	assert.InDelta(t, 3.0, testutil.ToFloat64(m.BreachesTotal), 1e-12)
	assert.InDelta(t, 0.0, testutil.ToFloat64(m.RiskLevel), 1e-12)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.ExposureScale), 1e-12)
}

func TestNilMetricsIsNoOp(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() { m.Observe(Observation{Breaches: 1}) })
}
