// Package metrics exposes the monitor's per-cycle observations as
// prometheus collectors. Registration is optional; a nil *Metrics is a
// no-op sink.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	CyclesTotal   prometheus.Counter
	BreachesTotal prometheus.Counter

	RiskLevel     prometheus.Gauge
	Drawdown      prometheus.Gauge
	BreakerState  prometheus.Gauge
	ExposureScale prometheus.Gauge
	VaR95         prometheus.Gauge
}

// New builds and registers the collectors. Pass prometheus.DefaultRegisterer
// for the usual global registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "risk_monitor_cycles_total",
			Help: "Completed risk evaluation cycles.",
		}),
		BreachesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "risk_limit_breaches_total",
			Help: "Limit breaches observed across all cycles.",
		}),
		RiskLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "risk_overall_level",
			Help: "Classified risk level: 0 low, 1 moderate, 2 high, 3 critical.",
		}),
		Drawdown: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "risk_current_drawdown",
			Help: "Current drawdown from the equity high-water mark.",
		}),
		BreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "risk_breaker_state",
			Help: "Circuit breaker state ordinal (0 normal .. 5 recovering).",
		}),
		ExposureScale: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "risk_exposure_scale",
			Help: "Target exposure scale set by the circuit breaker.",
		}),
		VaR95: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "risk_var_95",
			Help: "Latest 95% historical VaR (negative means loss).",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.CyclesTotal, m.BreachesTotal, m.RiskLevel,
			m.Drawdown, m.BreakerState, m.ExposureScale, m.VaR95)
	}
	return m
}

// Observation is one cycle's worth of gauge updates.
type Observation struct {
	RiskLevel     int
	Drawdown      float64
	BreakerState  int
	ExposureScale float64
	VaR95         float64
	Breaches      int
}

// Observe applies one cycle's observation. Safe on a nil receiver.
func (m *Metrics) Observe(o Observation) {
	if m == nil {
		return
	}
	m.CyclesTotal.Inc()
	m.BreachesTotal.Add(float64(o.Breaches))
	m.RiskLevel.Set(float64(o.RiskLevel))
	m.Drawdown.Set(o.Drawdown)
	m.BreakerState.Set(float64(o.BreakerState))
	m.ExposureScale.Set(o.ExposureScale)
	m.VaR95.Set(o.VaR95)
}
