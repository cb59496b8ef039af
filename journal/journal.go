// Package journal persists circuit-breaker events and per-cycle report
// summaries to SQLite or CSV. The engine itself keeps no durable state; a
// journal is an optional sink wired in by the caller.
package journal

import (
	"time"

	"github.com/macrodesk/riskengine/breaker"
)

// ReportRecord is the flattened per-cycle summary written for each risk
// report. Full reports stay in memory with the caller; the journal keeps
// only the numbers the desk greps for after the fact.
type ReportRecord struct {
	Time      time.Time
	RiskLevel string

	VaR95  float64
	CVaR95 float64
	VaR99  float64
	CVaR99 float64

	WorstScenario    string
	WorstScenarioPnL float64

	BreachCount   int
	BreakerState  string
	Drawdown      float64
	ExposureScale float64
}

type Journal interface {
	RecordEvent(breaker.Event) error
	RecordReport(ReportRecord) error
	Close() error
}
