package monitor

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/macrodesk/riskengine/breaker"
	"github.com/macrodesk/riskengine/config"
	"github.com/macrodesk/riskengine/journal"
	"github.com/macrodesk/riskengine/limits"
)

// memJournal captures journal writes in memory.
type memJournal struct {
	events  []breaker.Event
	reports []journal.ReportRecord
}

func (j *memJournal) RecordEvent(ev breaker.Event) error {
	j.events = append(j.events, ev)
	return nil
}

func (j *memJournal) RecordReport(r journal.ReportRecord) error {
	j.reports = append(j.reports, r)
	return nil
}

func (j *memJournal) Close() error { return nil }

func testReturns(n int, seed uint64, vol float64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64() * vol
	}
	return out
}

func calmInput() Input {
	byAsset := map[string][]float64{
		"SPX":  testReturns(800, 1, 0.008),
		"GOLD": testReturns(800, 2, 0.006),
	}
	return Input{
		Time:             time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC),
		PortfolioReturns: testReturns(800, 3, 0.004),
		ReturnsByAsset:   byAsset,
		Weights:          map[string]float64{"SPX": 0.15, "GOLD": 0.10},
		MCSeed:           7,
		Book:             map[string]float64{"SPX": 150_000, "GOLD": 100_000},
		PortfolioValue:   1_000_000,
		Equity:           1_000_000,
		AssetClassOf:     map[string]string{"SPX": "equities", "GOLD": "commodities"},
	}
}

func TestEvaluateCalmPortfolio(t *testing.T) {
	t.Parallel()

	j := &memJournal{}
	m := New(nil, Deps{Journal: j, Logger: zerolog.Nop()})

	rep := m.Evaluate(calmInput())

	assert.Equal(t, LevelLow, rep.Level)
	assert.Equal(t, limits.StatusOK, rep.LimitStatus)
	assert.Zero(t, rep.BreachCount())
	assert.Empty(t, rep.TrackerEvents)

	// All three VaR methods ran.
	assert.Equal(t, "historical", rep.Historical.Method)
	assert.Equal(t, "parametric", rep.Parametric.Method)
	require.NotNil(t, rep.MonteCarlo)
	assert.Less(t, rep.MonteCarlo.VaR95, 0.0)

	// Six scenarios, with a worst case selected.
	require.Len(t, rep.Stress, 6)
	require.NotNil(t, rep.Worst)

	// Breaker ran in Normal at full exposure.
	require.True(t, rep.BreakerRan)
	assert.Equal(t, breaker.Normal, rep.Breaker.State)
	assert.InDelta(t, 1.0, rep.Breaker.ExposureScale, 1e-12)

	// One report journaled, no events.
	require.Len(t, j.reports, 1)
	assert.Equal(t, "LOW", j.reports[0].RiskLevel)
	assert.Empty(t, j.events)
}

func TestEvaluateCriticalOnLeverageBreach(t *testing.T) {
	t.Parallel()

	m := New(nil, Deps{Logger: zerolog.Nop()})

	in := calmInput()
	// 4x gross leverage against the 3x default limit.
	in.Weights = map[string]float64{"SPX": 2.0, "GOLD": -2.0}

	rep := m.Evaluate(in)

	assert.Equal(t, LevelCritical, rep.Level)
	assert.Equal(t, limits.StatusBreached, rep.LimitStatus)
	assert.Greater(t, rep.BreachCount(), 0)
}

func TestEvaluateTrackerBreachJournaled(t *testing.T) {
	t.Parallel()

	j := &memJournal{}
	m := New(nil, Deps{Journal: j, Logger: zerolog.Nop()})

	in := calmInput()
	in.StrategyDailyPnL = map[string]float64{"rates_br": -0.03}
	in.DailyPnL = -0.005

	rep := m.Evaluate(in)

	assert.Equal(t, LevelCritical, rep.Level)
	require.Len(t, rep.TrackerEvents, 1)
	assert.Equal(t, "strategy_loss", rep.TrackerEvents[0].Type)
	assert.Equal(t, "rates_br", rep.TrackerEvents[0].Key)

	require.Len(t, j.events, 1)
	assert.Equal(t, rep.TrackerEvents[0].ID, j.events[0].ID)
	require.Len(t, j.reports, 1)
	assert.Equal(t, "CRITICAL", j.reports[0].RiskLevel)
}

func TestEvaluateBreakerEscalationRaisesLevel(t *testing.T) {
	t.Parallel()

	m := New(nil, Deps{Logger: zerolog.Nop()})

	in := calmInput()
	rep := m.Evaluate(in)
	require.Equal(t, breaker.Normal, rep.Breaker.State)

	// 4% drawdown: breaker trips L1, level is High even with limits OK.
	in.Equity = 960_000
	in.PortfolioReturns = nil
	in.ReturnsByAsset = nil
	rep = m.Evaluate(in)

	assert.Equal(t, breaker.L1Triggered, rep.Breaker.State)
	assert.InDelta(t, 0.75, rep.Breaker.ExposureScale, 1e-12)
	assert.Equal(t, LevelHigh, rep.Level)
}

func TestEvaluateThinInput(t *testing.T) {
	t.Parallel()

	m := New(nil, Deps{Logger: zerolog.Nop()})

	rep := m.Evaluate(Input{})

	assert.False(t, rep.BreakerRan)
	assert.Nil(t, rep.MonteCarlo)
	assert.Empty(t, rep.Stress)
	assert.Empty(t, rep.Limits)
	assert.Equal(t, LevelLow, rep.Level)
	assert.NotEmpty(t, rep.Warnings) // insufficient history
}

func TestEvaluateBudgetReport(t *testing.T) {
	t.Parallel()

	m := New(nil, Deps{Logger: zerolog.Nop()})

	in := calmInput()
	in.RiskContributions = map[string]float64{"SPX": 0.25, "GOLD": 0.10}

	rep := m.Evaluate(in)

	require.NotNil(t, rep.Budget)
	assert.False(t, rep.Budget.Skipped)
	// SPX exceeds the 0.20 per-position budget.
	assert.True(t, rep.Budget.Breached)
	assert.Equal(t, LevelCritical, rep.Level)
}

func TestRenderDeterministic(t *testing.T) {
	t.Parallel()

	m := New(nil, Deps{Logger: zerolog.Nop()})

	in := calmInput()
	in.RiskContributions = map[string]float64{"SPX": 0.10, "GOLD": 0.05}
	rep := m.Evaluate(in)

	first := rep.Render()
	assert.Equal(t, first, rep.Render())

	assert.Contains(t, first, "RISK REPORT")
	assert.Contains(t, first, "VALUE AT RISK")
	assert.Contains(t, first, "STRESS SCENARIOS")
	assert.Contains(t, first, "LIMIT UTILIZATION")
	assert.Contains(t, first, "RISK BUDGET")
	assert.Contains(t, first, "CIRCUIT BREAKER")
	assert.Contains(t, first, "monte_carlo")
}

func TestSetScenarios(t *testing.T) {
	t.Parallel()

	m := New(config.Default(), Deps{Logger: zerolog.Nop()})
	require.Len(t, m.Scenarios(), 6)

	m.SetScenarios(m.Scenarios()[:2])
	rep := m.Evaluate(calmInput())
	assert.Len(t, rep.Stress, 2)
}
