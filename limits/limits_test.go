package limits

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManager(DefaultLimits(), zerolog.Nop())
}

func resultByName(t *testing.T, results []CheckResult, name string) CheckResult {
	t.Helper()
	for _, r := range results {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("no result named %s", name)
	return CheckResult{}
}

func TestCheckAllSkipsAbsentInputs(t *testing.T) {
	t.Parallel()

	m := newTestManager()

	// Only VaR95 supplied: exactly one check runs.
	results := m.CheckAll(Snapshot{VaR95: Float(-0.01)})
	require.Len(t, results, 1)
	assert.Equal(t, LimitVaR95, results[0].Name)
	assert.False(t, results[0].Breached)
	assert.InDelta(t, 40.0, results[0].Utilization, 1e-9)

	// Empty snapshot: nothing to check, nothing breached.
	assert.Empty(t, m.CheckAll(Snapshot{}))
	assert.Equal(t, StatusOK, m.Status())
}

func TestLeverageUtilizationAndBreach(t *testing.T) {
	t.Parallel()

	m := newTestManager()

	// Gross leverage 4x against a 3x limit: breached at ~133%.
	results := m.CheckAll(Snapshot{Leverage: Float(4.0)})
	r := resultByName(t, results, LimitLeverage)
	assert.True(t, r.Breached)
	assert.InDelta(t, 133.33, r.Utilization, 0.01)
	assert.Equal(t, StatusBreached, m.Status())

	// Against a 5x limit the same book is fine.
	loose := DefaultLimits()
	loose.MaxLeverage = 5.0
	m2 := NewManager(loose, zerolog.Nop())
	results = m2.CheckAll(Snapshot{Leverage: Float(4.0)})
	r = resultByName(t, results, LimitLeverage)
	assert.False(t, r.Breached)
	assert.InDelta(t, 80.0, r.Utilization, 1e-9)
}

func TestVaRLimitUsesAbsoluteValue(t *testing.T) {
	t.Parallel()

	m := newTestManager()

	results := m.CheckAll(Snapshot{VaR95: Float(-0.03)})
	r := resultByName(t, results, LimitVaR95)
	assert.True(t, r.Breached)
	assert.InDelta(t, 120.0, r.Utilization, 1e-9)
	assert.InDelta(t, -0.03, r.Current, 1e-12)
}

func TestMapLimitsReportWorstKey(t *testing.T) {
	t.Parallel()

	m := newTestManager()

	snap := Snapshot{
		Weights: map[string]float64{
			"SPX":    0.10,
			"USDBRL": -0.30, // largest absolute, over the 0.25 limit
			"GOLD":   0.05,
		},
		StrategyDailyPnL: map[string]float64{
			"fx_carry": -0.01,
			"rates_br": -0.025, // worst loss, over the 0.02 limit
		},
	}

	results := m.CheckAll(snap)

	w := resultByName(t, results, LimitPositionWeight)
	assert.True(t, w.Breached)
	assert.Equal(t, "USDBRL", w.Detail)

	s := resultByName(t, results, LimitStrategyLoss)
	assert.True(t, s.Breached)
	assert.Equal(t, "rates_br", s.Detail)
}

func TestStrategyLossLimitIgnoresProfits(t *testing.T) {
	t.Parallel()

	m := newTestManager()

	// All strategies profitable: the loss limit is skipped entirely.
	results := m.CheckAll(Snapshot{StrategyDailyPnL: map[string]float64{"a": 0.01, "b": 0.02}})
	assert.Empty(t, results)
}

func TestStatusWarningAboveEightyPercent(t *testing.T) {
	t.Parallel()

	m := newTestManager()

	m.CheckAll(Snapshot{Leverage: Float(2.5)}) // 83% of 3x
	assert.Equal(t, StatusWarning, m.Status())
}

func TestCheckPreTradeDoesNotMutate(t *testing.T) {
	t.Parallel()

	m := newTestManager()

	snap := Snapshot{
		Weights:  map[string]float64{"SPX": 0.2, "GOLD": 0.1},
		Leverage: Float(0.3),
	}
	m.CheckAll(snap)
	require.Equal(t, StatusOK, m.Status())

	// A proposed +2.8 weight in SPX would blow through leverage and
	// position-weight limits.
	results, err := m.CheckPreTrade(snap, "SPX", 2.8)
	require.NoError(t, err)

	lev := resultByName(t, results, LimitLeverage)
	assert.True(t, lev.Breached)
	assert.InDelta(t, 3.1, lev.Current, 1e-9)
	pw := resultByName(t, results, LimitPositionWeight)
	assert.True(t, pw.Breached)
	assert.Equal(t, "SPX", pw.Detail)

	// Caller's snapshot and the manager's remembered state are untouched.
	assert.InDelta(t, 0.2, snap.Weights["SPX"], 1e-12)
	assert.InDelta(t, 0.3, *snap.Leverage, 1e-12)
	assert.Equal(t, StatusOK, m.Status())
}

func TestCheckPreTradeRequiresInstrument(t *testing.T) {
	t.Parallel()

	_, err := newTestManager().CheckPreTrade(Snapshot{}, "", 0.1)
	assert.Error(t, err)
}

func TestZeroLimitsFallBackToDefaults(t *testing.T) {
	t.Parallel()

	m := NewManager(Limits{}, zerolog.Nop())
	assert.InDelta(t, 3.0, m.Limits().MaxLeverage, 1e-12)
}
