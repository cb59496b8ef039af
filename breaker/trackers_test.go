package breaker

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrategyLossTrackerBreaches(t *testing.T) {
	t.Parallel()

	d := &captureDispatcher{}
	tr := NewStrategyLossTracker(0.02, d, zerolog.Nop())

	pnl := map[string]float64{
		"rates_br":  -0.025, // breach
		"fx_carry":  -0.019, // inside the limit
		"eq_ls":     0.01,
		"commodity": -0.02, // exactly at the limit breaches
	}
	positions := map[string]float64{"DI_PRE_JAN27": 1_000_000}

	events := tr.Check(pnl, positions)
	require.Len(t, events, 2)

	// Sorted key order: commodity before rates_br.
	assert.Equal(t, "commodity", events[0].Key)
	assert.Equal(t, "rates_br", events[1].Key)

	for _, ev := range events {
		assert.Equal(t, "strategy_loss", ev.Type)
		assert.NotEmpty(t, ev.ID)
		assert.Equal(t, positions, ev.Positions)
	}
	assert.InDelta(t, -0.025, events[1].PnL, 1e-12)
	assert.InDelta(t, 0.025, events[1].Drawdown, 1e-12)

	assert.Len(t, d.events, 2)
}

func TestAssetClassLossTracker(t *testing.T) {
	t.Parallel()

	tr := NewAssetClassLossTracker(0.03, nil, zerolog.Nop())

	events := tr.Check(map[string]float64{"em_rates": -0.05, "equities": -0.01}, nil)
	require.Len(t, events, 1)
	assert.Equal(t, "asset_class_loss", events[0].Type)
	assert.Equal(t, "em_rates", events[0].Key)
}

func TestLossTrackerDisabledOrEmpty(t *testing.T) {
	t.Parallel()

	assert.Nil(t, NewStrategyLossTracker(0, nil, zerolog.Nop()).Check(map[string]float64{"a": -1}, nil))
	assert.Nil(t, NewStrategyLossTracker(0.02, nil, zerolog.Nop()).Check(nil, nil))
}
