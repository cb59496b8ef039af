package varcalc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecomposeComponentsSumToTotal(t *testing.T) {
	t.Parallel()

	returns := correlatedReturns(500, 13)
	weights := map[string]float64{"SPX": 0.5, "IBOV": 0.3, "GOLD": 0.2}

	for _, method := range []DecompMethod{DecompAnalytic, DecompFiniteDiff} {
		d, err := Decompose(returns, weights, 0.95, method)
		require.NoError(t, err)
		require.Len(t, d.Component, 3)

		var sum, pctSum float64
		for name, c := range d.Component {
			sum += c
			pctSum += d.PctContribution[name]
		}

		assert.Less(t, d.TotalVaR, 0.0)
		// Euler decomposition: components reconstruct the total.
		assert.InDelta(t, d.TotalVaR, sum, math.Abs(d.TotalVaR)*0.02)
		assert.InDelta(t, 1.0, pctSum, 0.01)
	}
}

func TestDecomposeAnalyticMatchesFiniteDiff(t *testing.T) {
	t.Parallel()

	returns := correlatedReturns(400, 29)
	weights := map[string]float64{"SPX": 0.4, "IBOV": 0.4, "GOLD": 0.2}

	analytic, err := Decompose(returns, weights, 0.99, DecompAnalytic)
	require.NoError(t, err)
	fd, err := Decompose(returns, weights, 0.99, DecompFiniteDiff)
	require.NoError(t, err)

	for name := range weights {
		assert.InDelta(t, analytic.Marginal[name], fd.Marginal[name], math.Abs(analytic.Marginal[name])*0.05+1e-6)
	}
}

func TestDecomposeInputValidation(t *testing.T) {
	t.Parallel()

	returns := correlatedReturns(100, 1)

	_, err := Decompose(returns, map[string]float64{"SPX": 1}, 1.5, DecompAnalytic)
	assert.Error(t, err)

	// GOLD has no weight.
	_, err = Decompose(returns, map[string]float64{"SPX": 0.5, "IBOV": 0.5}, 0.95, DecompAnalytic)
	assert.Error(t, err)
}

func TestDecomposeZeroVolatility(t *testing.T) {
	t.Parallel()

	flat := make([]float64, 50)
	returns := map[string][]float64{"A": flat, "B": flat}
	weights := map[string]float64{"A": 0.5, "B": 0.5}

	d, err := Decompose(returns, weights, 0.95, DecompAnalytic)
	require.NoError(t, err)

	assert.Zero(t, d.TotalVaR)
	assert.Zero(t, d.Component["A"])
	assert.Zero(t, d.Component["B"])
}
