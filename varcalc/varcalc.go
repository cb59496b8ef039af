// Package varcalc computes Value-at-Risk and Conditional VaR (expected
// shortfall) from daily return series, using empirical quantiles, Gaussian
// closed forms, or correlated Student-t Monte Carlo simulation.
//
// All VaR/CVaR figures are signed fractions of portfolio value: negative
// means loss. Insufficient data never produces an error; it degrades to a
// weaker method and sets Result.Warning so callers can surface it.
package varcalc

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Method names accepted by Compute.
const (
	MethodHistorical = "historical"
	MethodParametric = "parametric"
	MethodMonteCarlo = "monte_carlo"
)

// DefaultMinObs is the observation count below which the historical method
// falls back to parametric (three years of daily data).
const DefaultMinObs = 756

// Result holds VaR/CVaR at the 95% and 99% confidence levels.
type Result struct {
	VaR95  float64
	VaR99  float64
	CVaR95 float64
	CVaR99 float64

	Method  string
	Obs     int
	Warning string
}

// Compute dispatches on method name. Unknown method names are a caller
// error; everything else degrades gracefully.
func Compute(returns []float64, method string, minObs int) (Result, error) {
	switch method {
	case MethodHistorical:
		return Historical(returns, minObs), nil
	case MethodParametric:
		return Parametric(returns), nil
	default:
		return Result{}, fmt.Errorf("unknown VaR method %q", method)
	}
}

// Historical computes empirical-quantile VaR and tail-mean CVaR. With fewer
// than minObs observations (default 756 when minObs <= 0) it falls back to
// the parametric method and records a warning; with fewer than 10 it returns
// a zero result.
func Historical(returns []float64, minObs int) Result {
	if minObs <= 0 {
		minObs = DefaultMinObs
	}
	n := len(returns)

	if n < 10 {
		return Result{
			Method:  MethodHistorical,
			Obs:     n,
			Warning: fmt.Sprintf("insufficient history: %d observations (minimum 10), VaR not computed", n),
		}
	}

	if n < minObs {
		r := Parametric(returns)
		r.Warning = fmt.Sprintf("insufficient history: %d observations (< %d), fell back to parametric", n, minObs)
		return r
	}

	sorted := make([]float64, n)
	copy(sorted, returns)
	sort.Float64s(sorted)

	var95 := empiricalQuantile(sorted, 0.05)
	var99 := empiricalQuantile(sorted, 0.01)

	return Result{
		VaR95:  var95,
		VaR99:  var99,
		CVaR95: tailMean(sorted, var95),
		CVaR99: tailMean(sorted, var99),
		Method: MethodHistorical,
		Obs:    n,
	}
}

// Parametric computes Gaussian VaR and the closed-form Gaussian expected
// shortfall. A numerically zero standard deviation degenerates to zeros.
func Parametric(returns []float64) Result {
	n := len(returns)
	if n == 0 {
		return Result{Method: MethodParametric, Warning: "no observations"}
	}

	mean, std := stat.MeanStdDev(returns, nil)
	if !(std > 1e-12) {
		return Result{Method: MethodParametric, Obs: n}
	}

	var95, cvar95 := gaussianVaR(mean, std, 0.95)
	var99, cvar99 := gaussianVaR(mean, std, 0.99)

	return Result{
		VaR95:  var95,
		VaR99:  var99,
		CVaR95: cvar95,
		CVaR99: cvar99,
		Method: MethodParametric,
		Obs:    n,
	}
}

// gaussianVaR returns (VaR, CVaR) at the given confidence for N(mean, std²).
// CVaR uses the Gaussian expected-shortfall identity
// ES = mean - std*phi(z)/(1-c) with z = Phi^-1(1-c).
func gaussianVaR(mean, std, confidence float64) (float64, float64) {
	alpha := 1 - confidence
	z := distuv.UnitNormal.Quantile(alpha)
	v := mean + std*z
	cv := mean - std*distuv.UnitNormal.Prob(z)/alpha
	return v, cv
}

// empiricalQuantile returns the p-quantile of an ascending-sorted slice with
// linear interpolation between adjacent order statistics.
func empiricalQuantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := p * float64(n-1)
	lo := int(pos)
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[lo+1]*frac
}

// tailMean returns the mean of all values at or below cutoff, or cutoff
// itself when the tail is empty.
func tailMean(sorted []float64, cutoff float64) float64 {
	var sum float64
	var count int
	for _, v := range sorted {
		if v > cutoff {
			break
		}
		sum += v
		count++
	}
	if count == 0 {
		return cutoff
	}
	return sum / float64(count)
}
