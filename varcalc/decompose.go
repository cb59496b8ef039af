package varcalc

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DecompMethod selects how marginal VaR is computed.
type DecompMethod int

const (
	// DecompAnalytic differentiates the parametric VaR formula against the
	// Ledoit-Wolf covariance.
	DecompAnalytic DecompMethod = iota
	// DecompFiniteDiff uses a symmetric finite difference of parametric VaR
	// under perturbed weights. Slower, but robust to ill-conditioned
	// covariance matrices.
	DecompFiniteDiff
)

// fdStep is the weight perturbation used by DecompFiniteDiff.
const fdStep = 1e-3

// Decomposition maps each instrument to its marginal VaR (sensitivity of
// total VaR to a small weight change) and component VaR (weight-scaled
// contribution). Component VaRs sum to TotalVaR; percentage contributions
// sum to 1.
type Decomposition struct {
	TotalVaR   float64
	Confidence float64

	Marginal        map[string]float64
	Component       map[string]float64
	PctContribution map[string]float64
}

// Decompose computes a marginal/component VaR decomposition of the
// parametric portfolio VaR at the given confidence. Every instrument in the
// return map must have a weight; a missing weight is a caller error.
func Decompose(returns map[string][]float64, weights map[string]float64, confidence float64, method DecompMethod) (Decomposition, error) {
	if confidence <= 0 || confidence >= 1 {
		return Decomposition{}, fmt.Errorf("decompose: confidence must be in (0, 1), got %v", confidence)
	}

	names, samples, err := alignReturns(returns)
	if err != nil {
		return Decomposition{}, fmt.Errorf("decompose: %w", err)
	}
	for _, name := range names {
		if _, ok := weights[name]; !ok {
			return Decomposition{}, fmt.Errorf("decompose: no weight for instrument %q", name)
		}
	}

	p := len(names)
	n, _ := samples.Dims()

	mu := make([]float64, p)
	for j := 0; j < p; j++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += samples.At(i, j)
		}
		mu[j] = sum / float64(n)
	}

	cov := LedoitWolf(samples)
	w := make([]float64, p)
	for i, name := range names {
		w[i] = weights[name]
	}

	sigmaP := portfolioVol(cov, w)
	d := Decomposition{
		Confidence:      confidence,
		Marginal:        make(map[string]float64, p),
		Component:       make(map[string]float64, p),
		PctContribution: make(map[string]float64, p),
	}
	if !(sigmaP > 1e-12) {
		for _, name := range names {
			d.Marginal[name] = 0
			d.Component[name] = 0
			d.PctContribution[name] = 0
		}
		return d, nil
	}

	z := distuv.UnitNormal.Quantile(1 - confidence)

	var muP float64
	for i := range w {
		muP += w[i] * mu[i]
	}
	d.TotalVaR = muP + z*sigmaP

	for i, name := range names {
		var marginal float64
		switch method {
		case DecompFiniteDiff:
			marginal = fdMarginal(cov, mu, w, i, z)
		default:
			// dVaR/dw_i = mu_i + z * (Sigma w)_i / sigma_p
			var cw float64
			for j := 0; j < p; j++ {
				cw += cov.At(i, j) * w[j]
			}
			marginal = mu[i] + z*cw/sigmaP
		}

		component := w[i] * marginal
		d.Marginal[name] = marginal
		d.Component[name] = component
		if d.TotalVaR != 0 {
			d.PctContribution[name] = component / d.TotalVaR
		}
	}

	return d, nil
}

// fdMarginal computes the symmetric finite difference of parametric VaR with
// respect to weight i.
func fdMarginal(cov *mat.SymDense, mu, w []float64, i int, z float64) float64 {
	up := make([]float64, len(w))
	down := make([]float64, len(w))
	copy(up, w)
	copy(down, w)
	up[i] += fdStep
	down[i] -= fdStep

	vUp := parametricVaRAt(cov, mu, up, z)
	vDown := parametricVaRAt(cov, mu, down, z)
	return (vUp - vDown) / (2 * fdStep)
}

func parametricVaRAt(cov *mat.SymDense, mu, w []float64, z float64) float64 {
	var muP float64
	for i := range w {
		muP += w[i] * mu[i]
	}
	return muP + z*portfolioVol(cov, w)
}

func portfolioVol(cov *mat.SymDense, w []float64) float64 {
	var variance float64
	p := len(w)
	for i := 0; i < p; i++ {
		for j := 0; j < p; j++ {
			variance += w[i] * w[j] * cov.At(i, j)
		}
	}
	if variance < 0 {
		return 0
	}
	return math.Sqrt(variance)
}
