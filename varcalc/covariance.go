package varcalc

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// eigenFloor is the smallest eigenvalue admitted when repairing a
// non-positive-definite correlation matrix before Cholesky factorization.
const eigenFloor = 1e-8

// alignReturns turns a per-asset return map into a dense observation matrix
// with one column per asset, sorted by name so every downstream computation
// is deterministic. Series of different lengths are truncated to the most
// recent common window.
func alignReturns(returns map[string][]float64) ([]string, *mat.Dense, error) {
	if len(returns) == 0 {
		return nil, nil, fmt.Errorf("no return series supplied")
	}

	names := make([]string, 0, len(returns))
	for name := range returns {
		names = append(names, name)
	}
	sort.Strings(names)

	minLen := -1
	for _, name := range names {
		if n := len(returns[name]); minLen < 0 || n < minLen {
			minLen = n
		}
	}
	if minLen < 2 {
		return nil, nil, fmt.Errorf("return series too short to align: %d common observations", minLen)
	}

	m := mat.NewDense(minLen, len(names), nil)
	for j, name := range names {
		series := returns[name]
		offset := len(series) - minLen
		for i := 0; i < minLen; i++ {
			m.Set(i, j, series[offset+i])
		}
	}
	return names, m, nil
}

// LedoitWolf estimates a shrinkage covariance matrix from an observation
// matrix (rows = days, cols = assets), blending the sample covariance with a
// scaled-identity target. The shrinkage intensity follows Ledoit & Wolf's
// well-conditioned estimator.
func LedoitWolf(samples *mat.Dense) *mat.SymDense {
	n, p := samples.Dims()

	// Center columns.
	centered := mat.NewDense(n, p, nil)
	for j := 0; j < p; j++ {
		var mean float64
		for i := 0; i < n; i++ {
			mean += samples.At(i, j)
		}
		mean /= float64(n)
		for i := 0; i < n; i++ {
			centered.Set(i, j, samples.At(i, j)-mean)
		}
	}

	// Sample covariance (ML normalization, 1/n).
	s := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			var sum float64
			for k := 0; k < n; k++ {
				sum += centered.At(k, i) * centered.At(k, j)
			}
			s.SetSym(i, j, sum/float64(n))
		}
	}

	// Target: mu * I with mu = trace(S)/p.
	var mu float64
	for i := 0; i < p; i++ {
		mu += s.At(i, i)
	}
	mu /= float64(p)

	// d2 = ||S - mu I||_F^2 / p
	var d2 float64
	for i := 0; i < p; i++ {
		for j := 0; j < p; j++ {
			diff := s.At(i, j)
			if i == j {
				diff -= mu
			}
			d2 += diff * diff
		}
	}
	d2 /= float64(p)

	// b2 = min(d2, mean squared distance of per-day outer products from S)
	var b2 float64
	for k := 0; k < n; k++ {
		var dist float64
		for i := 0; i < p; i++ {
			for j := 0; j < p; j++ {
				diff := centered.At(k, i)*centered.At(k, j) - s.At(i, j)
				dist += diff * diff
			}
		}
		b2 += dist / float64(p)
	}
	b2 /= float64(n) * float64(n)
	if b2 > d2 {
		b2 = d2
	}

	var delta float64
	if d2 > 0 {
		delta = b2 / d2
	}

	out := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			v := (1 - delta) * s.At(i, j)
			if i == j {
				v += delta * mu
			}
			out.SetSym(i, j, v)
		}
	}
	return out
}

// correlationFromCov converts a covariance matrix to a correlation matrix.
// Zero-variance assets get zero correlation rows with a unit diagonal.
func correlationFromCov(cov *mat.SymDense) *mat.SymDense {
	p := cov.SymmetricDim()
	corr := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			if i == j {
				corr.SetSym(i, j, 1)
				continue
			}
			denom := math.Sqrt(cov.At(i, i) * cov.At(j, j))
			if denom > 0 {
				corr.SetSym(i, j, cov.At(i, j)/denom)
			}
		}
	}
	return corr
}

// choleskyFactor factorizes a correlation matrix, repairing it via an
// eigenvalue floor and diagonal renormalization when it is not positive
// definite.
func choleskyFactor(corr *mat.SymDense) (*mat.Cholesky, error) {
	var chol mat.Cholesky
	if chol.Factorize(corr) {
		return &chol, nil
	}

	repaired, err := floorEigenvalues(corr)
	if err != nil {
		return nil, err
	}
	if !chol.Factorize(repaired) {
		return nil, fmt.Errorf("correlation matrix not positive definite after eigenvalue repair")
	}
	return &chol, nil
}

// floorEigenvalues clamps the eigenvalues of a symmetric matrix at
// eigenFloor, reconstructs it, and renormalizes to a unit diagonal.
func floorEigenvalues(sym *mat.SymDense) (*mat.SymDense, error) {
	p := sym.SymmetricDim()

	var eig mat.EigenSym
	if !eig.Factorize(sym, true) {
		return nil, fmt.Errorf("eigendecomposition failed")
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	for i, v := range values {
		if v < eigenFloor {
			values[i] = eigenFloor
		}
	}

	// Q * diag(values) * Q^T
	rebuilt := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			var sum float64
			for k := 0; k < p; k++ {
				sum += vectors.At(i, k) * values[k] * vectors.At(j, k)
			}
			rebuilt.SetSym(i, j, sum)
		}
	}

	// Renormalize so the diagonal is exactly 1 again.
	out := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			denom := math.Sqrt(rebuilt.At(i, i) * rebuilt.At(j, j))
			if denom > 0 {
				out.SetSym(i, j, rebuilt.At(i, j)/denom)
			} else if i == j {
				out.SetSym(i, j, 1)
			}
		}
	}
	return out, nil
}
