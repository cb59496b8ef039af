package stress

import "math"

// Bisection bounds for the reverse stress multiplier search.
const (
	reverseMinMultiplier = 0.01
	reverseMaxMultiplier = 5.0
	reverseMaxIterations = 100
	reverseTolerance     = 1e-5
)

// Infeasibility reasons reported by Reverse.
const (
	ReasonNoExposure    = "no exposure to scenario shock keys"
	ReasonHedged        = "book is hedged against this scenario"
	ReasonBeyondMax     = "target loss unreachable even at maximum multiplier"
	ReasonBelowMin      = "loss already exceeds target at minimum multiplier"
	ReasonTargetNotLoss = "target must be a loss (negative percentage)"
)

// ReverseResult reports the calibrated multiplier for one scenario, or why
// no multiplier can reach the target.
type ReverseResult struct {
	Scenario        string
	Feasible        bool
	Multiplier      float64
	AchievedLossPct float64
	Reason          string
}

// Reverse searches, for each scenario, for the scalar k in [0.01, 5] such
// that applying k-scaled shocks to the book loses exactly targetLossPct of
// portfolio value (targetLossPct is negative, e.g. -0.10 for a 10% loss).
// Infeasible scenarios are reported explicitly, never clamped.
func Reverse(scenarios []Scenario, book map[string]float64, portfolioValue float64, targetLossPct float64) []ReverseResult {
	out := make([]ReverseResult, len(scenarios))
	for i, s := range scenarios {
		out[i] = reverseOne(s, book, portfolioValue, targetLossPct)
	}
	return out
}

func reverseOne(s Scenario, book map[string]float64, portfolioValue, target float64) ReverseResult {
	res := ReverseResult{Scenario: s.Name}

	if target >= 0 {
		res.Reason = ReasonTargetNotLoss
		return res
	}

	lossAt := func(k float64) float64 {
		return Apply(scaled(s, k), book, portfolioValue).PctOfPortfolio
	}

	base := Apply(s, book, portfolioValue)
	if base.Impacted == 0 {
		res.Reason = ReasonNoExposure
		return res
	}
	if base.PctOfPortfolio >= 0 {
		res.Reason = ReasonHedged
		return res
	}

	atMax := lossAt(reverseMaxMultiplier)
	if atMax > target {
		res.Reason = ReasonBeyondMax
		return res
	}
	atMin := lossAt(reverseMinMultiplier)
	if atMin < target {
		res.Reason = ReasonBelowMin
		return res
	}

	lo, hi := reverseMinMultiplier, reverseMaxMultiplier
	var k, achieved float64
	for i := 0; i < reverseMaxIterations; i++ {
		k = (lo + hi) / 2
		achieved = lossAt(k)
		if math.Abs(achieved-target) <= reverseTolerance {
			break
		}
		if achieved > target {
			// Not enough loss yet, scale up.
			lo = k
		} else {
			hi = k
		}
	}

	res.Feasible = true
	res.Multiplier = k
	res.AchievedLossPct = achieved
	return res
}

// scaled returns a copy of the scenario with every shock multiplied by k.
func scaled(s Scenario, k float64) Scenario {
	c := copyScenario(s)
	for key := range c.Shocks {
		c.Shocks[key] *= k
	}
	return c
}
