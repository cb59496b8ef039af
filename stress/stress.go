package stress

import (
	"fmt"
	"math"
	"strings"
)

// Result is the outcome of applying one scenario to a position book.
// Purely advisory: the book itself is never modified.
type Result struct {
	Scenario string

	TotalPnL        float64
	PctOfPortfolio  float64
	PnLByInstrument map[string]float64

	WorstInstrument string
	WorstPnL        float64

	Impacted   int
	Unaffected int

	Warning string
}

// Apply runs a single scenario over a book of signed notionals. Shocks
// resolve by exact instrument match first, then by longest prefix; positions
// with no matching shock contribute zero P&L and count as unaffected. When
// portfolioValue is not positive, the sum of absolute notionals is used as
// the percentage denominator.
func Apply(s Scenario, book map[string]float64, portfolioValue float64) Result {
	res := Result{
		Scenario:        s.Name,
		PnLByInstrument: make(map[string]float64, len(book)),
	}

	worstSet := false
	for instrument, notional := range book {
		shock, ok := resolveShock(s.Shocks, instrument)
		if !ok {
			res.PnLByInstrument[instrument] = 0
			res.Unaffected++
			continue
		}

		pnl := notional * shock
		res.PnLByInstrument[instrument] = pnl
		res.TotalPnL += pnl
		res.Impacted++

		if !worstSet || pnl < res.WorstPnL {
			res.WorstInstrument = instrument
			res.WorstPnL = pnl
			worstSet = true
		}
	}

	denom := portfolioValue
	if denom <= 0 {
		for _, notional := range book {
			denom += math.Abs(notional)
		}
	}
	if denom > 0 {
		res.PctOfPortfolio = res.TotalPnL / denom
	}

	if len(book) > 0 && res.Unaffected*2 > len(book) {
		res.Warning = fmt.Sprintf("scenario %s covers only %d of %d positions", s.Name, res.Impacted, len(book))
	}

	return res
}

// RunAll applies every scenario independently and returns one result per
// scenario, in input order.
func RunAll(scenarios []Scenario, book map[string]float64, portfolioValue float64) []Result {
	out := make([]Result, len(scenarios))
	for i, s := range scenarios {
		out[i] = Apply(s, book, portfolioValue)
	}
	return out
}

// WorstCase picks the result with the most negative portfolio P&L. An empty
// result set is a caller contract violation.
func WorstCase(results []Result) (Result, error) {
	if len(results) == 0 {
		return Result{}, fmt.Errorf("worst case: no stress results supplied")
	}
	worst := results[0]
	for _, r := range results[1:] {
		if r.TotalPnL < worst.TotalPnL {
			worst = r
		}
	}
	return worst, nil
}

// resolveShock finds the shock for an instrument: exact key match wins, then
// the longest prefix key.
func resolveShock(shocks map[string]float64, instrument string) (float64, bool) {
	if shock, ok := shocks[instrument]; ok {
		return shock, true
	}

	bestLen := -1
	var best float64
	for key, shock := range shocks {
		if strings.HasPrefix(instrument, key) && len(key) > bestLen {
			bestLen = len(key)
			best = shock
		}
	}
	return best, bestLen >= 0
}
