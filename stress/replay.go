package stress

import (
	"fmt"
	"math"
)

// ReplayWindow is a realized crisis window: per-instrument daily returns
// over a shared sequence of dates. Instruments with shorter histories are
// padded with zero returns at the front.
type ReplayWindow struct {
	Name    string
	Dates   []string
	Returns map[string][]float64
}

// ReplayResult reports the cumulative P&L path of a book through a replay
// window, and the worst drawdown day's breakdown.
type ReplayResult struct {
	Window string
	Days   int

	CumulativePnL []float64
	TotalPnL      float64

	WorstDay       int
	WorstDayDate   string
	WorstDayPnL    float64
	WorstBreakdown map[string]float64

	PctOfPortfolio float64
}

// Replay marks the book through the window's realized returns day by day.
// Each day's P&L is the sum over instruments of notional times that day's
// return; the worst day is the one with the deepest cumulative P&L.
func Replay(w ReplayWindow, book map[string]float64, portfolioValue float64) (ReplayResult, error) {
	days := len(w.Dates)
	if days == 0 {
		for _, series := range w.Returns {
			if len(series) > days {
				days = len(series)
			}
		}
	}
	if days == 0 {
		return ReplayResult{}, fmt.Errorf("replay %s: window has no days", w.Name)
	}

	res := ReplayResult{
		Window:        w.Name,
		Days:          days,
		CumulativePnL: make([]float64, days),
	}

	// Per-instrument cumulative P&L, needed for the worst-day breakdown.
	cumByInstrument := make(map[string][]float64, len(book))
	for instrument := range book {
		cumByInstrument[instrument] = make([]float64, days)
	}

	var cum float64
	worstDay := 0
	worstCum := math.Inf(1)
	for d := 0; d < days; d++ {
		var dayPnL float64
		for instrument, notional := range book {
			r := returnAt(w.Returns[instrument], d, days)
			pnl := notional * r
			dayPnL += pnl

			prev := 0.0
			if d > 0 {
				prev = cumByInstrument[instrument][d-1]
			}
			cumByInstrument[instrument][d] = prev + pnl
		}

		cum += dayPnL
		res.CumulativePnL[d] = cum
		if cum < worstCum {
			worstCum = cum
			worstDay = d
		}
	}
	res.TotalPnL = cum

	res.WorstDay = worstDay
	if worstDay < len(w.Dates) {
		res.WorstDayDate = w.Dates[worstDay]
	}
	res.WorstDayPnL = res.CumulativePnL[worstDay]
	res.WorstBreakdown = make(map[string]float64, len(book))
	for instrument, series := range cumByInstrument {
		res.WorstBreakdown[instrument] = series[worstDay]
	}

	denom := portfolioValue
	if denom <= 0 {
		for _, notional := range book {
			denom += math.Abs(notional)
		}
	}
	if denom > 0 {
		res.PctOfPortfolio = res.WorstDayPnL / denom
	}

	return res, nil
}

// returnAt reads day d from a series that is front-padded with zeros to the
// window length.
func returnAt(series []float64, d, days int) float64 {
	pad := days - len(series)
	if d < pad {
		return 0
	}
	return series[d-pad]
}
