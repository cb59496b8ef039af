// Package stress applies named historical shock scenarios to a position
// book, calibrates reverse stress multipliers, and replays realized crisis
// windows. None of its operations mutate the caller's position map.
package stress

import "fmt"

// Scenario is a named, versioned set of fractional shocks keyed by
// instrument identifier. A key matches an instrument exactly or as a prefix
// (e.g. a shock keyed "DI_PRE" applies to "DI_PRE_JAN27").
type Scenario struct {
	Name        string
	Period      string
	Description string
	Version     int
	Shocks      map[string]float64
}

// defaultScenarios is the canonical crisis battery. Callers always receive
// copies; the table itself is never handed out.
var defaultScenarios = []Scenario{
	{
		Name:        "gfc_2008",
		Period:      "Sep-Nov 2008",
		Description: "Lehman collapse: global equity crash, flight to quality, EM FX rout",
		Version:     1,
		Shocks: map[string]float64{
			"SPX":        -0.30,
			"IBOV":       -0.40,
			"USDBRL":     0.35,
			"EMFX":       -0.20,
			"DI_PRE":     -0.12,
			"UST10Y":     0.08,
			"CDS_BRAZIL": -0.25,
			"OIL":        -0.45,
			"GOLD":       0.10,
		},
	},
	{
		Name:        "covid_2020",
		Period:      "Feb-Mar 2020",
		Description: "COVID crash: fastest 30% equity drawdown on record, oil collapse",
		Version:     1,
		Shocks: map[string]float64{
			"SPX":    -0.34,
			"IBOV":   -0.45,
			"USDBRL": 0.25,
			"EMFX":   -0.15,
			"DI_PRE": -0.08,
			"UST10Y": 0.10,
			"OIL":    -0.60,
			"GOLD":   -0.04,
		},
	},
	{
		Name:        "taper_2013",
		Period:      "May-Sep 2013",
		Description: "Taper tantrum: US rates repricing, EM local-rates and FX selloff",
		Version:     1,
		Shocks: map[string]float64{
			"UST10Y": -0.09,
			"DI_PRE": -0.15,
			"USDBRL": 0.18,
			"EMFX":   -0.12,
			"IBOV":   -0.20,
			"SPX":    -0.05,
		},
	},
	{
		Name:        "china_2015",
		Period:      "Aug 2015 - Feb 2016",
		Description: "China devaluation: commodity and EM risk-off, CNY regime break",
		Version:     1,
		Shocks: map[string]float64{
			"SPX":    -0.12,
			"IBOV":   -0.25,
			"USDBRL": 0.20,
			"EMFX":   -0.10,
			"OIL":    -0.35,
			"DI_PRE": -0.06,
			"GOLD":   0.05,
		},
	},
	{
		Name:        "q4_2018",
		Period:      "Oct-Dec 2018",
		Description: "Q4 2018 selloff: Fed overtightening fears, credit spread widening",
		Version:     1,
		Shocks: map[string]float64{
			"SPX":    -0.19,
			"IBOV":   -0.08,
			"USDBRL": 0.06,
			"UST10Y": 0.03,
			"OIL":    -0.38,
			"GOLD":   0.07,
		},
	},
	{
		Name:        "rates_2022",
		Period:      "Jan-Oct 2022",
		Description: "2022 rates shock: global inflation repricing, bond bear market",
		Version:     1,
		Shocks: map[string]float64{
			"UST10Y": -0.17,
			"DI_PRE": -0.10,
			"SPX":    -0.25,
			"IBOV":   0.05,
			"USDBRL": -0.04,
			"GOLD":   -0.03,
			"OIL":    0.30,
		},
	},
}

// DefaultScenarios returns fresh copies of the six built-in crisis
// scenarios, worst-first order not guaranteed.
func DefaultScenarios() []Scenario {
	out := make([]Scenario, len(defaultScenarios))
	for i, s := range defaultScenarios {
		out[i] = copyScenario(s)
	}
	return out
}

// ByName returns a copy of the named default scenario.
func ByName(name string) (Scenario, error) {
	for _, s := range defaultScenarios {
		if s.Name == name {
			return copyScenario(s), nil
		}
	}
	return Scenario{}, fmt.Errorf("unknown scenario %q", name)
}

func copyScenario(s Scenario) Scenario {
	shocks := make(map[string]float64, len(s.Shocks))
	for k, v := range s.Shocks {
		shocks[k] = v
	}
	s.Shocks = shocks
	return s
}
