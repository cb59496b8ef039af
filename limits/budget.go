package limits

import "math"

// roomThreshold: the portfolio has room to add risk while more than 5% of
// the total budget remains available.
const roomThreshold = 0.05

// PositionBudget is one position's share of the risk budget.
type PositionBudget struct {
	Name         string
	Contribution float64
	Limit        float64
	Breached     bool
}

// AssetClassBudget aggregates position contributions into one asset class.
type AssetClassBudget struct {
	Name         string
	Contribution float64
	Limit        float64
	Breached     bool
}

// BudgetReport describes how the total risk budget (1.0 = 100%) is spread
// across positions and asset classes. Skipped is set when no contributions
// were supplied — a reporting gap, not an error.
type BudgetReport struct {
	Skipped bool

	TotalBudget    float64
	Allocated      float64
	Available      float64
	UtilizationPct float64

	Positions    []PositionBudget
	AssetClasses []AssetClassBudget

	RoomToAdd bool
	Breached  bool
}

// BudgetReport allocates the risk budget from per-position risk
// contributions (fractions of total portfolio risk). assetClassOf maps
// positions to asset classes; unmapped positions land in "unclassified".
func (m *Manager) BudgetReport(contributions map[string]float64, assetClassOf map[string]string) BudgetReport {
	rep := BudgetReport{TotalBudget: m.limits.TotalRiskBudget}
	if rep.TotalBudget <= 0 {
		rep.TotalBudget = 1.0
	}

	if len(contributions) == 0 {
		rep.Skipped = true
		m.lastBudget = &rep
		return rep
	}

	byClass := make(map[string]float64)
	for _, name := range sortedKeys(contributions) {
		c := math.Abs(contributions[name])
		rep.Allocated += c

		breached := m.limits.PerPositionBudget > 0 && c >= m.limits.PerPositionBudget
		rep.Positions = append(rep.Positions, PositionBudget{
			Name:         name,
			Contribution: c,
			Limit:        m.limits.PerPositionBudget,
			Breached:     breached,
		})
		if breached {
			rep.Breached = true
		}

		class := assetClassOf[name]
		if class == "" {
			class = "unclassified"
		}
		byClass[class] += c
	}

	for _, class := range sortedKeys(byClass) {
		c := byClass[class]
		breached := m.limits.PerAssetClassBudget > 0 && c >= m.limits.PerAssetClassBudget
		rep.AssetClasses = append(rep.AssetClasses, AssetClassBudget{
			Name:         class,
			Contribution: c,
			Limit:        m.limits.PerAssetClassBudget,
			Breached:     breached,
		})
		if breached {
			rep.Breached = true
		}
	}

	rep.Available = rep.TotalBudget - rep.Allocated
	rep.UtilizationPct = rep.Allocated / rep.TotalBudget * 100
	rep.RoomToAdd = rep.Available > roomThreshold
	if rep.Allocated > rep.TotalBudget {
		rep.Breached = true
	}

	m.lastBudget = &rep
	return rep
}
