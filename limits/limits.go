// Package limits evaluates the desk's static risk-limit battery against a
// point-in-time snapshot, tracks rolling daily/weekly realized losses, and
// allocates the risk budget across positions and asset classes. Limits whose
// inputs are absent from a snapshot are skipped, never failed.
package limits

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"
)

// Limit names, in the fixed order CheckAll reports them.
const (
	LimitVaR95              = "var_95"
	LimitVaR99              = "var_99"
	LimitDrawdown           = "drawdown"
	LimitLeverage           = "leverage"
	LimitPositionWeight     = "position_weight"
	LimitAssetClassWeight   = "asset_class_weight"
	LimitBudgetContribution = "budget_contribution"
	LimitStrategyLoss       = "strategy_daily_loss"
	LimitAssetClassLoss     = "asset_class_daily_loss"
)

// warningUtilization is the utilization percentage above which overall
// status degrades to Warning.
const warningUtilization = 80.0

// Limits holds every static threshold plus the rolling-loss and risk-budget
// limits used by the manager.
type Limits struct {
	MaxVaR95            float64
	MaxVaR99            float64
	MaxDrawdown         float64
	MaxLeverage         float64
	MaxPositionWeight   float64
	MaxAssetClassWeight float64
	MaxBudgetContrib    float64
	MaxStrategyLoss     float64
	MaxAssetClassLoss   float64

	DailyLossLimitPct  float64
	WeeklyLossLimitPct float64

	TotalRiskBudget     float64
	PerPositionBudget   float64
	PerAssetClassBudget float64
}

// DefaultLimits returns the standard desk limits.
func DefaultLimits() Limits {
	return Limits{
		MaxVaR95:            0.025,
		MaxVaR99:            0.04,
		MaxDrawdown:         0.10,
		MaxLeverage:         3.0,
		MaxPositionWeight:   0.25,
		MaxAssetClassWeight: 0.50,
		MaxBudgetContrib:    0.30,
		MaxStrategyLoss:     0.02,
		MaxAssetClassLoss:   0.03,

		DailyLossLimitPct:  0.02,
		WeeklyLossLimitPct: 0.05,

		TotalRiskBudget:     1.0,
		PerPositionBudget:   0.20,
		PerAssetClassBudget: 0.40,
	}
}

// Snapshot is the point-in-time input to a limit check. Nil pointer or
// empty-map fields mean "input absent": the corresponding limit is skipped.
type Snapshot struct {
	VaR95    *float64
	VaR99    *float64
	Drawdown *float64
	Leverage *float64

	Weights             map[string]float64
	AssetClassWeights   map[string]float64
	BudgetContributions map[string]float64
	StrategyDailyPnL    map[string]float64
	AssetClassDailyPnL  map[string]float64
}

// Float is a convenience for building snapshots.
func Float(v float64) *float64 { return &v }

// CheckResult is one limit's verdict. Utilization is |current|/|limit|*100;
// the limit is breached when |current| >= |limit|.
type CheckResult struct {
	Name        string
	Current     float64
	Limit       float64
	Utilization float64
	Breached    bool
	Detail      string // worst key for map-valued limits
}

// Status is the collapsed overall limit status.
type Status int

const (
	StatusOK Status = iota
	StatusWarning
	StatusBreached
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusWarning:
		return "WARNING"
	case StatusBreached:
		return "BREACHED"
	default:
		return "unknown"
	}
}

// Manager owns the limit battery, the bounded loss history, and the latest
// budget report for one portfolio. Not goroutine safe; invoked serially.
type Manager struct {
	limits Limits
	logger zerolog.Logger

	history     []LossRecord
	lastResults []CheckResult
	lastBudget  *BudgetReport
}

// NewManager builds a manager; zero-valued limits fall back to defaults.
func NewManager(limits Limits, logger zerolog.Logger) *Manager {
	if limits == (Limits{}) {
		limits = DefaultLimits()
	}
	return &Manager{
		limits: limits,
		logger: logger.With().Str("component", "limits").Logger(),
	}
}

// Limits returns the configured thresholds.
func (m *Manager) Limits() Limits { return m.limits }

// CheckAll evaluates every limit whose input is present in the snapshot and
// remembers the results for Status.
func (m *Manager) CheckAll(snap Snapshot) []CheckResult {
	results := m.check(snap)
	m.lastResults = results

	for _, r := range results {
		if r.Breached {
			m.logger.Warn().
				Str("limit", r.Name).
				Float64("current", r.Current).
				Float64("limit", r.Limit).
				Float64("utilization_pct", r.Utilization).
				Msg("risk limit breached")
		}
	}
	return results
}

// CheckPreTrade simulates merging a proposed weight change into the current
// weights, recomputes leverage, and reruns every check. Neither the caller's
// snapshot nor the manager's remembered results are modified; use it to gate
// a trade before execution.
func (m *Manager) CheckPreTrade(snap Snapshot, instrument string, weightDelta float64) ([]CheckResult, error) {
	if instrument == "" {
		return nil, fmt.Errorf("pre-trade check: instrument required")
	}

	merged := snap
	merged.Weights = make(map[string]float64, len(snap.Weights)+1)
	for k, v := range snap.Weights {
		merged.Weights[k] = v
	}
	merged.Weights[instrument] += weightDelta

	var leverage float64
	for _, w := range merged.Weights {
		leverage += math.Abs(w)
	}
	merged.Leverage = Float(leverage)

	return m.check(merged), nil
}

func (m *Manager) check(snap Snapshot) []CheckResult {
	var results []CheckResult

	add := func(name string, current *float64, limit float64, detail string) {
		if current == nil || limit <= 0 {
			return
		}
		cur := math.Abs(*current)
		lim := math.Abs(limit)
		results = append(results, CheckResult{
			Name:        name,
			Current:     *current,
			Limit:       limit,
			Utilization: cur / lim * 100,
			Breached:    cur >= lim,
			Detail:      detail,
		})
	}

	add(LimitVaR95, snap.VaR95, m.limits.MaxVaR95, "")
	add(LimitVaR99, snap.VaR99, m.limits.MaxVaR99, "")
	add(LimitDrawdown, snap.Drawdown, m.limits.MaxDrawdown, "")
	add(LimitLeverage, snap.Leverage, m.limits.MaxLeverage, "")

	if key, v, ok := largestAbs(snap.Weights); ok {
		add(LimitPositionWeight, &v, m.limits.MaxPositionWeight, key)
	}
	if key, v, ok := largestAbs(snap.AssetClassWeights); ok {
		add(LimitAssetClassWeight, &v, m.limits.MaxAssetClassWeight, key)
	}
	if key, v, ok := largestAbs(snap.BudgetContributions); ok {
		add(LimitBudgetContribution, &v, m.limits.MaxBudgetContrib, key)
	}
	if key, v, ok := worstLoss(snap.StrategyDailyPnL); ok {
		add(LimitStrategyLoss, &v, m.limits.MaxStrategyLoss, key)
	}
	if key, v, ok := worstLoss(snap.AssetClassDailyPnL); ok {
		add(LimitAssetClassLoss, &v, m.limits.MaxAssetClassLoss, key)
	}

	return results
}

// Status collapses the latest check, loss window, and budget report into a
// single overall status.
func (m *Manager) Status() Status {
	breached := false
	warning := false

	for _, r := range m.lastResults {
		if r.Breached {
			breached = true
		} else if r.Utilization > warningUtilization {
			warning = true
		}
	}

	if n := len(m.history); n > 0 {
		latest := m.history[n-1]
		if latest.DailyBreach || latest.WeeklyBreach {
			breached = true
		}
	}

	if m.lastBudget != nil && !m.lastBudget.Skipped && m.lastBudget.Breached {
		breached = true
	}

	switch {
	case breached:
		return StatusBreached
	case warning:
		return StatusWarning
	default:
		return StatusOK
	}
}

// largestAbs returns the key with the largest absolute value. Iteration is
// over sorted keys so ties resolve deterministically.
func largestAbs(m map[string]float64) (string, float64, bool) {
	if len(m) == 0 {
		return "", 0, false
	}
	keys := sortedKeys(m)
	bestKey := keys[0]
	best := m[bestKey]
	for _, k := range keys[1:] {
		if math.Abs(m[k]) > math.Abs(best) {
			bestKey, best = k, m[k]
		}
	}
	return bestKey, best, true
}

// worstLoss returns the most negative value, or ok=false when nothing is a
// loss (a profitable day cannot breach a loss limit).
func worstLoss(m map[string]float64) (string, float64, bool) {
	if len(m) == 0 {
		return "", 0, false
	}
	keys := sortedKeys(m)
	bestKey := ""
	best := 0.0
	for _, k := range keys {
		if m[k] < best {
			bestKey, best = k, m[k]
		}
	}
	if bestKey == "" {
		return "", 0, false
	}
	return bestKey, best, true
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
