// Package monitor orchestrates one risk evaluation cycle: VaR/CVaR across
// methods, the full stress battery, the limit battery, the drawdown circuit
// breaker and the daily loss trackers, classified into a single risk level
// and rendered as the desk's morning report.
package monitor

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/macrodesk/riskengine/breaker"
	"github.com/macrodesk/riskengine/config"
	"github.com/macrodesk/riskengine/journal"
	"github.com/macrodesk/riskengine/limits"
	"github.com/macrodesk/riskengine/metrics"
	"github.com/macrodesk/riskengine/stress"
	"github.com/macrodesk/riskengine/varcalc"
)

// RiskLevel classifies the overall portfolio risk posture for one cycle.
type RiskLevel int

const (
	LevelLow RiskLevel = iota
	LevelModerate
	LevelHigh
	LevelCritical
)

func (l RiskLevel) String() string {
	switch l {
	case LevelLow:
		return "LOW"
	case LevelModerate:
		return "MODERATE"
	case LevelHigh:
		return "HIGH"
	case LevelCritical:
		return "CRITICAL"
	default:
		return "unknown"
	}
}

// Classification thresholds: drawdown above 2% is High, above 1% Moderate.
const (
	highDrawdown     = 0.02
	moderateDrawdown = 0.01
)

// Deps are the optional side channels a monitor writes to. Any field may be
// nil; sink failures are logged and never fail a cycle.
type Deps struct {
	Dispatcher breaker.Dispatcher
	Journal    journal.Journal
	Metrics    *metrics.Metrics
	Logger     zerolog.Logger
}

// Input is everything one evaluation cycle observes about the portfolio.
// Empty or zero fields disable the corresponding checks rather than fail
// them, so a thin input still produces a useful report.
type Input struct {
	Time time.Time

	// Return history. PortfolioReturns drives historical and parametric
	// VaR; ReturnsByAsset plus Weights enable the Monte Carlo method.
	PortfolioReturns []float64
	ReturnsByAsset   map[string][]float64
	Weights          map[string]float64
	MCSeed           uint64

	// Position book for stress testing: signed notionals per instrument.
	Book           map[string]float64
	PortfolioValue float64

	// Circuit breaker inputs. Equity <= 0 skips the breaker update.
	Equity    float64
	Positions map[string]float64
	DailyPnL  float64
	Signals   map[string]float64

	// Per-key daily loss fractions for the trackers and loss limits.
	StrategyDailyPnL   map[string]float64
	AssetClassDailyPnL map[string]float64

	// Risk budget contributions (fractions of total portfolio risk) and
	// the position-to-asset-class mapping used for aggregation.
	RiskContributions map[string]float64
	AssetClassOf      map[string]string
}

// Report is the outcome of one evaluation cycle.
type Report struct {
	Time  time.Time
	Level RiskLevel

	Historical varcalc.Result
	Parametric varcalc.Result
	MonteCarlo *varcalc.Result

	Stress []stress.Result
	Worst  *stress.Result

	Limits      []limits.CheckResult
	LimitStatus limits.Status
	Budget      *limits.BudgetReport

	BreakerRan bool
	Breaker    breaker.Decision

	TrackerEvents []breaker.Event
	Warnings      []string
}

// BreachCount returns the number of breached limits in this report.
func (r *Report) BreachCount() int {
	n := 0
	for _, c := range r.Limits {
		if c.Breached {
			n++
		}
	}
	return n
}

// Monitor owns the stateful risk components for one portfolio. Not goroutine
// safe; run one Evaluate at a time.
type Monitor struct {
	cfg     *config.Config
	logger  zerolog.Logger
	journal journal.Journal
	metrics *metrics.Metrics

	breaker      *breaker.Breaker
	limits       *limits.Manager
	stratTracker *breaker.LossTracker
	classTracker *breaker.LossTracker
	scenarios    []stress.Scenario
}

// New wires a monitor from configuration. A nil cfg uses defaults; the
// scenario battery starts as the six standard historical scenarios.
func New(cfg *config.Config, deps Deps) *Monitor {
	if cfg == nil {
		cfg = config.Default()
	}
	logger := deps.Logger.With().Str("component", "monitor").Logger()

	brk := breaker.New(breaker.Config{
		L1DrawdownPct:        cfg.Breaker.L1DrawdownPct,
		L2DrawdownPct:        cfg.Breaker.L2DrawdownPct,
		L3DrawdownPct:        cfg.Breaker.L3DrawdownPct,
		L1Reduction:          cfg.Breaker.L1Reduction,
		L2Reduction:          cfg.Breaker.L2Reduction,
		L3Reduction:          cfg.Breaker.L3Reduction,
		CooldownDays:         cfg.Breaker.CooldownDays,
		RecoveryDays:         cfg.Breaker.RecoveryDays,
		RecoveryThresholdPct: cfg.Breaker.RecoveryThresholdPct,
	}, deps.Dispatcher, deps.Logger)

	lim := limits.NewManager(limits.Limits{
		MaxVaR95:            cfg.Limits.MaxVaR95,
		MaxVaR99:            cfg.Limits.MaxVaR99,
		MaxDrawdown:         cfg.Limits.MaxDrawdownPct,
		MaxLeverage:         cfg.Limits.MaxLeverage,
		MaxPositionWeight:   cfg.Limits.MaxPositionWeight,
		MaxAssetClassWeight: cfg.Limits.MaxAssetClassWeight,
		MaxBudgetContrib:    cfg.Limits.MaxBudgetContrib,
		MaxStrategyLoss:     cfg.Limits.MaxStrategyLoss,
		MaxAssetClassLoss:   cfg.Limits.MaxAssetClassLoss,

		DailyLossLimitPct:  cfg.Limits.DailyLossLimitPct,
		WeeklyLossLimitPct: cfg.Limits.WeeklyLossLimitPct,

		TotalRiskBudget:     cfg.Limits.TotalRiskBudget,
		PerPositionBudget:   cfg.Limits.RiskBudgetPerPosition,
		PerAssetClassBudget: cfg.Limits.RiskBudgetPerAssetClass,
	}, deps.Logger)

	return &Monitor{
		cfg:          cfg,
		logger:       logger,
		journal:      deps.Journal,
		metrics:      deps.Metrics,
		breaker:      brk,
		limits:       lim,
		stratTracker: breaker.NewStrategyLossTracker(cfg.Breaker.StrategyLossLimitPct, deps.Dispatcher, deps.Logger),
		classTracker: breaker.NewAssetClassLossTracker(cfg.Breaker.AssetClassLossLimitPct, deps.Dispatcher, deps.Logger),
		scenarios:    stress.DefaultScenarios(),
	}
}

// SetScenarios replaces the stress battery run each cycle.
func (m *Monitor) SetScenarios(scenarios []stress.Scenario) {
	m.scenarios = scenarios
}

// Scenarios returns the current stress battery.
func (m *Monitor) Scenarios() []stress.Scenario { return m.scenarios }

// Breaker exposes the circuit breaker, e.g. for event-log inspection.
func (m *Monitor) Breaker() *breaker.Breaker { return m.breaker }

// Limits exposes the limits manager, e.g. for pre-trade checks.
func (m *Monitor) Limits() *limits.Manager { return m.limits }

// Evaluate runs one full risk cycle over the supplied inputs and returns the
// report. Sinks (journal, metrics) are written best-effort.
func (m *Monitor) Evaluate(in Input) *Report {
	now := in.Time
	if now.IsZero() {
		now = time.Now().UTC()
	}
	rep := &Report{Time: now}

	// VaR: historical always (it degrades internally), parametric always,
	// Monte Carlo only when per-asset histories and weights are supplied.
	rep.Historical = varcalc.Historical(in.PortfolioReturns, m.cfg.VaR.MinHistoricalObs)
	rep.Parametric = varcalc.Parametric(in.PortfolioReturns)
	if rep.Historical.Warning != "" {
		rep.Warnings = append(rep.Warnings, rep.Historical.Warning)
	}

	if len(in.ReturnsByAsset) > 0 && len(in.Weights) > 0 {
		mc, err := varcalc.MonteCarlo(in.ReturnsByAsset, in.Weights, varcalc.MCConfig{
			Simulations: m.cfg.VaR.MCSimulations,
			Seed:        in.MCSeed,
		})
		if err != nil {
			m.logger.Warn().Err(err).Msg("monte carlo VaR skipped")
			rep.Warnings = append(rep.Warnings, "monte carlo VaR skipped: "+err.Error())
		} else {
			rep.MonteCarlo = &mc
		}
	}

	// Stress battery.
	if len(in.Book) > 0 && len(m.scenarios) > 0 {
		rep.Stress = stress.RunAll(m.scenarios, in.Book, in.PortfolioValue)
		for _, r := range rep.Stress {
			if r.Warning != "" {
				rep.Warnings = append(rep.Warnings, r.Warning)
			}
		}
		if worst, err := stress.WorstCase(rep.Stress); err == nil {
			rep.Worst = &worst
		}
	}

	// Circuit breaker and loss trackers.
	if in.Equity > 0 {
		rep.BreakerRan = true
		rep.Breaker = m.breaker.Update(in.Equity, in.Positions, in.DailyPnL, in.Signals)
	}
	rep.TrackerEvents = append(rep.TrackerEvents,
		m.stratTracker.Check(in.StrategyDailyPnL, in.Positions)...)
	rep.TrackerEvents = append(rep.TrackerEvents,
		m.classTracker.Check(in.AssetClassDailyPnL, in.Positions)...)

	// Limit battery, fed from this cycle's own measurements.
	snap := limits.Snapshot{
		Weights:             in.Weights,
		BudgetContributions: in.RiskContributions,
		StrategyDailyPnL:    in.StrategyDailyPnL,
		AssetClassDailyPnL:  in.AssetClassDailyPnL,
	}
	if rep.Historical.Obs > 0 || rep.Historical.VaR95 != 0 {
		snap.VaR95 = limits.Float(rep.Historical.VaR95)
		snap.VaR99 = limits.Float(rep.Historical.VaR99)
	}
	if rep.BreakerRan {
		snap.Drawdown = limits.Float(rep.Breaker.Drawdown)
	}
	if len(in.Weights) > 0 {
		snap.Leverage = limits.Float(grossLeverage(in.Weights))
		if len(in.AssetClassOf) > 0 {
			snap.AssetClassWeights = classWeights(in.Weights, in.AssetClassOf)
		}
	}
	rep.Limits = m.limits.CheckAll(snap)

	if len(in.RiskContributions) > 0 {
		b := m.limits.BudgetReport(in.RiskContributions, in.AssetClassOf)
		rep.Budget = &b
	}

	if in.DailyPnL != 0 || len(in.StrategyDailyPnL) > 0 {
		m.limits.RecordDailyLoss(now, in.DailyPnL, in.StrategyDailyPnL)
	}

	rep.LimitStatus = m.limits.Status()
	rep.Level = m.classify(rep)

	m.sink(rep)
	return rep
}

// classify collapses the cycle into one risk level. Any breach anywhere is
// Critical; elevated utilization or drawdown is High; a mild drawdown is
// Moderate.
func (m *Monitor) classify(rep *Report) RiskLevel {
	breached := rep.BreachCount() > 0 || len(rep.TrackerEvents) > 0
	if rep.LimitStatus == limits.StatusBreached {
		breached = true
	}
	if rep.Budget != nil && !rep.Budget.Skipped && rep.Budget.Breached {
		breached = true
	}
	if breached {
		return LevelCritical
	}

	dd := 0.0
	if rep.BreakerRan {
		dd = rep.Breaker.Drawdown
		if rep.Breaker.State != breaker.Normal {
			return LevelHigh
		}
	}
	if dd > highDrawdown || rep.LimitStatus == limits.StatusWarning {
		return LevelHigh
	}
	if dd > moderateDrawdown {
		return LevelModerate
	}
	return LevelLow
}

// sink writes the cycle to the journal and metrics, best-effort.
func (m *Monitor) sink(rep *Report) {
	if m.journal != nil {
		if rep.BreakerRan {
			for _, ev := range rep.Breaker.Events {
				if err := m.journal.RecordEvent(ev); err != nil {
					m.logger.Error().Err(err).Str("event_id", ev.ID).Msg("journal event write failed")
				}
			}
		}
		for _, ev := range rep.TrackerEvents {
			if err := m.journal.RecordEvent(ev); err != nil {
				m.logger.Error().Err(err).Str("event_id", ev.ID).Msg("journal event write failed")
			}
		}

		rec := journal.ReportRecord{
			Time:        rep.Time,
			RiskLevel:   rep.Level.String(),
			VaR95:       rep.Historical.VaR95,
			CVaR95:      rep.Historical.CVaR95,
			VaR99:       rep.Historical.VaR99,
			CVaR99:      rep.Historical.CVaR99,
			BreachCount: rep.BreachCount(),
		}
		if rep.Worst != nil {
			rec.WorstScenario = rep.Worst.Scenario
			rec.WorstScenarioPnL = rep.Worst.TotalPnL
		}
		if rep.BreakerRan {
			rec.BreakerState = rep.Breaker.State.String()
			rec.Drawdown = rep.Breaker.Drawdown
			rec.ExposureScale = rep.Breaker.ExposureScale
		}
		if err := m.journal.RecordReport(rec); err != nil {
			m.logger.Error().Err(err).Msg("journal report write failed")
		}
	}

	obs := metrics.Observation{
		RiskLevel: int(rep.Level),
		VaR95:     rep.Historical.VaR95,
		Breaches:  rep.BreachCount() + len(rep.TrackerEvents),
	}
	if rep.BreakerRan {
		obs.Drawdown = rep.Breaker.Drawdown
		obs.BreakerState = int(rep.Breaker.State)
		obs.ExposureScale = rep.Breaker.ExposureScale
	} else {
		obs.ExposureScale = 1.0
	}
	m.metrics.Observe(obs)
}

// grossLeverage is the sum of absolute portfolio weights.
func grossLeverage(weights map[string]float64) float64 {
	var lev float64
	for _, w := range weights {
		if w < 0 {
			lev -= w
		} else {
			lev += w
		}
	}
	return lev
}

// classWeights aggregates position weights into asset-class weights.
// Unmapped positions land in "unclassified".
func classWeights(weights map[string]float64, assetClassOf map[string]string) map[string]float64 {
	out := make(map[string]float64)
	for name, w := range weights {
		class := assetClassOf[name]
		if class == "" {
			class = "unclassified"
		}
		out[class] += w
	}
	return out
}
