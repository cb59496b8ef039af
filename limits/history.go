package limits

import "time"

const (
	// maxLossRecords bounds the loss history FIFO; the oldest records are
	// evicted silently.
	maxLossRecords = 30
	// weeklyWindow is the number of observations summed into the rolling
	// "weekly" loss.
	weeklyWindow = 5
)

// LossRecord is one calendar date's realized loss bookkeeping.
type LossRecord struct {
	Date         time.Time
	DailyPnLPct  float64
	WeeklyPnLPct float64
	ByStrategy   map[string]float64

	DailyBreach  bool
	WeeklyBreach bool
}

// RecordDailyLoss appends one day's realized P&L fraction, computes the
// rolling 5-observation cumulative, flags breaches against the daily and
// weekly loss limits, and evicts beyond the 30-record cap.
func (m *Manager) RecordDailyLoss(date time.Time, dailyPnLPct float64, byStrategy map[string]float64) LossRecord {
	weekly := dailyPnLPct
	n := len(m.history)
	for i := 1; i < weeklyWindow && n-i >= 0 && i <= n; i++ {
		weekly += m.history[n-i].DailyPnLPct
	}

	var strategies map[string]float64
	if byStrategy != nil {
		strategies = make(map[string]float64, len(byStrategy))
		for k, v := range byStrategy {
			strategies[k] = v
		}
	}

	rec := LossRecord{
		Date:         date,
		DailyPnLPct:  dailyPnLPct,
		WeeklyPnLPct: weekly,
		ByStrategy:   strategies,
		DailyBreach:  m.limits.DailyLossLimitPct > 0 && dailyPnLPct <= -m.limits.DailyLossLimitPct,
		WeeklyBreach: m.limits.WeeklyLossLimitPct > 0 && weekly <= -m.limits.WeeklyLossLimitPct,
	}

	m.history = append(m.history, rec)
	if len(m.history) > maxLossRecords {
		m.history = m.history[len(m.history)-maxLossRecords:]
	}

	if rec.DailyBreach || rec.WeeklyBreach {
		m.logger.Warn().
			Time("date", date).
			Float64("daily_pnl_pct", dailyPnLPct).
			Float64("weekly_pnl_pct", weekly).
			Bool("daily_breach", rec.DailyBreach).
			Bool("weekly_breach", rec.WeeklyBreach).
			Msg("loss limit breached")
	}

	return rec
}

// History returns a copy of the bounded loss history, oldest first.
func (m *Manager) History() []LossRecord {
	out := make([]LossRecord, len(m.history))
	copy(out, m.history)
	return out
}
