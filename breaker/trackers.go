package breaker

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/macrodesk/riskengine/pkg/id"
)

// LossTracker compares a single day's loss fraction per key (strategy or
// asset class) against a fixed threshold and emits a breach event for each
// violation. It does not participate in the portfolio-level state machine
// and is checked every cycle regardless of the main breaker's state.
type LossTracker struct {
	kind       string
	limitPct   float64
	action     string
	dispatcher Dispatcher
	logger     zerolog.Logger
}

// NewStrategyLossTracker tracks per-strategy daily losses against limitPct
// (a positive fraction, e.g. 0.02 for 2%).
func NewStrategyLossTracker(limitPct float64, dispatcher Dispatcher, logger zerolog.Logger) *LossTracker {
	return &LossTracker{
		kind:       "strategy_loss",
		limitPct:   limitPct,
		action:     "review strategy allocation",
		dispatcher: dispatcher,
		logger:     logger.With().Str("component", "strategy_loss_tracker").Logger(),
	}
}

// NewAssetClassLossTracker tracks per-asset-class daily losses against
// limitPct.
func NewAssetClassLossTracker(limitPct float64, dispatcher Dispatcher, logger zerolog.Logger) *LossTracker {
	return &LossTracker{
		kind:       "asset_class_loss",
		limitPct:   limitPct,
		action:     "review asset class exposure",
		dispatcher: dispatcher,
		logger:     logger.With().Str("component", "asset_class_loss_tracker").Logger(),
	}
}

// Check inspects one day of per-key loss fractions (negative = loss) and
// returns a breach event for every key whose loss meets or exceeds the
// threshold. Keys are checked in sorted order so event logs are stable.
func (t *LossTracker) Check(dailyPnLPct map[string]float64, positions map[string]float64) []Event {
	if t.limitPct <= 0 || len(dailyPnLPct) == 0 {
		return nil
	}

	keys := make([]string, 0, len(dailyPnLPct))
	for k := range dailyPnLPct {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var breaches []Event
	for _, key := range keys {
		pnl := dailyPnLPct[key]
		if pnl > -t.limitPct {
			continue
		}

		ev := Event{
			ID:        id.New(),
			Time:      time.Now().UTC(),
			Type:      t.kind,
			Key:       key,
			Drawdown:  -pnl,
			Action:    t.action,
			Positions: copyMap(positions),
			PnL:       pnl,
		}
		breaches = append(breaches, ev)

		t.logger.Warn().
			Str("key", key).
			Float64("daily_pnl_pct", pnl).
			Float64("limit_pct", t.limitPct).
			Msg(fmt.Sprintf("%s limit breached", t.kind))

		if t.dispatcher != nil {
			if err := t.dispatcher.Dispatch(ev); err != nil {
				t.logger.Error().Err(err).Str("event_id", ev.ID).Msg("alert dispatch failed")
			}
		}
	}
	return breaches
}
