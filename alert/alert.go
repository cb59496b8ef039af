// Package alert delivers circuit-breaker events to side channels: the
// structured log, a JSON webhook, or SMTP email. Delivery is best-effort
// with short timeouts; the engine reports failures but never retries.
package alert

import (
	"github.com/rs/zerolog"

	"github.com/macrodesk/riskengine/breaker"
)

// LogDispatcher writes every event to the structured log. It is the default
// dispatcher when no webhook or email channel is configured.
type LogDispatcher struct {
	logger zerolog.Logger
}

func NewLogDispatcher(logger zerolog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger.With().Str("component", "alert").Logger()}
}

func (d *LogDispatcher) Dispatch(ev breaker.Event) error {
	d.logger.Warn().
		Str("event_id", ev.ID).
		Str("event_type", ev.Type).
		Str("state_from", ev.From.String()).
		Str("state_to", ev.To.String()).
		Float64("drawdown_pct", ev.Drawdown).
		Str("action", ev.Action).
		Time("timestamp", ev.Time).
		Float64("pnl_at_trigger", ev.PnL).
		Msg("risk alert")
	return nil
}

// Multi fans an event out to several dispatchers, returning the last error
// so the caller's log captures that at least one channel failed.
type Multi struct {
	targets []breaker.Dispatcher
}

func NewMulti(targets ...breaker.Dispatcher) *Multi {
	return &Multi{targets: targets}
}

func (m *Multi) Dispatch(ev breaker.Event) error {
	var last error
	for _, t := range m.targets {
		if err := t.Dispatch(ev); err != nil {
			last = err
		}
	}
	return last
}
