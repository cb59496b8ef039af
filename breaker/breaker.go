// Package breaker implements the portfolio drawdown circuit breaker: a
// six-state machine tracking equity against its high-water mark and scaling
// target exposure down as losses deepen, with a cooldown and a gradual
// re-entry ramp. It also houses the independent per-strategy and
// per-asset-class daily loss trackers.
package breaker

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/macrodesk/riskengine/pkg/id"
)

// Config holds the breaker thresholds. Zero values are replaced by
// DefaultConfig in New.
type Config struct {
	L1DrawdownPct float64 // default 0.03
	L2DrawdownPct float64 // default 0.05
	L3DrawdownPct float64 // default 0.08

	L1Reduction float64 // exposure scale at L1, default 0.75
	L2Reduction float64 // default 0.50
	L3Reduction float64 // default 0.0

	CooldownDays         int     // default 5
	RecoveryDays         int     // default 3
	RecoveryThresholdPct float64 // drawdown required to leave cooldown, default 0.03
}

// DefaultConfig returns the standard 3/5/8% ladder.
func DefaultConfig() Config {
	return Config{
		L1DrawdownPct:        0.03,
		L2DrawdownPct:        0.05,
		L3DrawdownPct:        0.08,
		L1Reduction:          0.75,
		L2Reduction:          0.50,
		L3Reduction:          0.0,
		CooldownDays:         5,
		RecoveryDays:         3,
		RecoveryThresholdPct: 0.03,
	}
}

// Dispatcher delivers breaker events to an alerting side channel. Dispatch
// failures never propagate into the update path.
type Dispatcher interface {
	Dispatch(Event) error
}

// Event is an immutable record of one state transition or loss-tracker
// breach, with a full snapshot of the book at the moment of trigger. The
// event log is the audit trail for every de-risking decision.
type Event struct {
	ID   string
	Time time.Time
	Type string // "circuit_breaker", "strategy_loss", "asset_class_loss"

	From State
	To   State

	Drawdown float64
	Action   string
	Key      string // tracker breaches only: the strategy or asset class

	Positions map[string]float64
	PnL       float64
	Signals   map[string]float64
}

// Decision is what one Update call resolved to.
type Decision struct {
	State         State
	ExposureScale float64
	Drawdown      float64
	HighWaterMark float64
	Events        []Event // transitions emitted by this update, in order
}

// Breaker owns the circuit-breaker state for one portfolio. It is not
// goroutine safe; the monitor invokes it serially, one update per cycle.
type Breaker struct {
	cfg        Config
	logger     zerolog.Logger
	dispatcher Dispatcher

	state        State
	hwm          float64
	scale        float64
	cooldownLeft int
	recoveryDay  int

	events []Event
}

// New constructs a breaker in the Normal state. dispatcher may be nil.
func New(cfg Config, dispatcher Dispatcher, logger zerolog.Logger) *Breaker {
	def := DefaultConfig()
	if cfg.L1DrawdownPct <= 0 {
		cfg.L1DrawdownPct = def.L1DrawdownPct
	}
	if cfg.L2DrawdownPct <= 0 {
		cfg.L2DrawdownPct = def.L2DrawdownPct
	}
	if cfg.L3DrawdownPct <= 0 {
		cfg.L3DrawdownPct = def.L3DrawdownPct
	}
	if cfg.L1Reduction <= 0 {
		cfg.L1Reduction = def.L1Reduction
	}
	if cfg.L2Reduction <= 0 {
		cfg.L2Reduction = def.L2Reduction
	}
	if cfg.CooldownDays <= 0 {
		cfg.CooldownDays = def.CooldownDays
	}
	if cfg.RecoveryDays < 2 {
		cfg.RecoveryDays = def.RecoveryDays
	}
	if cfg.RecoveryThresholdPct <= 0 {
		cfg.RecoveryThresholdPct = def.RecoveryThresholdPct
	}

	return &Breaker{
		cfg:        cfg,
		logger:     logger.With().Str("component", "breaker").Logger(),
		dispatcher: dispatcher,
		state:      Normal,
		scale:      1.0,
	}
}

// State returns the current state.
func (b *Breaker) State() State { return b.state }

// ExposureScale returns the current target exposure scale in [0, 1].
func (b *Breaker) ExposureScale() float64 { return b.scale }

// HighWaterMark returns the peak equity seen so far.
func (b *Breaker) HighWaterMark() float64 { return b.hwm }

// Events returns a copy of the full event log.
func (b *Breaker) Events() []Event {
	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}

// Update advances the state machine one cycle. The high-water mark
// initializes to the first equity seen and only increases afterwards
// (except for the reset on recovery completion, which re-baselines the
// breaker at the accepted post-drawdown equity).
func (b *Breaker) Update(equity float64, positions map[string]float64, pnl float64, signals map[string]float64) Decision {
	if b.hwm <= 0 {
		b.hwm = equity
	} else if equity > b.hwm {
		b.hwm = equity
	}

	drawdown := 0.0
	if b.hwm > 0 && equity < b.hwm {
		drawdown = (b.hwm - equity) / b.hwm
	}

	ctx := eventContext{equity: equity, positions: positions, pnl: pnl, signals: signals, drawdown: drawdown}
	var emitted []Event

	switch b.state {
	case Normal, L1Triggered, L2Triggered, L3Triggered:
		emitted = b.walkLadder(drawdown, ctx)
	case Cooldown:
		b.cooldownLeft--
		// Counter expiry alone is not enough: drawdown must also have
		// recovered below the threshold.
		if b.cooldownLeft <= 0 && drawdown < b.cfg.RecoveryThresholdPct {
			b.recoveryDay = 0
			b.scale = 0
			emitted = append(emitted, b.transition(Recovering, "begin exposure ramp", ctx))
		}
	case Recovering:
		b.recoveryDay++
		if b.recoveryDay >= b.cfg.RecoveryDays {
			b.scale = 1.0
			emitted = append(emitted, b.transition(Normal, "recovery complete, high-water mark reset", ctx))
			b.hwm = equity
			drawdown = 0
		} else {
			ramp := float64(b.recoveryDay-1) / float64(b.cfg.RecoveryDays-1)
			if ramp < 0 {
				ramp = 0
			}
			b.scale = ramp
		}
	}

	return Decision{
		State:         b.state,
		ExposureScale: b.scale,
		Drawdown:      drawdown,
		HighWaterMark: b.hwm,
		Events:        emitted,
	}
}

// walkLadder escalates or de-escalates through the L1/L2/L3 ladder until the
// state matches the drawdown. L3 is never a resting state: it chains into
// Cooldown within the same update.
func (b *Breaker) walkLadder(drawdown float64, ctx eventContext) []Event {
	var emitted []Event
	for {
		next, action := b.ladderTarget(drawdown)
		if next == b.state {
			return emitted
		}
		emitted = append(emitted, b.transition(next, action, ctx))

		if b.state == L3Triggered {
			b.cooldownLeft = b.cfg.CooldownDays
			emitted = append(emitted, b.transition(Cooldown, "halt trading, cooldown started", ctx))
			return emitted
		}
	}
}

// ladderTarget returns the single-step transition implied by the current
// state and drawdown, with the exposure action to log.
func (b *Breaker) ladderTarget(drawdown float64) (State, string) {
	switch b.state {
	case Normal:
		if drawdown >= b.cfg.L1DrawdownPct {
			return L1Triggered, "reduce exposure to 75%"
		}
	case L1Triggered:
		if drawdown >= b.cfg.L2DrawdownPct {
			return L2Triggered, "reduce exposure to 50%"
		}
		if drawdown < b.cfg.L1DrawdownPct/2 {
			return Normal, "restore full exposure"
		}
	case L2Triggered:
		if drawdown >= b.cfg.L3DrawdownPct {
			return L3Triggered, "close all positions"
		}
		if drawdown < b.cfg.L2DrawdownPct {
			return L1Triggered, "ease exposure back to 75%"
		}
	}
	return b.state, ""
}

func (b *Breaker) transition(to State, action string, ctx eventContext) Event {
	from := b.state
	b.state = to
	b.scale = b.stateScale(to)

	ev := Event{
		ID:        id.New(),
		Time:      time.Now().UTC(),
		Type:      "circuit_breaker",
		From:      from,
		To:        to,
		Drawdown:  ctx.drawdown,
		Action:    action,
		Positions: copyMap(ctx.positions),
		PnL:       ctx.pnl,
		Signals:   copyMap(ctx.signals),
	}
	b.events = append(b.events, ev)

	b.logger.Warn().
		Str("from", from.String()).
		Str("to", to.String()).
		Float64("drawdown", ctx.drawdown).
		Str("action", action).
		Msg("circuit breaker transition")

	b.dispatch(ev)
	return ev
}

// dispatch delivers an event best-effort; failures are logged and swallowed
// so alerting can never break the trading loop.
func (b *Breaker) dispatch(ev Event) {
	if b.dispatcher == nil {
		return
	}
	if err := b.dispatcher.Dispatch(ev); err != nil {
		b.logger.Error().Err(err).Str("event_id", ev.ID).Msg("alert dispatch failed")
	}
}

func (b *Breaker) stateScale(s State) float64 {
	switch s {
	case Normal:
		return 1.0
	case L1Triggered:
		return b.cfg.L1Reduction
	case L2Triggered:
		return b.cfg.L2Reduction
	case L3Triggered, Cooldown:
		return b.cfg.L3Reduction
	case Recovering:
		return b.scale
	default:
		return 0
	}
}

type eventContext struct {
	equity    float64
	positions map[string]float64
	pnl       float64
	signals   map[string]float64
	drawdown  float64
}

func copyMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
