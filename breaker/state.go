package breaker

// State is the circuit-breaker position in the de-risking ladder.
type State int

const (
	Normal      State = iota // full exposure
	L1Triggered              // first drawdown level, reduced exposure
	L2Triggered              // second drawdown level, half exposure
	L3Triggered              // third level; chains straight into Cooldown
	Cooldown                 // flat, waiting out the cooldown counter
	Recovering               // ramping exposure back toward full
)

func (s State) String() string {
	switch s {
	case Normal:
		return "normal"
	case L1Triggered:
		return "l1_triggered"
	case L2Triggered:
		return "l2_triggered"
	case L3Triggered:
		return "l3_triggered"
	case Cooldown:
		return "cooldown"
	case Recovering:
		return "recovering"
	default:
		return "unknown"
	}
}
