package domain

import "time"

// SessionState is the lifecycle state of a trade session.
type SessionState string

const (
	StateIdle    SessionState = "idle"
	StateSetup   SessionState = "setup"
	StateEntered SessionState = "entered"
	StateClosed  SessionState = "closed"
)

// Side is the declared direction of a practice trade.
type Side string

const (
	SideLong     Side = "long"
	SideShort    Side = "short"
	SideBreakout Side = "breakout"
)

// Outcome is the result of a closed trade.
type Outcome string

const (
	OutcomeProfit    Outcome = "profit"
	OutcomeLoss      Outcome = "loss"
	OutcomeBreakeven Outcome = "breakeven"
	OutcomeCancelled Outcome = "cancelled"
)

// TradeSession holds the state of a single in-progress practice trade.
// Exactly one non-idle session exists at a time; a finished session is
// folded into the score tracker and discarded.
type TradeSession struct {
	State        SessionState
	Side         Side
	EntryPrice   float64
	EntryTime    time.Time
	ExitPrice    float64
	ExitTime     time.Time
	Outcome      Outcome
	FromBreakout bool          // True when the entry consumed a breakout event
	ReactionTime time.Duration // Detection-to-confirm delay, breakout entries only
}
