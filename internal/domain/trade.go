package domain

import "time"

// TradeRecord is the immutable result of a closed trade session, as
// folded into the score tracker and appended to the trade journal.
type TradeRecord struct {
	ID           int64 // Assigned by the journal (0 when not persisted)
	Side         Side
	EntryPrice   float64
	ExitPrice    float64
	EntryTime    time.Time
	ExitTime     time.Time
	Outcome      Outcome
	FromBreakout bool          // The entry consumed a breakout event
	ReactionTime time.Duration // Meaningful only when FromBreakout; may be zero
}
