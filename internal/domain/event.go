package domain

import "time"

// Direction of a breakout relative to the previous candle.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// BreakoutEvent records a candle whose extreme exceeded the previous
// candle's corresponding extreme by more than the configured epsilon.
// An event is consumed at most once, by the trade session that enters
// on it; unconsumed events simply age out.
type BreakoutEvent struct {
	CandleIndex int       // Index of the candle that triggered the event
	DetectedAt  time.Time // Detection timestamp, basis for reaction time
	Direction   Direction
	Consumed    bool
}
