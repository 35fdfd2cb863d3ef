package domain

import (
	"math"
	"time"
)

// Candle represents a single simulated OHLCV bar.
type Candle struct {
	Index     int       // Monotonic sequence index within the session
	Timestamp time.Time // Wall-clock time the candle was committed
	Open      float64   // Opening price, equals previous close
	High      float64   // Highest price including upper wick
	Low       float64   // Lowest price including lower wick
	Close     float64   // Closing price
	Volume    float64   // Simulated trading volume
}

// IsBullish reports whether the candle closed at or above its open.
func (c *Candle) IsBullish() bool {
	return c.Close >= c.Open
}

// BodyTop returns the higher of open and close.
func (c *Candle) BodyTop() float64 {
	return math.Max(c.Open, c.Close)
}

// BodyBottom returns the lower of open and close.
func (c *Candle) BodyBottom() float64 {
	return math.Min(c.Open, c.Close)
}

// IsValid reports whether the OHLC ordering invariant holds:
// low <= min(open, close) <= max(open, close) <= high, with positive
// prices and non-negative volume.
func (c *Candle) IsValid() bool {
	return c.Low > 0 &&
		c.Volume >= 0 &&
		c.Low <= c.BodyBottom() &&
		c.BodyTop() <= c.High
}
