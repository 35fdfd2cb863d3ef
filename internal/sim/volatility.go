package sim

import (
	"math"

	"scalptrainer/internal/domain"
)

// TrueRangeVolatility computes a Wilder-smoothed average true range
// over the candle history. It is the volatility measure used for level
// break thresholds. With fewer candles than the period it degrades to
// the average over what is available; an empty history yields zero.
func TrueRangeVolatility(candles []*domain.Candle, period int) float64 {
	if len(candles) == 0 || period <= 0 {
		return 0
	}
	if len(candles) == 1 {
		return candles[0].High - candles[0].Low
	}
	if period > len(candles)-1 {
		period = len(candles) - 1
	}

	trueRanges := make([]float64, len(candles))
	trueRanges[0] = candles[0].High - candles[0].Low
	for i := 1; i < len(candles); i++ {
		high := candles[i].High
		low := candles[i].Low
		prevClose := candles[i-1].Close

		// True range is the greatest of high-low and the gaps from the
		// previous close (gaps cannot occur here given the continuity
		// invariant, but the measure stays the standard one).
		tr := math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
		trueRanges[i] = tr
	}

	// Simple average seeds the smoothing.
	atr := 0.0
	for i := 0; i < period; i++ {
		atr += trueRanges[i]
	}
	atr /= float64(period)

	for i := period; i < len(trueRanges); i++ {
		atr = (atr*float64(period-1) + trueRanges[i]) / float64(period)
	}
	return atr
}
