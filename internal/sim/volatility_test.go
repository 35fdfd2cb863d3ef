package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"scalptrainer/internal/domain"
)

func TestTrueRangeVolatility(t *testing.T) {
	t.Run("empty history", func(t *testing.T) {
		assert.Zero(t, TrueRangeVolatility(nil, 14))
	})

	t.Run("single candle uses its range", func(t *testing.T) {
		candles := []*domain.Candle{{High: 101, Low: 99}}
		assert.InDelta(t, 2.0, TrueRangeVolatility(candles, 14), 1e-9)
	})

	t.Run("constant range yields that range", func(t *testing.T) {
		candles := flatCandles(30, 100, 1)
		assert.InDelta(t, 2.0, TrueRangeVolatility(candles, 14), 1e-9)
	})

	t.Run("short history degrades gracefully", func(t *testing.T) {
		candles := flatCandles(5, 100, 0.5)
		assert.InDelta(t, 1.0, TrueRangeVolatility(candles, 14), 1e-9)
	})

	t.Run("wider ranges raise the measure", func(t *testing.T) {
		narrow := TrueRangeVolatility(flatCandles(30, 100, 0.5), 14)
		wide := TrueRangeVolatility(flatCandles(30, 100, 2), 14)
		assert.Greater(t, wide, narrow)
	})

	t.Run("non-positive period yields zero", func(t *testing.T) {
		assert.Zero(t, TrueRangeVolatility(flatCandles(10, 100, 1), 0))
	})
}
