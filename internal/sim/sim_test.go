package sim

import (
	"context"

	"scalptrainer/internal/domain"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.debugMsgs = append(m.debugMsgs, msg)
}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.errorMsgs = append(m.errorMsgs, msg)
}

// flatCandles builds a history of identical candles with the given
// range, satisfying the continuity invariant.
func flatCandles(n int, price, halfRange float64) []*domain.Candle {
	out := make([]*domain.Candle, n)
	for i := 0; i < n; i++ {
		out[i] = &domain.Candle{
			Index: i,
			Open:  price,
			High:  price + halfRange,
			Low:   price - halfRange,
			Close: price,
		}
	}
	return out
}
