package sim

import (
	"fmt"
	"time"

	"scalptrainer/internal/domain"
	"scalptrainer/internal/ports"
)

// DetectorConfig holds parameters for breakout detection.
type DetectorConfig struct {
	Epsilon    float64 // Minimum excess over the previous extreme to count as a break
	DetectDown bool    // Also flag downward breaks (new low below the previous low)
}

// Validate checks the configuration.
func (c DetectorConfig) Validate() error {
	if c.Epsilon < 0 {
		return fmt.Errorf("%w: breakout epsilon cannot be negative", ports.ErrConfigurationError)
	}
	return nil
}

// Detector inspects the committed candle history and emits breakout
// events. Detection is pure on the candle data and idempotent: each
// candle index is evaluated at most once, so re-running on an
// unchanged history yields nothing new.
type Detector struct {
	cfg       DetectorConfig
	now       func() time.Time
	lastIndex int
}

// NewDetector creates a breakout detector. The clock is injectable so
// detection timestamps (the basis of reaction times) are exact in
// tests; nil means time.Now.
func NewDetector(cfg DetectorConfig, now func() time.Time) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}
	return &Detector{cfg: cfg, now: now, lastIndex: -1}, nil
}

// Evaluate compares the newest candle against its predecessor and
// returns a breakout event, or nil. By default only upward breaks (a
// new high) are flagged; downward breaks are recognized when the mode
// enabling short/breakout trades on both sides is configured.
func (d *Detector) Evaluate(history []*domain.Candle) *domain.BreakoutEvent {
	if len(history) < 2 {
		return nil
	}
	newest := history[len(history)-1]
	prev := history[len(history)-2]

	if newest.Index <= d.lastIndex {
		return nil
	}
	d.lastIndex = newest.Index

	switch {
	case newest.High > prev.High+d.cfg.Epsilon:
		return &domain.BreakoutEvent{
			CandleIndex: newest.Index,
			DetectedAt:  d.now(),
			Direction:   domain.DirectionUp,
		}
	case d.cfg.DetectDown && newest.Low < prev.Low-d.cfg.Epsilon:
		return &domain.BreakoutEvent{
			CandleIndex: newest.Index,
			DetectedAt:  d.now(),
			Direction:   domain.DirectionDown,
		}
	}
	return nil
}
