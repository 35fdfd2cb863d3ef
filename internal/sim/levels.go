package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"scalptrainer/internal/domain"
	"scalptrainer/internal/ports"
)

// LevelConfig holds parameters for the support/resistance manager.
type LevelConfig struct {
	MinActive int // Replenish when the active count drops below this
	MaxActive int // Upper bound of the replenish target

	BandPct          float64 // Synthesis offset band around the current price, as a fraction
	MinSpacingPct    float64 // Minimum distance between levels, as a fraction of price
	MaxSynthAttempts int     // Resample attempts before skipping a tick

	StrengthMin  int // Lower bound of a fresh level's strength
	StrengthMax  int // Upper bound of a fresh level's strength
	BaseStrength int // Strength after a break; broken levels retest weaker

	BreakThreshold   float64 // Close must clear the level by this fraction of volatility
	ExpiryWindow     int     // Candles untouched before a level deactivates
	PruneAfter       int     // Candles an inactive level is retained for display
	VolatilityPeriod int     // Lookback for the true-range volatility measure

	BiasStep float64 // Per-strength-point drift a nearby level exerts on generation
	BiasWindowPct float64 // Distance within which a level exerts bias, as a price fraction
}

// Validate checks the configuration, accumulating all violations.
func (c LevelConfig) Validate() error {
	var errs []string

	if c.MinActive <= 0 || c.MaxActive < c.MinActive {
		errs = append(errs, "active level bounds must satisfy 0 < min <= max")
	}
	if c.BandPct <= 0 {
		errs = append(errs, "synthesis band must be positive")
	}
	if c.MinSpacingPct <= 0 {
		errs = append(errs, "minimum spacing must be positive")
	}
	if c.MaxSynthAttempts <= 0 {
		errs = append(errs, "synthesis attempts must be positive")
	}
	if c.StrengthMin <= 0 || c.StrengthMax < c.StrengthMin {
		errs = append(errs, "strength bounds must satisfy 0 < min <= max")
	}
	if c.BaseStrength <= 0 {
		errs = append(errs, "base strength must be positive")
	}
	if c.BreakThreshold <= 0 {
		errs = append(errs, "break threshold must be positive")
	}
	if c.ExpiryWindow <= 0 {
		errs = append(errs, "expiry window must be positive")
	}
	if c.PruneAfter < 0 {
		errs = append(errs, "prune window cannot be negative")
	}
	if c.VolatilityPeriod <= 0 {
		errs = append(errs, "volatility period must be positive")
	}
	if c.BiasStep < 0 {
		errs = append(errs, "bias step cannot be negative")
	}
	if c.BiasWindowPct <= 0 {
		errs = append(errs, "bias window must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ports.ErrConfigurationError, strings.Join(errs, "; "))
	}
	return nil
}

// LevelManager owns the set of support/resistance levels: creation,
// touch tracking, break-and-flip, expiry and pruning. It also offers
// the price bias the candle generator feeds from.
type LevelManager struct {
	cfg    LevelConfig
	rng    *rand.Rand
	logger ports.Logger
	levels []*domain.Level
}

// NewLevelManager creates an empty level manager; the first Tick
// synthesizes the initial level set.
func NewLevelManager(cfg LevelConfig, rng *rand.Rand, logger ports.Logger) (*LevelManager, error) {
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is required", ports.ErrConfigurationError)
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: logger is required", ports.ErrConfigurationError)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &LevelManager{cfg: cfg, rng: rng, logger: logger}, nil
}

// Active returns the currently active levels.
func (m *LevelManager) Active() []*domain.Level {
	out := make([]*domain.Level, 0, len(m.levels))
	for _, l := range m.levels {
		if l.Active {
			out = append(out, l)
		}
	}
	return out
}

// All returns every retained level, including recently deactivated
// ones kept for display.
func (m *LevelManager) All() []*domain.Level {
	out := make([]*domain.Level, len(m.levels))
	copy(out, m.levels)
	return out
}

// Bias returns the drift nearby levels exert on the next candle:
// supports under the price push it up, resistances above push it down,
// each proportional to level strength.
func (m *LevelManager) Bias(price float64) float64 {
	window := m.cfg.BiasWindowPct * price
	var bias float64
	for _, l := range m.levels {
		if !l.Active {
			continue
		}
		switch {
		case l.Kind == domain.Support && l.Price <= price && price-l.Price <= window:
			bias += float64(l.Strength) * m.cfg.BiasStep
		case l.Kind == domain.Resistance && l.Price >= price && l.Price-price <= window:
			bias -= float64(l.Strength) * m.cfg.BiasStep
		}
	}
	return bias
}

// Tick processes the newest committed candle and returns the active
// level set for the next generation step.
func (m *LevelManager) Tick(ctx context.Context, history []*domain.Candle) []*domain.Level {
	if len(history) == 0 {
		return m.Active()
	}
	newest := history[len(history)-1]
	vol := TrueRangeVolatility(history, m.cfg.VolatilityPeriod)
	m.OnNewCandle(ctx, newest, vol)
	m.replenish(ctx, newest)
	return m.Active()
}

// OnNewCandle updates touch bookkeeping, applies the break rule, and
// expires levels that went untouched too long. A break flips the
// level's role and resets its strength; the level stays active.
func (m *LevelManager) OnNewCandle(ctx context.Context, c *domain.Candle, volatility float64) {
	for _, l := range m.levels {
		if !l.Active {
			continue
		}

		if c.Low <= l.Price && l.Price <= c.High {
			l.LastTouch = c.Index
		}

		// Decisive break: the candle body crosses the level and the
		// close clears it by more than the volatility-scaled threshold.
		// A wick poking through does not qualify.
		bodyCross := c.BodyBottom() < l.Price && l.Price < c.BodyTop()
		if bodyCross && math.Abs(c.Close-l.Price) > m.cfg.BreakThreshold*volatility {
			was := l.Kind
			l.Flip()
			l.Strength = m.cfg.BaseStrength
			l.LastTouch = c.Index
			m.logger.Debug(ctx, "Level broken, role reversed", map[string]interface{}{
				"price": l.Price,
				"from":  was,
				"to":    l.Kind,
				"index": c.Index,
			})
		}
	}

	for _, l := range m.levels {
		if l.Active && c.Index-l.LastTouch > m.cfg.ExpiryWindow {
			l.Active = false
			l.DeactivatedAt = c.Index
			m.logger.Debug(ctx, "Level expired untouched", map[string]interface{}{
				"price": l.Price,
				"kind":  l.Kind,
				"index": c.Index,
			})
		}
	}

	// Drop inactive levels once their display grace period lapses.
	kept := m.levels[:0]
	for _, l := range m.levels {
		if l.Active || c.Index-l.DeactivatedAt <= m.cfg.PruneAfter {
			kept = append(kept, l)
		}
	}
	m.levels = kept
}

// replenish synthesizes new levels when the active count drops below
// the minimum, up to a randomized target within [MinActive, MaxActive].
func (m *LevelManager) replenish(ctx context.Context, newest *domain.Candle) {
	if m.activeCount() >= m.cfg.MinActive {
		return
	}
	target := m.cfg.MinActive + m.rng.Intn(m.cfg.MaxActive-m.cfg.MinActive+1)
	for m.activeCount() < target {
		lvl, ok := m.synthesize(newest.Close, newest.Index)
		if !ok {
			m.logger.Debug(ctx, "Level synthesis gave up, skipping tick", map[string]interface{}{
				"active": m.activeCount(),
				"target": target,
			})
			return
		}
		m.levels = append(m.levels, lvl)
	}
}

// synthesize draws a level price offset from the current price within
// the configured band, resampling until spacing holds or the attempts
// run out.
func (m *LevelManager) synthesize(price float64, index int) (*domain.Level, bool) {
	spacing := m.cfg.MinSpacingPct * price
	for attempt := 0; attempt < m.cfg.MaxSynthAttempts; attempt++ {
		offset := (m.rng.Float64()*2 - 1) * m.cfg.BandPct * price
		candidate := price + offset
		if candidate <= 0 || math.Abs(offset) < spacing {
			continue
		}
		// A previously broken level holding only base strength is
		// superseded by the newcomer instead of blocking it. Re-check
		// after each supersession: the candidate must clear every
		// remaining active level, not just the first collision.
		blocked := false
		for blocker := m.conflicting(candidate, spacing); blocker != nil; blocker = m.conflicting(candidate, spacing) {
			if blocker.Strength > m.cfg.BaseStrength {
				blocked = true
				break
			}
			blocker.Active = false
			blocker.DeactivatedAt = index
		}
		if blocked {
			continue
		}

		kind := domain.Resistance
		if candidate < price {
			kind = domain.Support
		}
		strength := m.cfg.StrengthMin + m.rng.Intn(m.cfg.StrengthMax-m.cfg.StrengthMin+1)
		return &domain.Level{
			Price:     candidate,
			Kind:      kind,
			Strength:  strength,
			CreatedAt: index,
			LastTouch: index,
			Active:    true,
		}, true
	}
	return nil, false
}

// conflicting returns an active level within spacing of the candidate.
func (m *LevelManager) conflicting(candidate, spacing float64) *domain.Level {
	for _, l := range m.levels {
		if l.Active && math.Abs(l.Price-candidate) < spacing {
			return l
		}
	}
	return nil
}

func (m *LevelManager) activeCount() int {
	n := 0
	for _, l := range m.levels {
		if l.Active {
			n++
		}
	}
	return n
}
