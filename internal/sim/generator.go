package sim

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"scalptrainer/internal/domain"
	"scalptrainer/internal/ports"
)

// GeneratorConfig holds parameters for the candle generator.
type GeneratorConfig struct {
	BaselinePrice float64 // Seed price for the first candle of a session

	TrendStrengthMin float64 // Lower bound of the per-candle trend drift
	TrendStrengthMax float64 // Upper bound of the per-candle trend drift
	VolatilityMin    float64 // Lower bound of the regime volatility
	VolatilityMax    float64 // Upper bound of the regime volatility
	TrendFlipChance  float64 // Per-candle probability of a trend regime change

	BreakoutPropensity  float64 // Weight of a clean break vs a bounce at a level
	LevelVolatilityBoost float64 // Extra volatility fraction near levels and on breaks
	LevelProximityPct   float64 // Distance to a level counted as "near", as a price fraction
	WickMaxFrac         float64 // Max wick length as a fraction of effective volatility

	VolumeBaseMin        float64 // Lower bound of the base volume draw
	VolumeBaseMax        float64 // Upper bound of the base volume draw
	ProximityVolumeBonus float64 // Volume multiplier near an active level
	BreakoutVolumeBonus  float64 // Volume multiplier on a breakout candle; must exceed the proximity bonus

	BreakoutEpsilon float64 // Minimum excess over the previous high to count as a break
}

// Validate checks the configuration, accumulating all violations so a
// malformed parameter set is rejected before the simulation starts.
func (c GeneratorConfig) Validate() error {
	var errs []string

	if c.BaselinePrice <= 0 {
		errs = append(errs, "baseline price must be positive")
	}
	if c.TrendStrengthMin <= 0 || c.TrendStrengthMax < c.TrendStrengthMin {
		errs = append(errs, "trend strength bounds must satisfy 0 < min <= max")
	}
	if c.VolatilityMin <= 0 || c.VolatilityMax < c.VolatilityMin {
		errs = append(errs, "volatility bounds must satisfy 0 < min <= max")
	}
	if c.TrendFlipChance < 0 || c.TrendFlipChance >= 1 {
		errs = append(errs, "trend flip chance must be in [0, 1)")
	}
	if c.BreakoutPropensity <= 0 {
		errs = append(errs, "breakout propensity must be positive")
	}
	if c.LevelVolatilityBoost < 0 {
		errs = append(errs, "level volatility boost cannot be negative")
	}
	if c.LevelProximityPct <= 0 {
		errs = append(errs, "level proximity fraction must be positive")
	}
	if c.WickMaxFrac <= 0 {
		errs = append(errs, "wick fraction must be positive")
	}
	if c.VolumeBaseMin < 0 || c.VolumeBaseMax < c.VolumeBaseMin {
		errs = append(errs, "volume bounds must satisfy 0 <= min <= max")
	}
	if c.ProximityVolumeBonus < 1 {
		errs = append(errs, "proximity volume bonus must be at least 1")
	}
	if c.BreakoutVolumeBonus <= c.ProximityVolumeBonus {
		errs = append(errs, "breakout volume bonus must exceed the proximity bonus")
	}
	if c.BreakoutEpsilon < 0 {
		errs = append(errs, "breakout epsilon cannot be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ports.ErrConfigurationError, strings.Join(errs, "; "))
	}
	return nil
}

// Generator produces the next OHLCV candle from a bounded random walk
// biased by the trend regime and the active support/resistance levels.
// All randomness flows through the injected source so a seeded run is
// fully reproducible.
type Generator struct {
	cfg    GeneratorConfig
	rng    *rand.Rand
	logger ports.Logger

	trend         float64 // +1 uptrend, -1 downtrend
	trendStrength float64
	volatility    float64
	breakoutMode  bool // Regime that favors clean breaks over bounces
}

// NewGenerator creates a candle generator with a freshly rolled trend
// regime.
func NewGenerator(cfg GeneratorConfig, rng *rand.Rand, logger ports.Logger) (*Generator, error) {
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is required", ports.ErrConfigurationError)
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: logger is required", ports.ErrConfigurationError)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g := &Generator{cfg: cfg, rng: rng, logger: logger}
	g.trend = 1
	if g.rng.Float64() < 0.5 {
		g.trend = -1
	}
	g.rollRegime()
	return g, nil
}

// Volatility returns the current regime volatility.
func (g *Generator) Volatility() float64 {
	return g.volatility
}

// Seed produces the first candle of a session from the baseline price.
func (g *Generator) Seed(now time.Time) *domain.Candle {
	prev := &domain.Candle{
		Index: -1,
		Close: g.cfg.BaselinePrice,
		High:  g.cfg.BaselinePrice,
	}
	return g.Next(prev, nil, 0, now)
}

// Next produces the candle following prev. The open always equals the
// previous close; the body comes from the random walk skewed by
// trendBias; crossing an active level triggers either a bounce back
// toward the open or a clean break through, never both on one candle.
func (g *Generator) Next(prev *domain.Candle, levels []*domain.Level, trendBias float64, now time.Time) *domain.Candle {
	open := prev.Close

	effVol := g.volatility
	if nearestLevelWithin(open, levels, g.cfg.LevelProximityPct*open) != nil {
		effVol *= 1 + g.cfg.LevelVolatilityBoost
	}

	baseMove := g.trend*g.trendStrength*(0.5+g.rng.Float64()) + trendBias
	randMove := (g.rng.Float64()*2 - 1) * effVol
	close := open + baseMove + randMove

	if lvl := crossedLevel(open, close, levels); lvl != nil {
		breakWeight := g.cfg.BreakoutPropensity
		if g.breakoutMode {
			breakWeight *= 3
		}
		pBreak := breakWeight / (breakWeight + float64(lvl.Strength))
		if g.rng.Float64() < pBreak {
			// Clean break: the close punches through with some margin,
			// and wicks run wider.
			sign := 1.0
			if close < open {
				sign = -1
			}
			close = lvl.Price + sign*(0.2+0.3*g.rng.Float64())*effVol
			effVol *= 1 + g.cfg.LevelVolatilityBoost
		} else {
			// Bounce: the close is pulled back toward the open, staying
			// on the near side of the level.
			close = open + (lvl.Price-open)*g.rng.Float64()*0.6
		}
	}
	if close <= 0 {
		close = open * 0.5
	}

	bodyTop := math.Max(open, close)
	bodyBottom := math.Min(open, close)
	high := bodyTop + g.rng.Float64()*effVol*g.cfg.WickMaxFrac
	low := bodyBottom - g.rng.Float64()*effVol*g.cfg.WickMaxFrac
	if low <= 0 {
		low = bodyBottom / 2
	}

	volume := g.cfg.VolumeBaseMin + g.rng.Float64()*(g.cfg.VolumeBaseMax-g.cfg.VolumeBaseMin)
	switch {
	case high > prev.High+g.cfg.BreakoutEpsilon:
		volume *= g.cfg.BreakoutVolumeBonus
	case nearestLevelWithin(close, levels, g.cfg.LevelProximityPct*close) != nil:
		volume *= g.cfg.ProximityVolumeBonus
	}

	if g.rng.Float64() < g.cfg.TrendFlipChance {
		g.trend = -g.trend
		g.rollRegime()
	}

	return &domain.Candle{
		Index:     prev.Index + 1,
		Timestamp: now,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     close,
		Volume:    volume,
	}
}

// rollRegime re-draws trend strength, volatility and the breakout
// disposition. Called at construction and on every trend flip.
func (g *Generator) rollRegime() {
	g.trendStrength = g.cfg.TrendStrengthMin + g.rng.Float64()*(g.cfg.TrendStrengthMax-g.cfg.TrendStrengthMin)
	g.volatility = g.cfg.VolatilityMin + g.rng.Float64()*(g.cfg.VolatilityMax-g.cfg.VolatilityMin)
	g.breakoutMode = g.rng.Float64() < g.cfg.BreakoutPropensity
}

// nearestLevelWithin returns the closest active level within dist of
// price, or nil.
func nearestLevelWithin(price float64, levels []*domain.Level, dist float64) *domain.Level {
	var nearest *domain.Level
	best := dist
	for _, l := range levels {
		if !l.Active {
			continue
		}
		d := math.Abs(l.Price - price)
		if d <= best {
			best = d
			nearest = l
		}
	}
	return nearest
}

// crossedLevel returns the first active level whose price lies between
// the open and the projected close.
func crossedLevel(open, close float64, levels []*domain.Level) *domain.Level {
	lo := math.Min(open, close)
	hi := math.Max(open, close)
	for _, l := range levels {
		if l.Active && lo < l.Price && l.Price < hi {
			return l
		}
	}
	return nil
}
