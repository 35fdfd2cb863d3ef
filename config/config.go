package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"scalptrainer/internal/adapters/logger" // Import the logger package for LogLevel
)

// Config holds all application configuration.
type Config struct {
	// Tick scheduling
	TickInterval    time.Duration // Simulated bar interval (default 3s)
	HistoryCapacity int           // Rolling candle window size

	// Candle generation
	BaselinePrice        float64
	TrendStrengthMin     float64
	TrendStrengthMax     float64
	VolatilityMin        float64
	VolatilityMax        float64
	TrendFlipChance      float64
	BreakoutPropensity   float64
	LevelVolatilityBoost float64
	LevelProximityPct    float64
	WickMaxFrac          float64
	VolumeBaseMin        float64
	VolumeBaseMax        float64
	ProximityVolumeBonus float64
	BreakoutVolumeBonus  float64

	// Breakout detection
	BreakoutEpsilon  float64
	DetectDownBreaks bool

	// Support/resistance levels
	LevelMinActive    int
	LevelMaxActive    int
	LevelBandPct      float64
	LevelMinSpacing   float64
	LevelSynthTries   int
	LevelStrengthMin  int
	LevelStrengthMax  int
	LevelBaseStrength int
	LevelBreakThresh  float64
	LevelExpiryWindow int
	LevelPruneAfter   int
	VolatilityPeriod  int
	LevelBiasStep     float64
	LevelBiasWindow   float64

	// Trade sessions
	OutcomeMode    string        // "declared" or "computed"
	AutoConfirm    bool          // Collapse enter actions into setup+confirm
	BreakoutWindow time.Duration // Recency window for breakout entries
	DebugMode      bool          // Practice mode: breakout entries need no event

	// Reproducibility
	Seed int64 // 0 means derive from the current time

	// Journal
	DBPath string

	// Feed server
	ListenAddr string

	// Logging
	LogLevel logger.LogLevel
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []string // Collect validation errors

	// Tick scheduling
	tickSeconds := getEnvAsFloat("TICK_INTERVAL_SECONDS", 3.0)
	if tickSeconds <= 0 {
		errs = append(errs, "TICK_INTERVAL_SECONDS must be positive")
	}
	cfg.TickInterval = time.Duration(tickSeconds * float64(time.Second))

	cfg.HistoryCapacity = getEnvAsInt("HISTORY_CAPACITY", 50)
	if cfg.HistoryCapacity <= 1 {
		errs = append(errs, "HISTORY_CAPACITY must be greater than 1")
	}

	// Candle generation
	cfg.BaselinePrice = getEnvAsFloat("BASELINE_PRICE", 100.0)
	if cfg.BaselinePrice <= 0 {
		errs = append(errs, "BASELINE_PRICE must be positive")
	}

	cfg.TrendStrengthMin = getEnvAsFloat("TREND_STRENGTH_MIN", 0.1)
	cfg.TrendStrengthMax = getEnvAsFloat("TREND_STRENGTH_MAX", 0.3)
	if cfg.TrendStrengthMin <= 0 || cfg.TrendStrengthMax < cfg.TrendStrengthMin {
		errs = append(errs, "trend strength bounds must satisfy 0 < TREND_STRENGTH_MIN <= TREND_STRENGTH_MAX")
	}

	cfg.VolatilityMin = getEnvAsFloat("VOLATILITY_MIN", 0.5)
	cfg.VolatilityMax = getEnvAsFloat("VOLATILITY_MAX", 2.0)
	if cfg.VolatilityMin <= 0 || cfg.VolatilityMax < cfg.VolatilityMin {
		errs = append(errs, "volatility bounds must satisfy 0 < VOLATILITY_MIN <= VOLATILITY_MAX")
	}

	cfg.TrendFlipChance = getEnvAsFloat("TREND_FLIP_CHANCE", 0.05)
	if cfg.TrendFlipChance < 0 || cfg.TrendFlipChance >= 1 {
		errs = append(errs, "TREND_FLIP_CHANCE must be in [0, 1)")
	}

	cfg.BreakoutPropensity = getEnvAsFloat("BREAKOUT_PROPENSITY", 0.35)
	if cfg.BreakoutPropensity <= 0 {
		errs = append(errs, "BREAKOUT_PROPENSITY must be positive")
	}

	cfg.LevelVolatilityBoost = getEnvAsFloat("LEVEL_VOLATILITY_BOOST", 0.5)
	cfg.LevelProximityPct = getEnvAsFloat("LEVEL_PROXIMITY_PCT", 0.01)
	cfg.WickMaxFrac = getEnvAsFloat("WICK_MAX_FRAC", 0.5)
	if cfg.LevelVolatilityBoost < 0 || cfg.LevelProximityPct <= 0 || cfg.WickMaxFrac <= 0 {
		errs = append(errs, "level volatility boost, proximity fraction and wick fraction must be valid")
	}

	cfg.VolumeBaseMin = getEnvAsFloat("VOLUME_BASE_MIN", 100.0)
	cfg.VolumeBaseMax = getEnvAsFloat("VOLUME_BASE_MAX", 1000.0)
	if cfg.VolumeBaseMin < 0 || cfg.VolumeBaseMax < cfg.VolumeBaseMin {
		errs = append(errs, "volume bounds must satisfy 0 <= VOLUME_BASE_MIN <= VOLUME_BASE_MAX")
	}

	cfg.ProximityVolumeBonus = getEnvAsFloat("PROXIMITY_VOLUME_BONUS", 1.5)
	cfg.BreakoutVolumeBonus = getEnvAsFloat("BREAKOUT_VOLUME_BONUS", 2.5)
	if cfg.ProximityVolumeBonus < 1 {
		errs = append(errs, "PROXIMITY_VOLUME_BONUS must be at least 1")
	}
	if cfg.BreakoutVolumeBonus <= cfg.ProximityVolumeBonus {
		errs = append(errs, "BREAKOUT_VOLUME_BONUS must exceed PROXIMITY_VOLUME_BONUS")
	}

	// Breakout detection
	cfg.BreakoutEpsilon = getEnvAsFloat("BREAKOUT_EPSILON", 0.01)
	if cfg.BreakoutEpsilon < 0 {
		errs = append(errs, "BREAKOUT_EPSILON cannot be negative")
	}
	cfg.DetectDownBreaks = getEnvAsBool("DETECT_DOWN_BREAKS", false)

	// Support/resistance levels
	cfg.LevelMinActive = getEnvAsInt("LEVEL_MIN_ACTIVE", 4)
	cfg.LevelMaxActive = getEnvAsInt("LEVEL_MAX_ACTIVE", 6)
	if cfg.LevelMinActive <= 0 || cfg.LevelMaxActive < cfg.LevelMinActive {
		errs = append(errs, "level counts must satisfy 0 < LEVEL_MIN_ACTIVE <= LEVEL_MAX_ACTIVE")
	}

	cfg.LevelBandPct = getEnvAsFloat("LEVEL_BAND_PCT", 0.04)
	cfg.LevelMinSpacing = getEnvAsFloat("LEVEL_MIN_SPACING_PCT", 0.008)
	if cfg.LevelBandPct <= 0 || cfg.LevelMinSpacing <= 0 {
		errs = append(errs, "LEVEL_BAND_PCT and LEVEL_MIN_SPACING_PCT must be positive")
	}

	cfg.LevelSynthTries = getEnvAsInt("LEVEL_SYNTH_ATTEMPTS", 8)
	if cfg.LevelSynthTries <= 0 {
		errs = append(errs, "LEVEL_SYNTH_ATTEMPTS must be positive")
	}

	cfg.LevelStrengthMin = getEnvAsInt("LEVEL_STRENGTH_MIN", 1)
	cfg.LevelStrengthMax = getEnvAsInt("LEVEL_STRENGTH_MAX", 5)
	cfg.LevelBaseStrength = getEnvAsInt("LEVEL_BASE_STRENGTH", 1)
	if cfg.LevelStrengthMin <= 0 || cfg.LevelStrengthMax < cfg.LevelStrengthMin || cfg.LevelBaseStrength <= 0 {
		errs = append(errs, "level strength bounds must be positive with min <= max")
	}

	cfg.LevelBreakThresh = getEnvAsFloat("LEVEL_BREAK_THRESHOLD", 0.5)
	if cfg.LevelBreakThresh <= 0 {
		errs = append(errs, "LEVEL_BREAK_THRESHOLD must be positive")
	}

	cfg.LevelExpiryWindow = getEnvAsInt("LEVEL_EXPIRY_WINDOW", 40)
	cfg.LevelPruneAfter = getEnvAsInt("LEVEL_PRUNE_AFTER", 10)
	if cfg.LevelExpiryWindow <= 0 || cfg.LevelPruneAfter < 0 {
		errs = append(errs, "LEVEL_EXPIRY_WINDOW must be positive and LEVEL_PRUNE_AFTER non-negative")
	}

	cfg.VolatilityPeriod = getEnvAsInt("VOLATILITY_PERIOD", 14)
	if cfg.VolatilityPeriod <= 0 {
		errs = append(errs, "VOLATILITY_PERIOD must be positive")
	}

	cfg.LevelBiasStep = getEnvAsFloat("LEVEL_BIAS_STEP", 0.02)
	cfg.LevelBiasWindow = getEnvAsFloat("LEVEL_BIAS_WINDOW_PCT", 0.015)
	if cfg.LevelBiasStep < 0 || cfg.LevelBiasWindow <= 0 {
		errs = append(errs, "LEVEL_BIAS_STEP must be non-negative and LEVEL_BIAS_WINDOW_PCT positive")
	}

	// Trade sessions
	cfg.OutcomeMode = strings.ToLower(getEnv("OUTCOME_MODE", "declared"))
	if cfg.OutcomeMode != "declared" && cfg.OutcomeMode != "computed" {
		errs = append(errs, "OUTCOME_MODE must be 'declared' or 'computed'")
	}
	cfg.AutoConfirm = getEnvAsBool("AUTO_CONFIRM", true)
	cfg.DebugMode = getEnvAsBool("DEBUG_MODE", false)

	breakoutWindowSeconds := getEnvAsFloat("BREAKOUT_WINDOW_SECONDS", 10.0)
	if breakoutWindowSeconds <= 0 {
		errs = append(errs, "BREAKOUT_WINDOW_SECONDS must be positive")
	}
	cfg.BreakoutWindow = time.Duration(breakoutWindowSeconds * float64(time.Second))

	// Reproducibility
	cfg.Seed = int64(getEnvAsInt("SEED", 0))

	// Journal
	cfg.DBPath = getEnv("DB_PATH", "./data/scalp_trainer.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// Feed server
	cfg.ListenAddr = getEnv("LISTEN_ADDR", ":8080")
	if cfg.ListenAddr == "" {
		errs = append(errs, "LISTEN_ADDR must be set")
	}

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
