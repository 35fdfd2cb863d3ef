package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"scalptrainer/config"
	"scalptrainer/internal/adapters/feed"
	"scalptrainer/internal/adapters/logger"
	"scalptrainer/internal/adapters/metrics"
	"scalptrainer/internal/adapters/sqlite"
	"scalptrainer/internal/app"
	"scalptrainer/internal/scoring"
	"scalptrainer/internal/sim"
	"scalptrainer/internal/trade"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Seed the random source. Seed 0 means a fresh run each time;
	// any other value reproduces a session exactly.
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	appLogger.Info(context.Background(), "Random source seeded", map[string]interface{}{"seed": seed})

	// 4. Initialize Trade Journal (Database Adapter)
	journal, err := sqlite.NewJournal(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize trade journal")
		log.Fatalf("FATAL: Failed to initialize trade journal: %v", err)
	}
	defer func() {
		if err := journal.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing trade journal")
		}
	}()
	appLogger.Info(context.Background(), "Trade journal initialized")

	// 5. Initialize Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	mets := metrics.New(registry)

	// 6. Initialize Simulation Components
	generator, err := sim.NewGenerator(sim.GeneratorConfig{
		BaselinePrice:        cfg.BaselinePrice,
		TrendStrengthMin:     cfg.TrendStrengthMin,
		TrendStrengthMax:     cfg.TrendStrengthMax,
		VolatilityMin:        cfg.VolatilityMin,
		VolatilityMax:        cfg.VolatilityMax,
		TrendFlipChance:      cfg.TrendFlipChance,
		BreakoutPropensity:   cfg.BreakoutPropensity,
		LevelVolatilityBoost: cfg.LevelVolatilityBoost,
		LevelProximityPct:    cfg.LevelProximityPct,
		WickMaxFrac:          cfg.WickMaxFrac,
		VolumeBaseMin:        cfg.VolumeBaseMin,
		VolumeBaseMax:        cfg.VolumeBaseMax,
		ProximityVolumeBonus: cfg.ProximityVolumeBonus,
		BreakoutVolumeBonus:  cfg.BreakoutVolumeBonus,
		BreakoutEpsilon:      cfg.BreakoutEpsilon,
	}, rng, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize candle generator")
		log.Fatalf("FATAL: Failed to initialize candle generator: %v", err)
	}

	levels, err := sim.NewLevelManager(sim.LevelConfig{
		MinActive:        cfg.LevelMinActive,
		MaxActive:        cfg.LevelMaxActive,
		BandPct:          cfg.LevelBandPct,
		MinSpacingPct:    cfg.LevelMinSpacing,
		MaxSynthAttempts: cfg.LevelSynthTries,
		StrengthMin:      cfg.LevelStrengthMin,
		StrengthMax:      cfg.LevelStrengthMax,
		BaseStrength:     cfg.LevelBaseStrength,
		BreakThreshold:   cfg.LevelBreakThresh,
		ExpiryWindow:     cfg.LevelExpiryWindow,
		PruneAfter:       cfg.LevelPruneAfter,
		VolatilityPeriod: cfg.VolatilityPeriod,
		BiasStep:         cfg.LevelBiasStep,
		BiasWindowPct:    cfg.LevelBiasWindow,
	}, rng, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize level manager")
		log.Fatalf("FATAL: Failed to initialize level manager: %v", err)
	}

	detector, err := sim.NewDetector(sim.DetectorConfig{
		Epsilon:    cfg.BreakoutEpsilon,
		DetectDown: cfg.DetectDownBreaks,
	}, nil)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize breakout detector")
		log.Fatalf("FATAL: Failed to initialize breakout detector: %v", err)
	}

	trades, err := trade.NewManager(trade.Config{
		OutcomeMode:    trade.OutcomeMode(cfg.OutcomeMode),
		BreakoutWindow: cfg.BreakoutWindow,
	}, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize trade manager")
		log.Fatalf("FATAL: Failed to initialize trade manager: %v", err)
	}
	if cfg.DebugMode && !trades.Debug() {
		trades.ToggleDebug()
	}

	// 7. Initialize the Engine
	engine, err := app.New(app.Deps{
		Cfg:       cfg,
		Logger:    appLogger,
		Generator: generator,
		Levels:    levels,
		Detector:  detector,
		Trades:    trades,
		Score:     scoring.NewTracker(),
		Journal:   journal,
		Metrics:   mets,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize engine")
		log.Fatalf("FATAL: Failed to initialize engine: %v", err)
	}
	appLogger.Info(context.Background(), "Engine initialized")

	// 8. Initialize the Feed Server
	server, err := feed.NewServer(feed.Config{
		Addr:           cfg.ListenAddr,
		Logger:         appLogger,
		Engine:         engine,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize feed server")
		log.Fatalf("FATAL: Failed to initialize feed server: %v", err)
	}

	go func() {
		if err := server.Start(); err != nil {
			appLogger.Error(context.Background(), err, "Feed server exited with error")
		}
	}()

	// 9. Run the simulation loop until interrupted.
	if err := engine.Start(context.Background()); err != nil {
		appLogger.Error(context.Background(), err, "Engine exited with error")
		log.Fatalf("FATAL: Engine exited with error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(context.Background(), err, "Error shutting down feed server")
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
