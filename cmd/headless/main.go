package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"scalptrainer/config"
	"scalptrainer/internal/adapters/logger"
	"scalptrainer/internal/adapters/metrics"
	"scalptrainer/internal/app"
	"scalptrainer/internal/domain"
	"scalptrainer/internal/scoring"
	"scalptrainer/internal/sim"
	"scalptrainer/internal/trade"
	"scalptrainer/internal/utils"
)

// memJournal keeps closed trades in memory for the duration of the run.
// Headless runs are throwaway sessions; persisting them would pollute
// the interactive journal.
type memJournal struct {
	mu      sync.Mutex
	records []*domain.TradeRecord
}

func (j *memJournal) Append(_ context.Context, rec *domain.TradeRecord) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	stored := *rec
	stored.ID = int64(len(j.records) + 1)
	j.records = append(j.records, &stored)
	return stored.ID, nil
}

func (j *memJournal) Recent(_ context.Context, limit int) ([]*domain.TradeRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]*domain.TradeRecord, 0, limit)
	for i := len(j.records) - 1; i >= 0 && len(out) < limit; i-- {
		rec := *j.records[i]
		out = append(out, &rec)
	}
	return out, nil
}

func main() {
	ticks := flag.Int("ticks", 500, "number of simulated candles to run")
	holdBars := flag.Int("hold", 3, "candles to hold an auto-entered trade before exiting")
	candlesCSV := flag.String("candles-csv", "", "optional path to dump the final candle window as CSV")
	tradesCSV := flag.String("trades-csv", "", "optional path to dump closed trades as CSV")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	// Headless runs judge exits by price, not by keystroke.
	cfg.OutcomeMode = string(trade.OutcomeComputed)
	cfg.AutoConfirm = true

	appLogger := logger.NewStdLogger(cfg.LogLevel)

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	appLogger.Info(context.Background(), "Headless run starting", map[string]interface{}{
		"seed":  seed,
		"ticks": *ticks,
	})

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
		log.Fatalf("FATAL: Failed to initialize level manager: %v", err)
	}

	detector, err := sim.NewDetector(sim.DetectorConfig{
		Epsilon:    cfg.BreakoutEpsilon,
		DetectDown: cfg.DetectDownBreaks,
	}, nil)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize breakout detector: %v", err)
	}

	trades, err := trade.NewManager(trade.Config{
		OutcomeMode:    trade.OutcomeMode(cfg.OutcomeMode),
		BreakoutWindow: cfg.BreakoutWindow,
	}, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize trade manager: %v", err)
	}

	journal := &memJournal{}
	engine, err := app.New(app.Deps{
		Cfg:       cfg,
		Logger:    appLogger,
		Generator: generator,
		Levels:    levels,
		Detector:  detector,
		Trades:    trades,
		Score:     scoring.NewTracker(),
		Journal:   journal,
		Metrics:   metrics.New(prometheus.NewRegistry()),
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize engine: %v", err)
	}

	ctx := context.Background()
	barsHeld := 0
	for i := 0; i < *ticks; i++ {
		engine.Tick(ctx)
		snap := engine.Snapshot()

		switch {
		case snap.Session != nil && snap.Session.State == domain.StateEntered:
			barsHeld++
			if barsHeld >= *holdBars {
				// Outcome mode is computed, so the hint is superseded by
				// the actual price move.
				if err := engine.Apply(ctx, app.ActionExitBreakeven); err != nil {
					appLogger.Warn(ctx, "Auto exit rejected", map[string]interface{}{"error": err.Error()})
				}
				barsHeld = 0
			}
		case snap.Breakout != nil:
			if err := engine.Apply(ctx, app.ActionEnterBreakout); err != nil {
				appLogger.Warn(ctx, "Auto entry rejected", map[string]interface{}{"error": err.Error()})
			}
			barsHeld = 0
		}
	}

	final := engine.Snapshot()
	summary, err := json.MarshalIndent(final.Stats, "", "  ")
	if err != nil {
		log.Fatalf("FATAL: Failed to marshal run summary: %v", err)
	}
	fmt.Fprintln(os.Stdout, string(summary))

	if *candlesCSV != "" {
		if err := utils.WriteCandlesToCSV(engine.History(), *candlesCSV); err != nil {
			appLogger.Error(ctx, err, "Failed to write candle CSV", map[string]interface{}{"path": *candlesCSV})
		}
	}
	if *tradesCSV != "" {
		recs, _ := journal.Recent(ctx, len(journal.records))
		if err := utils.WriteTradesToCSV(recs, *tradesCSV); err != nil {
			appLogger.Error(ctx, err, "Failed to write trade CSV", map[string]interface{}{"path": *tradesCSV})
		}
	}
}
