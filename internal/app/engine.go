package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"scalptrainer/config"
	"scalptrainer/internal/adapters/metrics"
	"scalptrainer/internal/domain"
	"scalptrainer/internal/ports"
	"scalptrainer/internal/scoring"
	"scalptrainer/internal/sim"
	"scalptrainer/internal/trade"
)

// Action is a discrete input event applied to the engine. Each maps to
// one atomic state transition; invalid transitions are rejected with a
// typed error and leave all state unchanged.
type Action string

const (
	ActionEnterLong     Action = "enter_long"
	ActionEnterShort    Action = "enter_short"
	ActionEnterBreakout Action = "enter_breakout"
	ActionConfirmEntry  Action = "confirm_entry"
	ActionCancelSetup   Action = "cancel_setup"
	ActionExitProfit    Action = "exit_profit"
	ActionExitLoss      Action = "exit_loss"
	ActionExitBreakeven Action = "exit_breakeven"
	ActionResetStats    Action = "reset_stats"
	ActionToggleDebug   Action = "toggle_debug_mode"
	ActionPause         Action = "pause"
	ActionResume        Action = "resume"
)

// Snapshot is the read-only view of the engine state produced for the
// rendering layer once per frame or tick.
type Snapshot struct {
	Candles  []domain.Candle
	Levels   []domain.Level
	Breakout *domain.BreakoutEvent // Most recent unconsumed event, nil when none
	Session  *domain.TradeSession  // Current session, nil when idle
	Stats    scoring.Summary
	Paused   bool
	Debug    bool
}

// Deps bundles the engine's collaborators.
type Deps struct {
	Cfg       *config.Config
	Logger    ports.Logger
	Generator *sim.Generator
	Levels    *sim.LevelManager
	Detector  *sim.Detector
	Trades    *trade.Manager
	Score     *scoring.Tracker
	Journal   ports.TradeJournal
	Metrics   *metrics.Metrics
	Now       func() time.Time // Optional; defaults to time.Now
}

// Engine owns all simulation state and serializes every mutation,
// periodic ticks and discrete input actions alike, through a single mutex,
// so a trade action and a tick never interleave partially.
type Engine struct {
	cfg     *config.Config
	logger  ports.Logger
	gen     *sim.Generator
	levels  *sim.LevelManager
	det     *sim.Detector
	trades  *trade.Manager
	score   *scoring.Tracker
	journal ports.TradeJournal
	metrics *metrics.Metrics
	now     func() time.Time

	mu          sync.Mutex
	history     []*domain.Candle
	latestEvent *domain.BreakoutEvent
	paused      bool

	onTick func(Snapshot) // Broadcast hook, called outside the lock
}

// New creates the engine and pre-seeds the rolling history to full
// capacity, the way a practice session starts with a drawn chart.
func New(d Deps) (*Engine, error) {
	if d.Cfg == nil || d.Logger == nil || d.Generator == nil || d.Levels == nil ||
		d.Detector == nil || d.Trades == nil || d.Score == nil || d.Journal == nil || d.Metrics == nil {
		return nil, fmt.Errorf("%w: missing required engine dependencies", ports.ErrConfigurationError)
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	e := &Engine{
		cfg:     d.Cfg,
		logger:  d.Logger,
		gen:     d.Generator,
		levels:  d.Levels,
		det:     d.Detector,
		trades:  d.Trades,
		score:   d.Score,
		journal: d.Journal,
		metrics: d.Metrics,
		now:     d.Now,
		history: make([]*domain.Candle, 0, d.Cfg.HistoryCapacity),
	}
	e.seedHistory(context.Background())
	return e, nil
}

// seedHistory fills the window with generated candles so the chart is
// complete from the first frame. Levels form during seeding; breakout
// detection only starts on live ticks.
func (e *Engine) seedHistory(ctx context.Context) {
	now := e.now()
	candle := e.gen.Seed(now)
	e.history = append(e.history, candle)
	active := e.levels.Tick(ctx, e.history)
	for len(e.history) < e.cfg.HistoryCapacity {
		bias := e.levels.Bias(candle.Close)
		candle = e.gen.Next(candle, active, bias, now)
		e.history = append(e.history, candle)
		active = e.levels.Tick(ctx, e.history)
	}
	e.logger.Info(ctx, "History seeded", map[string]interface{}{
		"candles": len(e.history),
		"levels":  len(active),
	})
}

// OnTick registers a hook invoked with a fresh snapshot after every
// processed tick. Used by the feed server to push frames.
func (e *Engine) OnTick(fn func(Snapshot)) {
	e.onTick = fn
}

// Start runs the tick scheduler until the context is cancelled or a
// termination signal arrives. All the work happens in Tick; pausing
// freezes the scheduler only, in-flight session state is preserved.
func (e *Engine) Start(ctx context.Context) error {
	e.logger.Info(ctx, "Starting simulation engine", map[string]interface{}{
		"tickInterval": e.cfg.TickInterval.String(),
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			e.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info(ctx, "Simulation engine stopped")
			return nil
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}

// Tick advances the simulation one bar: generate, append, update
// levels, detect breakouts. A no-op while paused.
func (e *Engine) Tick(ctx context.Context) {
	e.mu.Lock()
	if e.paused {
		e.mu.Unlock()
		return
	}

	now := e.now()
	last := e.history[len(e.history)-1]
	bias := e.levels.Bias(last.Close)
	candle := e.gen.Next(last, e.levels.Active(), bias, now)

	e.history = append(e.history, candle)
	if len(e.history) > e.cfg.HistoryCapacity {
		e.history = e.history[len(e.history)-e.cfg.HistoryCapacity:]
	}

	active := e.levels.Tick(ctx, e.history)
	e.metrics.CandlesTotal.Inc()
	e.metrics.ActiveLevels.Set(float64(len(active)))

	if ev := e.det.Evaluate(e.history); ev != nil {
		e.latestEvent = ev
		e.score.RecordBreakout()
		e.metrics.BreakoutsTotal.WithLabelValues(string(ev.Direction)).Inc()
		e.logger.Info(ctx, "Breakout detected", map[string]interface{}{
			"index":     ev.CandleIndex,
			"direction": ev.Direction,
			"high":      candle.High,
			"volume":    candle.Volume,
		})
	}

	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	if e.onTick != nil {
		e.onTick(snapshot)
	}
}

// Apply executes one input action atomically relative to the tick.
func (e *Engine) Apply(ctx context.Context, action Action) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	switch action {
	case ActionEnterLong:
		return e.enter(ctx, domain.SideLong, now)
	case ActionEnterShort:
		return e.enter(ctx, domain.SideShort, now)
	case ActionEnterBreakout:
		return e.enter(ctx, domain.SideBreakout, now)
	case ActionConfirmEntry:
		return e.trades.Confirm(ctx, e.lastClose(), now)
	case ActionCancelSetup:
		return e.trades.Cancel(ctx)
	case ActionExitProfit:
		return e.exit(ctx, domain.OutcomeProfit, now)
	case ActionExitLoss:
		return e.exit(ctx, domain.OutcomeLoss, now)
	case ActionExitBreakeven:
		return e.exit(ctx, domain.OutcomeBreakeven, now)
	case ActionResetStats:
		e.score.Reset()
		e.logger.Info(ctx, "Statistics reset")
		return nil
	case ActionToggleDebug:
		on := e.trades.ToggleDebug()
		e.logger.Info(ctx, "Practice mode toggled", map[string]interface{}{"enabled": on})
		return nil
	case ActionPause:
		e.paused = true
		e.logger.Info(ctx, "Simulation paused")
		return nil
	case ActionResume:
		e.paused = false
		e.logger.Info(ctx, "Simulation resumed")
		return nil
	default:
		return fmt.Errorf("%w: %q", ports.ErrUnknownAction, action)
	}
}

// enter arms a setup and, when auto-confirm is on, completes the entry
// in the same atomic step (the original one-keystroke flow).
func (e *Engine) enter(ctx context.Context, side domain.Side, now time.Time) error {
	if err := e.trades.Setup(ctx, side, e.latestEvent, now); err != nil {
		return err
	}
	if !e.cfg.AutoConfirm {
		return nil
	}
	return e.trades.Confirm(ctx, e.lastClose(), now)
}

// exit closes the entered trade and folds the result into the score
// tracker, the metrics, and the journal.
func (e *Engine) exit(ctx context.Context, hint domain.Outcome, now time.Time) error {
	rec, err := e.trades.Exit(ctx, hint, e.lastClose(), now)
	if err != nil {
		return err
	}

	e.score.Record(rec)
	e.metrics.TradesTotal.WithLabelValues(string(rec.Outcome)).Inc()
	if rec.FromBreakout {
		e.metrics.ReactionSeconds.Observe(rec.ReactionTime.Seconds())
	}

	// Journal failures must not reject a valid exit; the trade already
	// counted, so log and move on.
	if _, err := e.journal.Append(ctx, rec); err != nil {
		e.logger.Error(ctx, err, "Failed to journal closed trade", map[string]interface{}{
			"side":    rec.Side,
			"outcome": rec.Outcome,
		})
	}
	return nil
}

// Snapshot returns a consistent read-only copy of the engine state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// snapshotLocked builds the snapshot. Callers hold e.mu.
func (e *Engine) snapshotLocked() Snapshot {
	candles := make([]domain.Candle, len(e.history))
	for i, c := range e.history {
		candles[i] = *c
	}

	all := e.levels.All()
	levels := make([]domain.Level, len(all))
	for i, l := range all {
		levels[i] = *l
	}

	var breakout *domain.BreakoutEvent
	if ev := e.latestEvent; ev != nil && !ev.Consumed && e.now().Sub(ev.DetectedAt) <= e.cfg.BreakoutWindow {
		evCopy := *ev
		breakout = &evCopy
	}

	return Snapshot{
		Candles:  candles,
		Levels:   levels,
		Breakout: breakout,
		Session:  e.trades.Current(),
		Stats:    e.score.Snapshot(),
		Paused:   e.paused,
		Debug:    e.trades.Debug(),
	}
}

// History returns a copy of the rolling candle window.
func (e *Engine) History() []domain.Candle {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.Candle, len(e.history))
	for i, c := range e.history {
		out[i] = *c
	}
	return out
}

func (e *Engine) lastClose() float64 {
	return e.history[len(e.history)-1].Close
}
