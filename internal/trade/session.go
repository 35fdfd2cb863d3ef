package trade

import (
	"context"
	"fmt"
	"time"

	"scalptrainer/internal/domain"
	"scalptrainer/internal/ports"
)

// OutcomeMode selects how the exit outcome is determined.
type OutcomeMode string

const (
	// OutcomeDeclared takes the user's self-reported judgment
	// (profit/loss/breakeven keys) at face value.
	OutcomeDeclared OutcomeMode = "declared"
	// OutcomeComputed derives the outcome from the entry and exit
	// prices (sign of the move for long, inverted for short).
	OutcomeComputed OutcomeMode = "computed"
)

// Config holds parameters for the trade session manager.
type Config struct {
	OutcomeMode    OutcomeMode   // How exits are judged
	BreakoutWindow time.Duration // Recency window for breakout-origin entries
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.OutcomeMode != OutcomeDeclared && c.OutcomeMode != OutcomeComputed {
		return fmt.Errorf("%w: outcome mode must be %q or %q", ports.ErrConfigurationError, OutcomeDeclared, OutcomeComputed)
	}
	if c.BreakoutWindow <= 0 {
		return fmt.Errorf("%w: breakout entry window must be positive", ports.ErrConfigurationError)
	}
	return nil
}

// Manager is the state machine for the single in-progress trade:
// idle -> setup -> entered -> closed -> idle. Only one non-idle
// session exists at a time; requests that would overwrite in-flight
// state are rejected with typed errors and leave the state unchanged.
type Manager struct {
	cfg    Config
	logger ports.Logger

	current      *domain.TradeSession
	pendingEvent *domain.BreakoutEvent // Event backing a breakout-origin setup
	debug        bool                  // Practice mode: breakout entries need no event
}

// NewManager creates a trade session manager in the idle state.
func NewManager(cfg Config, logger ports.Logger) (*Manager, error) {
	if logger == nil {
		return nil, fmt.Errorf("%w: logger is required", ports.ErrConfigurationError)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Manager{cfg: cfg, logger: logger}, nil
}

// Current returns a copy of the in-progress session, or nil when idle.
func (m *Manager) Current() *domain.TradeSession {
	if m.current == nil {
		return nil
	}
	snapshot := *m.current
	return &snapshot
}

// Debug reports whether practice mode is on.
func (m *Manager) Debug() bool {
	return m.debug
}

// ToggleDebug flips practice mode and returns the new value.
func (m *Manager) ToggleDebug() bool {
	m.debug = !m.debug
	return m.debug
}

// Setup arms a new trade. A breakout-side setup requires an unconsumed
// event detected within the recency window, unless practice mode
// bypasses that requirement.
func (m *Manager) Setup(ctx context.Context, side domain.Side, ev *domain.BreakoutEvent, now time.Time) error {
	if m.current != nil {
		return fmt.Errorf("%w: session is %s", ports.ErrSessionActive, m.current.State)
	}

	var backing *domain.BreakoutEvent
	if side == domain.SideBreakout && !m.debug {
		if ev == nil || ev.Consumed || now.Sub(ev.DetectedAt) > m.cfg.BreakoutWindow {
			return ports.ErrNoBreakout
		}
		backing = ev
	} else if side == domain.SideBreakout {
		backing = ev // May be nil; practice mode accepts any timing
	}

	m.current = &domain.TradeSession{State: domain.StateSetup, Side: side}
	m.pendingEvent = backing
	m.logger.Debug(ctx, "Trade setup armed", map[string]interface{}{"side": side})
	return nil
}

// Confirm completes the entry: it records the entry price and time,
// consumes the backing breakout event, and computes the reaction time
// for breakout-origin entries.
func (m *Manager) Confirm(ctx context.Context, price float64, now time.Time) error {
	if m.current == nil {
		return ports.ErrNoSession
	}
	if m.current.State != domain.StateSetup {
		return fmt.Errorf("%w: confirm from %s", ports.ErrInvalidTransition, m.current.State)
	}

	m.current.State = domain.StateEntered
	m.current.EntryPrice = price
	m.current.EntryTime = now
	if m.pendingEvent != nil && !m.pendingEvent.Consumed {
		m.pendingEvent.Consumed = true
		m.current.FromBreakout = true
		m.current.ReactionTime = now.Sub(m.pendingEvent.DetectedAt)
	}
	m.pendingEvent = nil

	m.logger.Info(ctx, "Trade entered", map[string]interface{}{
		"side":       m.current.Side,
		"entryPrice": price,
		"reactionMs": m.current.ReactionTime.Milliseconds(),
	})
	return nil
}

// Cancel discards an armed setup with no score effect.
func (m *Manager) Cancel(ctx context.Context) error {
	if m.current == nil {
		return ports.ErrNoSession
	}
	if m.current.State != domain.StateSetup {
		return fmt.Errorf("%w: cancel from %s", ports.ErrInvalidTransition, m.current.State)
	}
	m.current = nil
	m.pendingEvent = nil
	m.logger.Debug(ctx, "Trade setup cancelled")
	return nil
}

// Exit closes an entered trade and retires the session, freeing the
// single-session slot. The returned record is what the caller folds
// into the score tracker and the journal.
func (m *Manager) Exit(ctx context.Context, hint domain.Outcome, price float64, now time.Time) (*domain.TradeRecord, error) {
	if m.current == nil {
		return nil, ports.ErrNoSession
	}
	if m.current.State != domain.StateEntered {
		return nil, fmt.Errorf("%w: exit from %s", ports.ErrInvalidTransition, m.current.State)
	}

	s := m.current
	s.State = domain.StateClosed
	s.ExitPrice = price
	s.ExitTime = now
	s.Outcome = hint
	if m.cfg.OutcomeMode == OutcomeComputed {
		s.Outcome = computedOutcome(s.Side, s.EntryPrice, price)
	}

	rec := &domain.TradeRecord{
		Side:         s.Side,
		EntryPrice:   s.EntryPrice,
		ExitPrice:    s.ExitPrice,
		EntryTime:    s.EntryTime,
		ExitTime:     s.ExitTime,
		Outcome:      s.Outcome,
		FromBreakout: s.FromBreakout,
		ReactionTime: s.ReactionTime,
	}
	m.current = nil

	m.logger.Info(ctx, "Trade closed", map[string]interface{}{
		"side":      rec.Side,
		"outcome":   rec.Outcome,
		"exitPrice": rec.ExitPrice,
	})
	return rec, nil
}

// computedOutcome judges the trade from the price move. A breakout
// entry rides the upward break, so it is judged like a long.
func computedOutcome(side domain.Side, entry, exit float64) domain.Outcome {
	move := exit - entry
	if side == domain.SideShort {
		move = -move
	}
	switch {
	case move > 0:
		return domain.OutcomeProfit
	case move < 0:
		return domain.OutcomeLoss
	default:
		return domain.OutcomeBreakeven
	}
}
