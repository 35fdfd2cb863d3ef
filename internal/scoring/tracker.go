package scoring

import (
	"time"

	"scalptrainer/internal/domain"
)

// Summary is a read-only view of the aggregates, shaped for the HUD.
type Summary struct {
	Score           int     `json:"score"`
	TotalTrades     int     `json:"total_trades"`
	WinningTrades   int     `json:"winning_trades"`
	WinRate         float64 `json:"win_rate"`
	TotalBreakouts  int     `json:"total_breakouts"`
	BreakoutEntries int     `json:"breakout_entries"`
	AvgReactionMs   float64 `json:"avg_reaction_ms"`
}

// Tracker aggregates closed trades into the cumulative score, win rate
// and reaction-time statistics. It is mutated only on trade
// finalization, breakout detection, and explicit reset; all access is
// serialized by the engine.
type Tracker struct {
	score           int
	totalTrades     int
	winningTrades   int
	totalBreakouts  int
	breakoutEntries int
	reactionTimes   []time.Duration
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Record folds a closed trade into the aggregates: +1 for profit, -1
// for loss, 0 for breakeven. Breakout-origin trades contribute their
// reaction time.
func (t *Tracker) Record(rec *domain.TradeRecord) {
	switch rec.Outcome {
	case domain.OutcomeProfit:
		t.score++
		t.winningTrades++
	case domain.OutcomeLoss:
		t.score--
	case domain.OutcomeBreakeven:
		// Scores zero but still counts as a trade.
	default:
		return
	}
	t.totalTrades++
	// A breakout entry counts even with a zero measured reaction; the
	// backing event, not the delay, is what marks it.
	if rec.FromBreakout {
		t.breakoutEntries++
		t.reactionTimes = append(t.reactionTimes, rec.ReactionTime)
	}
}

// RecordBreakout counts a detected breakout, entered or not.
func (t *Tracker) RecordBreakout() {
	t.totalBreakouts++
}

// WinRate returns winning/total trades, 0 with no trades recorded.
func (t *Tracker) WinRate() float64 {
	if t.totalTrades == 0 {
		return 0
	}
	return float64(t.winningTrades) / float64(t.totalTrades)
}

// AverageReactionTime returns the mean recorded reaction time, zero
// when no breakout entry has been made.
func (t *Tracker) AverageReactionTime() time.Duration {
	if len(t.reactionTimes) == 0 {
		return 0
	}
	var total time.Duration
	for _, rt := range t.reactionTimes {
		total += rt
	}
	return total / time.Duration(len(t.reactionTimes))
}

// Score returns the cumulative score.
func (t *Tracker) Score() int {
	return t.score
}

// TotalTrades returns the number of recorded trades.
func (t *Tracker) TotalTrades() int {
	return t.totalTrades
}

// Reset clears all aggregates. An in-flight trade session is not
// affected; only historical aggregates are dropped.
func (t *Tracker) Reset() {
	*t = Tracker{}
}

// Snapshot returns the current aggregates as a summary view.
func (t *Tracker) Snapshot() Summary {
	return Summary{
		Score:           t.score,
		TotalTrades:     t.totalTrades,
		WinningTrades:   t.winningTrades,
		WinRate:         t.WinRate(),
		TotalBreakouts:  t.totalBreakouts,
		BreakoutEntries: t.breakoutEntries,
		AvgReactionMs:   float64(t.AverageReactionTime().Microseconds()) / 1000.0,
	}
}
