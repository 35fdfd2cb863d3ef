package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"scalptrainer/internal/domain"
)

func rec(outcome domain.Outcome) *domain.TradeRecord {
	return &domain.TradeRecord{Side: domain.SideLong, Outcome: outcome}
}

func TestTrackerScoreSequence(t *testing.T) {
	tr := NewTracker()

	for _, o := range []domain.Outcome{
		domain.OutcomeProfit,
		domain.OutcomeLoss,
		domain.OutcomeProfit,
		domain.OutcomeBreakeven,
	} {
		tr.Record(rec(o))
	}

	assert.Equal(t, 1, tr.Score())
	assert.Equal(t, 4, tr.TotalTrades())
	assert.InDelta(t, 0.5, tr.WinRate(), 1e-9)
}

func TestTrackerEmpty(t *testing.T) {
	tr := NewTracker()
	assert.Zero(t, tr.Score())
	assert.Zero(t, tr.TotalTrades())
	assert.Zero(t, tr.WinRate(), "win rate with no trades must not divide by zero")
	assert.Zero(t, tr.AverageReactionTime())
}

func TestTrackerCancelledNotCounted(t *testing.T) {
	tr := NewTracker()
	tr.Record(rec(domain.OutcomeCancelled))
	assert.Zero(t, tr.TotalTrades())
	assert.Zero(t, tr.Score())
}

func TestTrackerReactionTimes(t *testing.T) {
	tr := NewTracker()

	fast := rec(domain.OutcomeProfit)
	fast.FromBreakout = true
	fast.ReactionTime = 200 * time.Millisecond
	slow := rec(domain.OutcomeLoss)
	slow.FromBreakout = true
	slow.ReactionTime = 400 * time.Millisecond
	tr.Record(fast)
	tr.Record(slow)
	tr.Record(rec(domain.OutcomeProfit)) // Non-breakout, contributes no reaction time

	assert.Equal(t, 300*time.Millisecond, tr.AverageReactionTime())

	s := tr.Snapshot()
	assert.Equal(t, 2, s.BreakoutEntries)
	assert.InDelta(t, 300.0, s.AvgReactionMs, 1e-9)
}

func TestTrackerInstantBreakoutEntryCounts(t *testing.T) {
	tr := NewTracker()

	// An entry confirmed the same instant the breakout was detected
	// measures a zero reaction time but is still a breakout entry.
	instant := rec(domain.OutcomeProfit)
	instant.FromBreakout = true
	tr.Record(instant)

	s := tr.Snapshot()
	assert.Equal(t, 1, s.BreakoutEntries)
	assert.Zero(t, s.AvgReactionMs)
}

func TestTrackerBreakoutsCountedIndependently(t *testing.T) {
	tr := NewTracker()
	tr.RecordBreakout()
	tr.RecordBreakout()

	s := tr.Snapshot()
	assert.Equal(t, 2, s.TotalBreakouts)
	assert.Zero(t, s.BreakoutEntries, "detected breakouts are not entries")
	assert.Zero(t, s.TotalTrades)
}

func TestTrackerReset(t *testing.T) {
	tr := NewTracker()
	tr.Record(rec(domain.OutcomeProfit))
	tr.RecordBreakout()

	tr.Reset()

	s := tr.Snapshot()
	assert.Equal(t, Summary{}, s)
}

func TestTrackerSnapshotShape(t *testing.T) {
	tr := NewTracker()
	tr.Record(rec(domain.OutcomeProfit))
	tr.Record(rec(domain.OutcomeLoss))
	tr.Record(rec(domain.OutcomeProfit))

	s := tr.Snapshot()
	assert.Equal(t, 1, s.Score)
	assert.Equal(t, 3, s.TotalTrades)
	assert.Equal(t, 2, s.WinningTrades)
	assert.InDelta(t, 2.0/3.0, s.WinRate, 1e-9)
}
