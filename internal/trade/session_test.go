package trade

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scalptrainer/internal/domain"
	"scalptrainer/internal/ports"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct {
	infoMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.infoMsgs = append(m.infoMsgs, msg)
}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func testConfig() Config {
	return Config{OutcomeMode: OutcomeDeclared, BreakoutWindow: 10 * time.Second}
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(testConfig(), &mockLogger{})
	require.NoError(t, err)
	return m
}

func TestNewManager(t *testing.T) {
	t.Run("nil logger", func(t *testing.T) {
		_, err := NewManager(testConfig(), nil)
		assert.ErrorIs(t, err, ports.ErrConfigurationError)
	})

	t.Run("bad outcome mode", func(t *testing.T) {
		cfg := testConfig()
		cfg.OutcomeMode = "vibes"
		_, err := NewManager(cfg, &mockLogger{})
		assert.ErrorIs(t, err, ports.ErrConfigurationError)
	})
}

func TestDirectionalLifecycle(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	require.Nil(t, m.Current(), "manager starts idle")

	require.NoError(t, m.Setup(ctx, domain.SideLong, nil, now))
	cur := m.Current()
	require.NotNil(t, cur)
	assert.Equal(t, domain.StateSetup, cur.State)
	assert.Equal(t, domain.SideLong, cur.Side)

	require.NoError(t, m.Confirm(ctx, 101.5, now.Add(time.Second)))
	cur = m.Current()
	assert.Equal(t, domain.StateEntered, cur.State)
	assert.Equal(t, 101.5, cur.EntryPrice)
	assert.False(t, cur.FromBreakout)
	assert.Zero(t, cur.ReactionTime)

	rec, err := m.Exit(ctx, domain.OutcomeProfit, 102.0, now.Add(5*time.Second))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeProfit, rec.Outcome)
	assert.Equal(t, 101.5, rec.EntryPrice)
	assert.Equal(t, 102.0, rec.ExitPrice)
	assert.Nil(t, m.Current(), "exit frees the session slot")
}

func TestSingleSessionExclusivity(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, m.Setup(ctx, domain.SideLong, nil, now))
	assert.ErrorIs(t, m.Setup(ctx, domain.SideShort, nil, now), ports.ErrSessionActive)

	require.NoError(t, m.Confirm(ctx, 100, now))
	assert.ErrorIs(t, m.Setup(ctx, domain.SideShort, nil, now), ports.ErrSessionActive)

	// The rejected setups left the entered session untouched.
	cur := m.Current()
	require.NotNil(t, cur)
	assert.Equal(t, domain.StateEntered, cur.State)
	assert.Equal(t, domain.SideLong, cur.Side)
}

func TestInvalidTransitions(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	now := time.Now()

	assert.ErrorIs(t, m.Confirm(ctx, 100, now), ports.ErrNoSession)
	assert.ErrorIs(t, m.Cancel(ctx), ports.ErrNoSession)
	_, err := m.Exit(ctx, domain.OutcomeProfit, 100, now)
	assert.ErrorIs(t, err, ports.ErrNoSession)

	require.NoError(t, m.Setup(ctx, domain.SideLong, nil, now))
	_, err = m.Exit(ctx, domain.OutcomeProfit, 100, now)
	assert.ErrorIs(t, err, ports.ErrInvalidTransition, "cannot exit from setup")

	require.NoError(t, m.Confirm(ctx, 100, now))
	assert.ErrorIs(t, m.Confirm(ctx, 100, now), ports.ErrInvalidTransition, "cannot confirm twice")
	assert.ErrorIs(t, m.Cancel(ctx), ports.ErrInvalidTransition, "cannot cancel an entered trade")
}

func TestCancelDiscardsSetup(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, m.Setup(ctx, domain.SideShort, nil, now))
	require.NoError(t, m.Cancel(ctx))
	assert.Nil(t, m.Current())

	// The slot is free again.
	assert.NoError(t, m.Setup(ctx, domain.SideLong, nil, now))
}

func TestBreakoutEntry(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	detected := time.Date(2025, 6, 1, 10, 0, 1, 0, time.UTC)

	t.Run("requires an event", func(t *testing.T) {
		err := m.Setup(ctx, domain.SideBreakout, nil, detected)
		assert.ErrorIs(t, err, ports.ErrNoBreakout)
	})

	t.Run("rejects a stale event", func(t *testing.T) {
		ev := &domain.BreakoutEvent{CandleIndex: 5, DetectedAt: detected, Direction: domain.DirectionUp}
		err := m.Setup(ctx, domain.SideBreakout, ev, detected.Add(11*time.Second))
		assert.ErrorIs(t, err, ports.ErrNoBreakout)
	})

	t.Run("rejects a consumed event", func(t *testing.T) {
		ev := &domain.BreakoutEvent{CandleIndex: 5, DetectedAt: detected, Direction: domain.DirectionUp, Consumed: true}
		err := m.Setup(ctx, domain.SideBreakout, ev, detected.Add(time.Second))
		assert.ErrorIs(t, err, ports.ErrNoBreakout)
	})

	t.Run("consumes the event and measures reaction time", func(t *testing.T) {
		ev := &domain.BreakoutEvent{CandleIndex: 5, DetectedAt: detected, Direction: domain.DirectionUp}
		require.NoError(t, m.Setup(ctx, domain.SideBreakout, ev, detected.Add(100*time.Millisecond)))
		require.NoError(t, m.Confirm(ctx, 100.5, detected.Add(240*time.Millisecond)))

		cur := m.Current()
		require.NotNil(t, cur)
		assert.True(t, cur.FromBreakout)
		assert.Equal(t, 240*time.Millisecond, cur.ReactionTime)
		assert.True(t, ev.Consumed, "the backing event cannot arm a second entry")

		rec, err := m.Exit(ctx, domain.OutcomeProfit, 101, detected.Add(5*time.Second))
		require.NoError(t, err)
		assert.Equal(t, 240*time.Millisecond, rec.ReactionTime)
	})
}

func TestDebugBypassesBreakoutGate(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	now := time.Now()

	assert.False(t, m.Debug())
	assert.True(t, m.ToggleDebug())

	require.NoError(t, m.Setup(ctx, domain.SideBreakout, nil, now), "practice mode needs no event")
	require.NoError(t, m.Confirm(ctx, 100, now))

	cur := m.Current()
	assert.False(t, cur.FromBreakout, "no event means no reaction time to credit")
	assert.Zero(t, cur.ReactionTime)
}

func TestComputedOutcome(t *testing.T) {
	cfg := testConfig()
	cfg.OutcomeMode = OutcomeComputed
	m, err := NewManager(cfg, &mockLogger{})
	require.NoError(t, err)
	ctx := context.Background()
	now := time.Now()

	tests := []struct {
		name  string
		side  domain.Side
		entry float64
		exit  float64
		want  domain.Outcome
	}{
		{"long up", domain.SideLong, 100, 101, domain.OutcomeProfit},
		{"long down", domain.SideLong, 100, 99, domain.OutcomeLoss},
		{"long flat", domain.SideLong, 100, 100, domain.OutcomeBreakeven},
		{"short down", domain.SideShort, 100, 99, domain.OutcomeProfit},
		{"short up", domain.SideShort, 100, 101, domain.OutcomeLoss},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, m.Setup(ctx, tt.side, nil, now))
			require.NoError(t, m.Confirm(ctx, tt.entry, now))
			// The declared hint is ignored in computed mode.
			rec, err := m.Exit(ctx, domain.OutcomeBreakeven, tt.exit, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.Outcome)
		})
	}
}
