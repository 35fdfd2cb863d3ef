package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scalptrainer/internal/domain"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := NewJournal(Config{
		DBPath: filepath.Join(t.TempDir(), "journal.db"),
		Logger: &mockLogger{},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func sampleRecord(exitAt time.Time, outcome domain.Outcome) *domain.TradeRecord {
	return &domain.TradeRecord{
		Side:         domain.SideLong,
		EntryPrice:   100.5,
		ExitPrice:    101.25,
		EntryTime:    exitAt.Add(-30 * time.Second),
		ExitTime:     exitAt,
		Outcome:      outcome,
		FromBreakout: true,
		ReactionTime: 240 * time.Millisecond,
	}
}

func TestNewJournal(t *testing.T) {
	t.Run("nil logger", func(t *testing.T) {
		_, err := NewJournal(Config{DBPath: filepath.Join(t.TempDir(), "j.db")})
		assert.Error(t, err)
	})

	t.Run("creates the data directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "j.db")
		j, err := NewJournal(Config{DBPath: path, Logger: &mockLogger{}})
		require.NoError(t, err)
		assert.NoError(t, j.Close())
	})
}

func TestJournalAppendAndRecent(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	first := sampleRecord(base, domain.OutcomeLoss)
	id, err := j.Append(ctx, first)
	require.NoError(t, err)
	assert.Positive(t, id)
	assert.Equal(t, id, first.ID, "the record carries its assigned ID back")

	second := sampleRecord(base.Add(time.Minute), domain.OutcomeProfit)
	_, err = j.Append(ctx, second)
	require.NoError(t, err)

	recent, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	// Newest first.
	assert.Equal(t, domain.OutcomeProfit, recent[0].Outcome)
	assert.Equal(t, domain.OutcomeLoss, recent[1].Outcome)
	assert.Equal(t, domain.SideLong, recent[0].Side)
	assert.Equal(t, 100.5, recent[0].EntryPrice)
	assert.Equal(t, 101.25, recent[0].ExitPrice)
	assert.True(t, recent[0].FromBreakout)
	assert.Equal(t, 240*time.Millisecond, recent[0].ReactionTime)
	assert.True(t, recent[0].ExitTime.Equal(base.Add(time.Minute)))
}

func TestJournalRecentLimit(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	for i := 0; i < 5; i++ {
		_, err := j.Append(ctx, sampleRecord(base.Add(time.Duration(i)*time.Minute), domain.OutcomeProfit))
		require.NoError(t, err)
	}

	recent, err := j.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, recent, 3)
}

func TestJournalRecentEmpty(t *testing.T) {
	j := newTestJournal(t)

	recent, err := j.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}
