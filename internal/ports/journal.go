package ports

import (
	"context"

	"scalptrainer/internal/domain"
)

// TradeJournal defines the interface for persisting closed practice
// trades for later review. The journal is a collaborator, not core
// state: in-memory score aggregates still reset on restart.
type TradeJournal interface {
	// Append saves a closed trade and returns its assigned ID.
	Append(ctx context.Context, rec *domain.TradeRecord) (int64, error)
	// Recent retrieves the most recently closed trades, newest first,
	// up to a limit.
	Recent(ctx context.Context, limit int) ([]*domain.TradeRecord, error)
}
