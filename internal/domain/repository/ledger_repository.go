package repository

import (
	"context"
	"time"

	"github.com/oksasatya/greenloop/internal/domain/entity"
)

// ActionTotals aggregates a user's actions.
type ActionTotals struct {
	Count int
	XP    int
}

// SwapTotals aggregates a user's swaps.
type SwapTotals struct {
	Count        int
	XP           int
	CO2Saved     float64
	PlasticSaved float64
}

// ActionRepository is the Action half of the ledger.
type ActionRepository interface {
	Create(ctx context.Context, a *entity.Action) error
	// GetForUser returns ErrNotFound when the action is missing or owned by
	// another user.
	GetForUser(ctx context.Context, id, userID string) (*entity.Action, error)
	// DeleteForUser returns ErrNotFound when nothing was deleted.
	DeleteForUser(ctx context.Context, id, userID string) error
	// ListRecent returns the newest actions first. limit <= 0 means no limit.
	ListRecent(ctx context.Context, userID string, limit int) ([]entity.Action, error)
	ListWithImages(ctx context.Context, userID string, limit int) ([]entity.Action, error)
	Totals(ctx context.Context, userID string) (ActionTotals, error)
	ActiveDays(ctx context.Context, userID string, since time.Time) ([]time.Time, error)
}

// SwapRepository is the Swap half of the ledger.
type SwapRepository interface {
	Create(ctx context.Context, s *entity.Swap) error
	ListRecent(ctx context.Context, userID string, limit int) ([]entity.Swap, error)
	Totals(ctx context.Context, userID string) (SwapTotals, error)
	ActiveDays(ctx context.Context, userID string, since time.Time) ([]time.Time, error)
}
