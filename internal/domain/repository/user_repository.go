package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/greenloop/internal/domain/entity"
)

// ErrNotFound is returned by every repository when a row does not exist
// or is not visible to the caller.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique constraint rejects an insert.
var ErrDuplicate = errors.New("duplicate")

// ProgressMutator edits the XP projection of a locked user row.
// Returning an error aborts the update.
type ProgressMutator func(u *entity.User) error

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// Update saves profile fields (name, avatar, location, settings).
	Update(ctx context.Context, u *entity.User) error
	// UpdateProgress loads the user, applies fn and saves total XP, level and
	// streak as one write. Concurrent calls for the same user are serialised.
	UpdateProgress(ctx context.Context, id string, fn ProgressMutator) (*entity.User, error)
	// Leaderboard returns users that opted in, highest total XP first.
	Leaderboard(ctx context.Context, limit int) ([]entity.User, error)
}
