package handlers

import (
	"context"
	"io"

	"github.com/oksasatya/greenloop/internal/application"
	"github.com/oksasatya/greenloop/internal/domain/entity"
)

// AuthService is the slice of application.Service the auth routes need.
type AuthService interface {
	Register(ctx context.Context, in application.RegisterInput) (*entity.User, error)
	IssueTokens(ctx context.Context, u *entity.User) (application.TokenPair, error)
	Login(ctx context.Context, email, password string) (*entity.User, application.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (application.TokenPair, string, error)
	Logout(ctx context.Context, userID string)
}

// UserService is the slice of application.Service the user routes need.
type UserService interface {
	GetProfile(ctx context.Context, userID string) (*entity.User, error)
	UpdateProfile(ctx context.Context, userID string, in application.UpdateProfileInput) (*entity.User, error)
	GetSettings(ctx context.Context, userID string) (entity.Settings, error)
	UpdateSettings(ctx context.Context, userID string, patch map[string]bool) (entity.Settings, error)
	Stats(ctx context.Context, userID string) (*application.Stats, error)
	Leaderboard(ctx context.Context, limit int) ([]application.LeaderboardEntry, error)
	UploadPhoto(ctx context.Context, userID string, r io.Reader, contentType string) (string, error)
	SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error)
}

// Ledger is implemented by application.LedgerService.
type Ledger interface {
	LogAction(ctx context.Context, in application.LogActionInput) (*application.LogActionResult, error)
	DeleteAction(ctx context.Context, userID, actionID string) (*application.DeleteActionResult, error)
	LogSwap(ctx context.Context, in application.LogSwapInput) (*application.LogSwapResult, error)
	ListSwaps(ctx context.Context, userID string, limit int) ([]entity.Swap, error)
	ListActions(ctx context.Context, userID string, limit int) ([]entity.Action, error)
	Gallery(ctx context.Context, userID string, limit int) ([]entity.Action, error)
}

// Chatter is implemented by application.ChatService.
type Chatter interface {
	Reply(ctx context.Context, userID, message string) (string, error)
}

// ProductSearcher is implemented by application.ProductService.
type ProductSearcher interface {
	Search(ctx context.Context, query string) (*application.ProductResult, error)
}
