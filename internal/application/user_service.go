package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/greenloop/internal/domain/entity"
	repo "github.com/oksasatya/greenloop/internal/domain/repository"
	"github.com/oksasatya/greenloop/pkg/helpers"
)

const sessionTTL = 24 * time.Hour

type Service struct {
	Repo       repo.UserRepository
	Reconciler *Reconciler
	JWT        *helpers.JWTManager
	GCS        *storage.Client
	GCSBucket  string
	Redis      *redis.Client
	Logger     *logrus.Logger
	Index      UserIndex
	Welcomer   WelcomeNotifier
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func SessionKey(userID string) string {
	return "user:session:" + userID
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func NewService(users repo.UserRepository, rec *Reconciler, jwt *helpers.JWTManager, gcs *storage.Client, gcsBucket string, rdb *redis.Client, logger *logrus.Logger, index UserIndex) *Service {
	return &Service{
		Repo:       users,
		Reconciler: rec,
		JWT:        jwt,
		GCS:        gcs,
		GCSBucket:  gcsBucket,
		Redis:      rdb,
		Logger:     logger,
		Index:      index,
	}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// Register creates a user with default settings and location.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Password: hash,
		Name:     strings.TrimSpace(in.Name),
		Level:    entity.LevelSeed,
		Location: entity.DefaultLocation,
		Settings: entity.DefaultSettings(),
	}
	if u.Name == "" {
		u.Name = entity.DefaultUserName
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	s.indexUser(ctx, u)
	if s.Welcomer != nil {
		s.Welcomer.Welcome(u)
	}
	return u, nil
}

// Authenticate validates email/password and returns the user without issuing tokens.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// IssueTokens generates access/refresh tokens and records a session in Redis.
func (s *Service) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	pair, err := s.tokens(u.ID, sid)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate tokens failed")
		}
		return TokenPair{}, err
	}

	if s.Redis != nil {
		key := SessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"name":       u.Name,
			"sid":        sid,
			"created_at": nowRFC3339(),
		})
		pipe.Expire(ctx, key, sessionTTL)
		if _, rErr := pipe.Exec(ctx); rErr != nil && s.Logger != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}
	return pair, nil
}

func (s *Service) tokens(userID, sid string) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*entity.User, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh rotates the session id and both tokens.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil || u == nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	if s.Redis != nil {
		data, rErr := s.Redis.HGetAll(ctx, SessionKey(u.ID)).Result()
		if rErr != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			return TokenPair{}, "", ErrInvalidCredentials
		}
	}
	sid := uuid.NewString()
	pair, err := s.tokens(u.ID, sid)
	if err != nil {
		return TokenPair{}, "", err
	}
	if s.Redis != nil {
		key := SessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{"sid": sid, "updated_at": nowRFC3339()})
		pipe.Expire(ctx, key, sessionTTL)
		_, _ = pipe.Exec(ctx)
	}
	return pair, u.ID, nil
}

// Logout drops the session; outstanding tokens stop passing the auth check.
func (s *Service) Logout(ctx context.Context, userID string) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, SessionKey(userID)).Err(); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Warn("delete session failed")
	}
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

type UpdateProfileInput struct {
	Name      string
	AvatarURL string
	Location  *entity.GeoPoint
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Name != "" {
		u.Name = in.Name
	}
	if in.AvatarURL != "" {
		u.AvatarURL = in.AvatarURL
	}
	if in.Location != nil {
		u.Location = *in.Location
	}
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, err
	}

	if s.Redis != nil {
		key := SessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{"name": u.Name, "updated_at": nowRFC3339()})
		if ttl, tErr := s.Redis.TTL(ctx, key).Result(); tErr == nil && ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		if _, pErr := pipe.Exec(ctx); pErr != nil && s.Logger != nil {
			s.Logger.WithError(pErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}
	s.indexUser(ctx, u)
	return u, nil
}

// GetSettings returns every toggle, defaults filled in.
func (s *Service) GetSettings(ctx context.Context, userID string) (entity.Settings, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.Settings.WithDefaults(), nil
}

// UpdateSettings merges patch over the stored toggles. Unknown keys are ignored.
func (s *Service) UpdateSettings(ctx context.Context, userID string, patch map[string]bool) (entity.Settings, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.Settings = u.Settings.Merge(patch)
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u.Settings, nil
}

// Stats is the reconciled view of a user's progress.
type Stats struct {
	Name         string       `json:"name"`
	Level        entity.Level `json:"level"`
	XP           int          `json:"xp"`
	Streak       int          `json:"streak"`
	TotalActions int          `json:"totalActions"`
	TotalSwaps   int          `json:"totalSwaps"`
	CO2Saved     float64      `json:"co2Saved"`
	PlasticSaved float64      `json:"plasticSaved"`
	Corrected    bool         `json:"corrected"`
}

// Stats reconciles the aggregate against the ledger before reading it.
func (s *Service) Stats(ctx context.Context, userID string) (*Stats, error) {
	r, err := s.Reconciler.Reconcile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Name:         r.User.Name,
		Level:        r.User.Level,
		XP:           r.User.TotalXP,
		Streak:       r.User.Streak,
		TotalActions: r.Actions.Count,
		TotalSwaps:   r.Swaps.Count,
		CO2Saved:     r.Swaps.CO2Saved,
		PlasticSaved: r.Swaps.PlasticSaved,
		Corrected:    r.Corrected,
	}, nil
}

type LeaderboardEntry struct {
	Rank  int          `json:"rank"`
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	XP    int          `json:"xp"`
	Level entity.Level `json:"level"`
}

func (s *Service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	users, err := s.Repo.Leaderboard(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]LeaderboardEntry, 0, len(users))
	for i, u := range users {
		out = append(out, LeaderboardEntry{Rank: i + 1, ID: u.ID, Name: u.Name, XP: u.TotalXP, Level: u.Level})
	}
	return out, nil
}

// UploadPhoto stores an action photo in GCS and returns its public URL for
// details.imageUrl.
func (s *Service) UploadPhoto(ctx context.Context, userID string, r io.Reader, contentType string) (string, error) {
	if s.GCS == nil || s.GCSBucket == "" {
		return "", ErrStorageUnavailable
	}
	ext, ok := helpers.ImageExt(contentType)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedImage, contentType)
	}
	return helpers.UploadObject(ctx, s.GCS, s.GCSBucket, helpers.PhotoObjectPath(userID, ext), contentType, r)
}

// SearchUsers queries the user index; an unconfigured index yields no hits.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.Index == nil {
		return []map[string]any{}, nil
	}
	return s.Index.SearchUsers(ctx, q, size)
}

func (s *Service) indexUser(ctx context.Context, u *entity.User) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexUser(ctx, u); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
	}
}
