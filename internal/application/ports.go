package application

import (
	"context"
	"time"

	"github.com/oksasatya/greenloop/internal/domain/entity"
	"github.com/oksasatya/greenloop/internal/vectorbridge"
)

// MemoryJob describes one ledger event to be embedded and stored as a
// chat memory. Jobs are detached from the request that produced them.
type MemoryJob struct {
	ID     string    `json:"id"`
	UserID string    `json:"user_id"`
	Kind   string    `json:"kind"`
	Text   string    `json:"text"`
	Date   time.Time `json:"date"`
}

// Dispatcher hands a job to a background runner and returns immediately.
// Implementations must never block on or report the job's outcome.
type Dispatcher interface {
	Dispatch(job MemoryJob)
}

// Runner runs fn detached from the caller, with its own context.
type Runner interface {
	Go(name string, fn func(ctx context.Context) error)
}

// LevelUpNotifier is told when an incremental credit moves a user to a
// higher tier.
type LevelUpNotifier interface {
	LevelUp(u *entity.User, from entity.Level)
}

// WelcomeNotifier is told about newly registered users.
type WelcomeNotifier interface {
	Welcome(u *entity.User)
}

// UserIndex mirrors user aggregates into a search index.
type UserIndex interface {
	IndexUser(ctx context.Context, u *entity.User) error
	SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error)
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorStore is the vector bridge as seen by the application. Failures
// surface as empty results, never as errors.
type VectorStore interface {
	Search(ctx context.Context, vector []float32, topK int, filter map[string]string) []vectorbridge.Hit
	Upsert(ctx context.Context, id string, vector []float32, payload map[string]any) bool
}

// ProductCache stores serialized classification results.
type ProductCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration)
}

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(MemoryJob) {}

type noopNotifier struct{}

func (noopNotifier) LevelUp(*entity.User, entity.Level) {}
