package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/oksasatya/greenloop/internal/domain/entity"
	repo "github.com/oksasatya/greenloop/internal/domain/repository"
	"github.com/oksasatya/greenloop/internal/observability"
	"github.com/oksasatya/greenloop/internal/vectorbridge"
	"github.com/oksasatya/greenloop/pkg/tokenutil"
)

const (
	recentActionsLimit = 10
	recentSwapsLimit   = 5
)

// ContextAssembler builds the grounding block for a chat turn from the
// user's ledger and, when available, their nearest stored memories.
type ContextAssembler struct {
	Users         repo.UserRepository
	Actions       repo.ActionRepository
	Swaps         repo.SwapRepository
	Embedder      Embedder
	Vectors       VectorStore
	SearchTimeout time.Duration
	TopK          int
	MaxTokens     int
	Metrics       *observability.Metrics
	Logger        *logrus.Logger
}

func NewContextAssembler(users repo.UserRepository, actions repo.ActionRepository, swaps repo.SwapRepository, e Embedder, v VectorStore, searchTimeout time.Duration, topK, maxTokens int, m *observability.Metrics, logger *logrus.Logger) *ContextAssembler {
	return &ContextAssembler{
		Users: users, Actions: actions, Swaps: swaps,
		Embedder: e, Vectors: v,
		SearchTimeout: searchTimeout, TopK: topK, MaxTokens: maxTokens,
		Metrics: m, Logger: logger,
	}
}

// Assemble runs the three ledger reads concurrently with the memory search.
// Read failures are returned; search failures only drop the memories section.
func (a *ContextAssembler) Assemble(ctx context.Context, userID, message string) (string, error) {
	timeout := a.SearchTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	memories := make(chan []vectorbridge.Hit, 1)
	go func() { memories <- a.searchMemories(sctx, userID, message) }()

	var (
		user    *entity.User
		actions []entity.Action
		swaps   []entity.Swap
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := a.Users.GetByID(gctx, userID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("load user: %w", err)
		}
		user = u
		return nil
	})
	g.Go(func() error {
		list, err := a.Actions.ListRecent(gctx, userID, recentActionsLimit)
		if err != nil {
			return fmt.Errorf("recent actions: %w", err)
		}
		actions = list
		return nil
	})
	g.Go(func() error {
		list, err := a.Swaps.ListRecent(gctx, userID, recentSwapsLimit)
		if err != nil {
			return fmt.Errorf("recent swaps: %w", err)
		}
		swaps = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	// A search that already finished is always used, even when the reads
	// outlasted the search timeout.
	var hits []vectorbridge.Hit
	select {
	case hits = <-memories:
	default:
		select {
		case hits = <-memories:
		case <-sctx.Done():
			if a.Logger != nil {
				a.Logger.WithField("user_id", userID).Warn("memory search timed out")
			}
		}
	}

	block := a.bound(RenderContext(user, actions, swaps, nil), RenderContext(user, actions, swaps, hits), user)
	a.Metrics.ContextTokens(tokenutil.Count(block))
	return block, nil
}

func (a *ContextAssembler) searchMemories(ctx context.Context, userID, message string) []vectorbridge.Hit {
	if a.Embedder == nil || a.Vectors == nil || strings.TrimSpace(message) == "" {
		return nil
	}
	vec, err := a.Embedder.Embed(ctx, message)
	if err != nil {
		if a.Logger != nil {
			a.Logger.WithError(err).WithField("user_id", userID).Warn("embed chat message failed")
		}
		return nil
	}
	topK := a.TopK
	if topK <= 0 {
		topK = 3
	}
	return a.Vectors.Search(ctx, vec, topK, map[string]string{"user_id": userID})
}

// bound keeps the block within MaxTokens: memories go first, then the tail
// of the ledger sections is cut. The header line always survives.
func (a *ContextAssembler) bound(withoutMemories, full string, u *entity.User) string {
	if a.MaxTokens <= 0 || tokenutil.Count(full) <= a.MaxTokens {
		return full
	}
	if tokenutil.Count(withoutMemories) <= a.MaxTokens {
		return withoutMemories
	}
	header := renderHeader(u)
	rest := strings.TrimPrefix(withoutMemories, header+"\n")
	budget := a.MaxTokens - tokenutil.Count(header) - 1
	return header + "\n" + tokenutil.Truncate(rest, budget)
}

func renderHeader(u *entity.User) string {
	return fmt.Sprintf("User: %s (Level: %s, XP: %d)", u.Name, u.Level, u.TotalXP)
}

// RenderContext formats the block deterministically. The memories section
// is omitted when hits is empty.
func RenderContext(u *entity.User, actions []entity.Action, swaps []entity.Swap, hits []vectorbridge.Hit) string {
	var b strings.Builder
	b.WriteString(renderHeader(u))

	b.WriteString("\nRecent actions:")
	if len(actions) == 0 {
		b.WriteString("\n- none")
	}
	for _, ac := range actions {
		details, _ := json.Marshal(ac.Details)
		fmt.Fprintf(&b, "\n- %s %s on %s", ac.Type, details, ac.CreatedAt.UTC().Format(time.DateOnly))
	}

	b.WriteString("\nRecent swaps:")
	if len(swaps) == 0 {
		b.WriteString("\n- none")
	}
	for _, s := range swaps {
		fmt.Fprintf(&b, "\n- %s -> %s", s.Original, s.Replacement)
	}

	if len(hits) > 0 {
		b.WriteString("\nRelevant memories:")
		for _, h := range hits {
			payload, err := json.Marshal(h.Payload)
			if err != nil {
				continue
			}
			fmt.Fprintf(&b, "\n- %s", payload)
		}
	}
	return b.String()
}
