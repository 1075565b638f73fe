package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/greenloop/internal/domain/entity"
	repo "github.com/oksasatya/greenloop/internal/domain/repository"
	"github.com/oksasatya/greenloop/internal/domain/xp"
	"github.com/oksasatya/greenloop/internal/observability"
)

const (
	KindAction = "action"
	KindSwap   = "swap"
)

// LedgerService appends ledger events and applies the incremental XP credit
// or debit to the user aggregate. The reconciler heals any gap between the
// two writes on the next stats read.
type LedgerService struct {
	Users      repo.UserRepository
	Actions    repo.ActionRepository
	Swaps      repo.SwapRepository
	Table      xp.Table
	Dispatcher Dispatcher
	Notifier   LevelUpNotifier
	Metrics    *observability.Metrics
	Logger     *logrus.Logger
}

func NewLedgerService(users repo.UserRepository, actions repo.ActionRepository, swaps repo.SwapRepository, table xp.Table, d Dispatcher, n LevelUpNotifier, m *observability.Metrics, logger *logrus.Logger) *LedgerService {
	if d == nil {
		d = noopDispatcher{}
	}
	if n == nil {
		n = noopNotifier{}
	}
	return &LedgerService{Users: users, Actions: actions, Swaps: swaps, Table: table, Dispatcher: d, Notifier: n, Metrics: m, Logger: logger}
}

type LogActionInput struct {
	UserID   string
	Type     string
	Details  entity.ActionDetails
	Location *entity.GeoPoint
}

// CreditResult reports the aggregate after a ledger write.
type CreditResult struct {
	XPGained  int
	NewTotal  int
	NewLevel  entity.Level
	LeveledUp bool
}

type LogActionResult struct {
	CreditResult
	Action  *entity.Action
	Message string
}

// LogAction persists the action with its XP fixed from the table, credits
// the user, then dispatches the memory job. Unknown types are stored as
// OTHER and earn the fallback XP.
func (s *LedgerService) LogAction(ctx context.Context, in LogActionInput) (*LogActionResult, error) {
	raw := strings.TrimSpace(in.Type)
	if raw == "" {
		return nil, ErrInvalidActionType
	}
	at, ok := entity.ParseActionType(raw)
	if !ok {
		at = entity.ActionOther
	}

	a := &entity.Action{
		UserID:   in.UserID,
		Type:     at,
		Details:  in.Details,
		XPGained: s.Table.ActionPoints(at),
		Location: in.Location,
	}
	if err := s.Actions.Create(ctx, a); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("insert action: %w", err)
	}

	credit, err := s.applyDelta(ctx, in.UserID, a.XPGained)
	if err != nil {
		return nil, err
	}
	s.Metrics.LedgerEvent(KindAction)

	s.Dispatcher.Dispatch(MemoryJob{
		ID:     a.ID,
		UserID: a.UserID,
		Kind:   string(a.Type),
		Text:   DescribeAction(a),
		Date:   a.CreatedAt,
	})

	return &LogActionResult{CreditResult: *credit, Action: a, Message: ActionMessage(a)}, nil
}

type DeleteActionResult struct {
	XPRemoved int
	NewTotal  int
	NewLevel  entity.Level
}

// DeleteAction removes an owned action and debits exactly the XP stored on
// the row, clamping the total at zero. Missing and foreign actions are
// both ErrActionNotFound and leave the aggregate untouched.
func (s *LedgerService) DeleteAction(ctx context.Context, userID, actionID string) (*DeleteActionResult, error) {
	a, err := s.Actions.GetForUser(ctx, actionID, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrActionNotFound
		}
		return nil, fmt.Errorf("load action: %w", err)
	}
	if err := s.Actions.DeleteForUser(ctx, a.ID, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrActionNotFound
		}
		return nil, fmt.Errorf("delete action: %w", err)
	}

	credit, err := s.applyDelta(ctx, userID, -a.XPGained)
	if err != nil {
		return nil, err
	}
	s.Metrics.LedgerEvent("action_delete")
	return &DeleteActionResult{XPRemoved: a.XPGained, NewTotal: credit.NewTotal, NewLevel: credit.NewLevel}, nil
}

type LogSwapInput struct {
	UserID         string
	Original       string
	Replacement    string
	Category       entity.SwapCategory
	EcoScoreBefore int
	EcoScoreAfter  int
	XP             *int
	CO2Saved       float64
	PlasticSaved   float64
}

type LogSwapResult struct {
	CreditResult
	Swap *entity.Swap
}

// LogSwap persists the swap (xp defaults to the table's swap XP), credits
// the user, then dispatches the memory job.
func (s *LedgerService) LogSwap(ctx context.Context, in LogSwapInput) (*LogSwapResult, error) {
	if err := validateSwap(&in); err != nil {
		return nil, err
	}
	sw := &entity.Swap{
		UserID:         in.UserID,
		Original:       strings.TrimSpace(in.Original),
		Replacement:    strings.TrimSpace(in.Replacement),
		Category:       in.Category,
		EcoScoreBefore: in.EcoScoreBefore,
		EcoScoreAfter:  in.EcoScoreAfter,
		XP:             s.Table.SwapPoints(in.XP),
		CO2Saved:       in.CO2Saved,
		PlasticSaved:   in.PlasticSaved,
	}
	if err := s.Swaps.Create(ctx, sw); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("insert swap: %w", err)
	}

	credit, err := s.applyDelta(ctx, in.UserID, sw.XP)
	if err != nil {
		return nil, err
	}
	s.Metrics.LedgerEvent(KindSwap)

	s.Dispatcher.Dispatch(MemoryJob{
		ID:     sw.ID,
		UserID: sw.UserID,
		Kind:   string(entity.ActionSwap),
		Text:   DescribeSwap(sw),
		Date:   sw.CreatedAt,
	})

	return &LogSwapResult{CreditResult: *credit, Swap: sw}, nil
}

func validateSwap(in *LogSwapInput) error {
	if strings.TrimSpace(in.Original) == "" || strings.TrimSpace(in.Replacement) == "" {
		return fmt.Errorf("%w: original and swap are required", ErrInvalidSwap)
	}
	if in.Category == "" {
		in.Category = entity.CategoryOther
	}
	if !in.Category.IsValid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidSwap, in.Category)
	}
	for _, v := range []int{in.EcoScoreBefore, in.EcoScoreAfter} {
		if v < 0 || v > 100 {
			return fmt.Errorf("%w: eco score %d out of range", ErrInvalidSwap, v)
		}
	}
	if in.XP != nil && *in.XP < 0 {
		return fmt.Errorf("%w: xp must not be negative", ErrInvalidSwap)
	}
	if in.CO2Saved < 0 || in.PlasticSaved < 0 {
		return fmt.Errorf("%w: savings must not be negative", ErrInvalidSwap)
	}
	return nil
}

// applyDelta adds delta to the user's total as one save, clamping at zero
// and recomputing the level.
func (s *LedgerService) applyDelta(ctx context.Context, userID string, delta int) (*CreditResult, error) {
	var from entity.Level
	u, err := s.Users.UpdateProgress(ctx, userID, func(u *entity.User) error {
		from = u.Level
		u.TotalXP += delta
		if u.TotalXP < 0 {
			u.TotalXP = 0
		}
		u.Level = s.Table.LevelFor(u.TotalXP)
		return nil
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update user xp: %w", err)
	}

	res := &CreditResult{XPGained: delta, NewTotal: u.TotalXP, NewLevel: u.Level}
	if delta > 0 && s.Table.Rank(u.Level) > s.Table.Rank(from) {
		res.LeveledUp = true
		if s.Logger != nil {
			s.Logger.WithFields(logrus.Fields{"user_id": userID, "from": from, "to": u.Level}).Info("level up")
		}
		s.Notifier.LevelUp(u, from)
	}
	return res, nil
}

// ListSwaps returns the user's swaps, newest first.
func (s *LedgerService) ListSwaps(ctx context.Context, userID string, limit int) ([]entity.Swap, error) {
	return s.Swaps.ListRecent(ctx, userID, limit)
}

// ListActions returns the user's actions, newest first.
func (s *LedgerService) ListActions(ctx context.Context, userID string, limit int) ([]entity.Action, error) {
	return s.Actions.ListRecent(ctx, userID, limit)
}

// Gallery returns the user's actions that carry a photo, newest first.
func (s *LedgerService) Gallery(ctx context.Context, userID string, limit int) ([]entity.Action, error) {
	return s.Actions.ListWithImages(ctx, userID, limit)
}

// ActionMessage is the confirmation shown after logging an action.
func ActionMessage(a *entity.Action) string {
	switch a.Type {
	case entity.ActionPlant:
		return "You planted a new life!"
	case entity.ActionSwap:
		if a.Details.ProductName != "" {
			return fmt.Sprintf("Great choice swapping to %s!", a.Details.ProductName)
		}
		return "Great choice swapping!"
	case entity.ActionWalk:
		return "Walking saves carbon!"
	case entity.ActionRefill:
		return "Hydrated and sustainable!"
	case entity.ActionCompost:
		return "Feeding the earth!"
	case entity.ActionCleanup:
		return "Thanks for cleaning up!"
	case entity.ActionObserve:
		return "Nature noticed!"
	default:
		return "Action logged."
	}
}
