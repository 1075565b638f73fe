package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/greenloop/internal/domain/entity"
	repo "github.com/oksasatya/greenloop/internal/domain/repository"
	"github.com/oksasatya/greenloop/internal/domain/xp"
	"github.com/oksasatya/greenloop/internal/observability"
)

// Reconciler recomputes a user's XP projection from the ledger. It runs on
// the stats read path; there is no background schedule.
//
// It assumes a single writer: two instances reconciling against an
// in-flight credit may briefly race, and the next read settles it.
type Reconciler struct {
	Users   repo.UserRepository
	Actions repo.ActionRepository
	Swaps   repo.SwapRepository
	Table   xp.Table
	Index   UserIndex
	Metrics *observability.Metrics
	Logger  *logrus.Logger
	Now     func() time.Time
}

// Reconciliation is the outcome of one pass.
type Reconciliation struct {
	User    *entity.User
	Actions repo.ActionTotals
	Swaps   repo.SwapTotals
	// Corrected is true when total XP or level had drifted and was rewritten.
	Corrected bool
}

func NewReconciler(users repo.UserRepository, actions repo.ActionRepository, swaps repo.SwapRepository, table xp.Table, index UserIndex, m *observability.Metrics, logger *logrus.Logger) *Reconciler {
	return &Reconciler{Users: users, Actions: actions, Swaps: swaps, Table: table, Index: index, Metrics: m, Logger: logger, Now: time.Now}
}

// Reconcile is idempotent: with no new ledger events a second call writes
// nothing and reports Corrected=false.
func (r *Reconciler) Reconcile(ctx context.Context, userID string) (*Reconciliation, error) {
	u, err := r.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	at, err := r.Actions.Totals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("sum actions: %w", err)
	}
	st, err := r.Swaps.Totals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("sum swaps: %w", err)
	}
	streak, err := r.streak(ctx, userID)
	if err != nil {
		return nil, err
	}

	authoritative := at.XP + st.XP
	res := &Reconciliation{User: u, Actions: at, Swaps: st}
	if !r.drifted(u, authoritative) && u.Streak == streak {
		return res, nil
	}

	var before entity.User
	saved, err := r.Users.UpdateProgress(ctx, userID, func(cur *entity.User) error {
		before = *cur
		cur.TotalXP = authoritative
		cur.Level = r.Table.LevelFor(authoritative)
		cur.Streak = streak
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save reconciled user: %w", err)
	}
	res.User = saved
	res.Corrected = r.drifted(&before, authoritative)

	if res.Corrected {
		r.Metrics.XPCorrected()
		if r.Logger != nil {
			r.Logger.WithFields(logrus.Fields{
				"user_id": userID,
				"cached":  before.TotalXP,
				"ledger":  authoritative,
				"level":   saved.Level,
				"streak":  saved.Streak,
			}).Info("xp drift corrected")
		}
		if r.Index != nil {
			if err := r.Index.IndexUser(ctx, saved); err != nil && r.Logger != nil {
				r.Logger.WithError(err).WithField("user_id", userID).Warn("reindex after reconciliation failed")
			}
		}
	}
	return res, nil
}

func (r *Reconciler) drifted(u *entity.User, authoritative int) bool {
	return u.TotalXP != authoritative || u.Level != r.Table.LevelFor(authoritative)
}

func (r *Reconciler) streak(ctx context.Context, userID string) (int, error) {
	var since time.Time
	ad, err := r.Actions.ActiveDays(ctx, userID, since)
	if err != nil {
		return 0, fmt.Errorf("action days: %w", err)
	}
	sd, err := r.Swaps.ActiveDays(ctx, userID, since)
	if err != nil {
		return 0, fmt.Errorf("swap days: %w", err)
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	return xp.Streak(append(ad, sd...), now()), nil
}
