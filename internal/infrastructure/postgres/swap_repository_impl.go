package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/greenloop/internal/domain/entity"
	"github.com/oksasatya/greenloop/internal/domain/repository"
)

type SwapRepository struct {
	pool *pgxpool.Pool
}

func NewSwapRepository(pool *pgxpool.Pool) *SwapRepository {
	return &SwapRepository{pool: pool}
}

func (r *SwapRepository) Create(ctx context.Context, s *entity.Swap) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO swaps (user_id, original, replacement, category, eco_score_before, eco_score_after, xp, co2_saved, plastic_saved)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, s.UserID, s.Original, s.Replacement, string(s.Category), s.EcoScoreBefore, s.EcoScoreAfter,
		s.XP, s.CO2Saved, s.PlasticSaved)
	return mapErr(row.Scan(&s.ID, &s.CreatedAt))
}

func (r *SwapRepository) ListRecent(ctx context.Context, userID string, limit int) ([]entity.Swap, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, original, replacement, category, eco_score_before, eco_score_after,
		       xp, co2_saved, plastic_saved, created_at
		FROM swaps
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limitArg(limit))
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := make([]entity.Swap, 0)
	for rows.Next() {
		var (
			s   entity.Swap
			cat string
		)
		if err := rows.Scan(&s.ID, &s.UserID, &s.Original, &s.Replacement, &cat,
			&s.EcoScoreBefore, &s.EcoScoreAfter, &s.XP, &s.CO2Saved, &s.PlasticSaved, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Category = entity.SwapCategory(cat)
		out = append(out, s)
	}
	return out, mapErr(rows.Err())
}

func (r *SwapRepository) Totals(ctx context.Context, userID string) (repository.SwapTotals, error) {
	var t repository.SwapTotals
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(xp), 0), COALESCE(SUM(co2_saved), 0), COALESCE(SUM(plastic_saved), 0)
		FROM swaps WHERE user_id = $1
	`, userID).Scan(&t.Count, &t.XP, &t.CO2Saved, &t.PlasticSaved)
	return t, mapErr(err)
}

func (r *SwapRepository) ActiveDays(ctx context.Context, userID string, since time.Time) ([]time.Time, error) {
	return activeDays(ctx, r.pool, "swaps", userID, since)
}

var _ repository.SwapRepository = (*SwapRepository)(nil)
