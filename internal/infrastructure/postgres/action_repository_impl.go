package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/greenloop/internal/domain/entity"
	"github.com/oksasatya/greenloop/internal/domain/repository"
)

const actionColumns = `id, user_id, action_type, details, xp_gained, lat, lng, created_at`

type ActionRepository struct {
	pool *pgxpool.Pool
}

func NewActionRepository(pool *pgxpool.Pool) *ActionRepository {
	return &ActionRepository{pool: pool}
}

func scanAction(row pgx.Row) (entity.Action, error) {
	var (
		a        entity.Action
		typ      string
		lat, lng *float64
	)
	if err := row.Scan(&a.ID, &a.UserID, &typ, &a.Details, &a.XPGained, &lat, &lng, &a.CreatedAt); err != nil {
		return a, mapErr(err)
	}
	a.Type = entity.ActionType(typ)
	if lat != nil && lng != nil {
		a.Location = &entity.GeoPoint{Lat: *lat, Lng: *lng}
	}
	return a, nil
}

func (r *ActionRepository) Create(ctx context.Context, a *entity.Action) error {
	var lat, lng *float64
	if a.Location != nil {
		lat, lng = &a.Location.Lat, &a.Location.Lng
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO actions (user_id, action_type, details, xp_gained, lat, lng)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, a.UserID, string(a.Type), a.Details, a.XPGained, lat, lng)
	return mapErr(row.Scan(&a.ID, &a.CreatedAt))
}

func (r *ActionRepository) GetForUser(ctx context.Context, id, userID string) (*entity.Action, error) {
	a, err := scanAction(r.pool.QueryRow(ctx,
		`SELECT `+actionColumns+` FROM actions WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ActionRepository) DeleteForUser(ctx context.Context, id, userID string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM actions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return mapErr(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ActionRepository) list(ctx context.Context, query string, args ...any) ([]entity.Action, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := make([]entity.Action, 0)
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, mapErr(rows.Err())
}

func (r *ActionRepository) ListRecent(ctx context.Context, userID string, limit int) ([]entity.Action, error) {
	return r.list(ctx, `
		SELECT `+actionColumns+` FROM actions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limitArg(limit))
}

func (r *ActionRepository) ListWithImages(ctx context.Context, userID string, limit int) ([]entity.Action, error) {
	return r.list(ctx, `
		SELECT `+actionColumns+` FROM actions
		WHERE user_id = $1 AND COALESCE(details->>'imageUrl', '') <> ''
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limitArg(limit))
}

func (r *ActionRepository) Totals(ctx context.Context, userID string) (repository.ActionTotals, error) {
	var t repository.ActionTotals
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(xp_gained), 0) FROM actions WHERE user_id = $1
	`, userID).Scan(&t.Count, &t.XP)
	return t, mapErr(err)
}

func (r *ActionRepository) ActiveDays(ctx context.Context, userID string, since time.Time) ([]time.Time, error) {
	return activeDays(ctx, r.pool, "actions", userID, since)
}

// activeDays returns the distinct UTC dates with at least one row in table.
func activeDays(ctx context.Context, pool *pgxpool.Pool, table, userID string, since time.Time) ([]time.Time, error) {
	rows, err := pool.Query(ctx, `
		SELECT DISTINCT date_trunc('day', created_at AT TIME ZONE 'UTC') AS day
		FROM `+table+`
		WHERE user_id = $1 AND created_at >= $2
		ORDER BY day DESC
	`, userID, since)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		days = append(days, time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC))
	}
	return days, rows.Err()
}

var _ repository.ActionRepository = (*ActionRepository)(nil)
