package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/greenloop/internal/domain/entity"
	"github.com/oksasatya/greenloop/internal/domain/repository"
)

const userColumns = `id, email, password_hash, name, avatar_url, total_xp, level, streak, lat, lng, settings, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	var level string
	if err := row.Scan(&u.ID, &u.Email, &u.Password, &u.Name, &u.AvatarURL,
		&u.TotalXP, &level, &u.Streak, &u.Location.Lat, &u.Location.Lng,
		&u.Settings, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	u.Level = entity.Level(level)
	u.Settings = u.Settings.WithDefaults()
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	if u.Name == "" {
		u.Name = entity.DefaultUserName
	}
	if u.Level == "" {
		u.Level = entity.LevelSeed
	}
	if u.Location == (entity.GeoPoint{}) {
		u.Location = entity.DefaultLocation
	}
	u.Settings = u.Settings.WithDefaults()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, name, avatar_url, total_xp, level, streak, lat, lng, settings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`, u.Email, u.Password, u.Name, u.AvatarURL, u.TotalXP, string(u.Level), u.Streak,
		u.Location.Lat, u.Location.Lng, u.Settings)

	return mapErr(row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	u.UpdatedAt = time.Now()
	u.Settings = u.Settings.WithDefaults()

	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET name = $1, avatar_url = $2, lat = $3, lng = $4, settings = $5, updated_at = $6
		WHERE id = $7
	`, u.Name, u.AvatarURL, u.Location.Lat, u.Location.Lng, u.Settings, u.UpdatedAt, u.ID)
	if err != nil {
		return mapErr(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateProgress locks the user row for the duration of fn so an incremental
// credit and a reconciliation never interleave inside this process's database.
func (r *UserRepository) UpdateProgress(ctx context.Context, id string, fn repository.ProgressMutator) (*entity.User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	u, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	if err := fn(u); err != nil {
		return nil, err
	}
	if u.TotalXP < 0 {
		return nil, fmt.Errorf("negative total xp %d for user %s", u.TotalXP, id)
	}
	u.UpdatedAt = time.Now()
	if _, err := tx.Exec(ctx, `
		UPDATE users SET total_xp = $1, level = $2, streak = $3, updated_at = $4 WHERE id = $5
	`, u.TotalXP, string(u.Level), u.Streak, u.UpdatedAt, u.ID); err != nil {
		return nil, mapErr(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) Leaderboard(ctx context.Context, limit int) ([]entity.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE COALESCE((settings->>'showOnLeaderboard')::boolean, true)
		ORDER BY total_xp DESC, created_at ASC
		LIMIT $1
	`, limitArg(limit))
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := make([]entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, mapErr(rows.Err())
}

var _ repository.UserRepository = (*UserRepository)(nil)
