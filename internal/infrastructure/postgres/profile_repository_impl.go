package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/mother-community/internal/domain/entity"
	"github.com/oksasatya/mother-community/internal/domain/repository"
)

type ProfileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

const profileColumns = `id, email, full_name, birthdate, city, latitude, longitude, avatar_url, created_at, updated_at`

func scanProfile(row pgx.Row, p *entity.Profile) error {
	return row.Scan(&p.ID, &p.Email, &p.FullName, &p.Birthdate, &p.City,
		&p.Latitude, &p.Longitude, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt)
}

func (r *ProfileRepository) Ensure(ctx context.Context, id, email string) (*entity.Profile, error) {
	if _, err := r.pool.Exec(ctx, `
		INSERT INTO profiles (id, email) VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING
	`, id, email); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*entity.Profile, error) {
	p := &entity.Profile{}
	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	if err := scanProfile(row, p); err != nil {
		if notFound(err) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	children, err := r.listChildren(ctx, `WHERE profile_id = $1`, id)
	if err != nil {
		return nil, err
	}
	p.Children = children[id]
	return p, nil
}

func (r *ProfileRepository) ListWithChildren(ctx context.Context) ([]entity.Profile, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]entity.Profile, 0)
	for rows.Next() {
		var p entity.Profile
		if err := scanProfile(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	children, err := r.listChildren(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Children = children[out[i].ID]
	}
	return out, nil
}

// listChildren groups children by profile id, keeping insertion order.
func (r *ProfileRepository) listChildren(ctx context.Context, where string, args ...any) (map[string][]entity.Child, error) {
	rows, err := r.pool.Query(ctx, `SELECT profile_id, age, gender FROM children `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byProfile := make(map[string][]entity.Child)
	for rows.Next() {
		var c entity.Child
		var gender string
		if err := rows.Scan(&c.ProfileID, &c.Age, &gender); err != nil {
			return nil, err
		}
		c.Gender = entity.Gender(gender)
		byProfile[c.ProfileID] = append(byProfile[c.ProfileID], c)
	}
	return byProfile, rows.Err()
}

func (r *ProfileRepository) Update(ctx context.Context, p *entity.Profile) error {
	p.UpdatedAt = time.Now()
	res, err := r.pool.Exec(ctx, `
		UPDATE profiles
		SET full_name = $1, birthdate = $2, city = $3, latitude = $4, longitude = $5,
		    avatar_url = $6, updated_at = $7
		WHERE id = $8
	`, p.FullName, p.Birthdate, p.City, p.Latitude, p.Longitude, p.AvatarURL, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes the profile row. Deleting a missing profile is not an error.
func (r *ProfileRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	return err
}

// ReplaceChildren deletes and re-inserts the children of a profile in one
// transaction.
func (r *ProfileRepository) ReplaceChildren(ctx context.Context, profileID string, children []entity.Child) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM children WHERE profile_id = $1`, profileID); err != nil {
		return err
	}
	if len(children) > 0 {
		batch := &pgx.Batch{}
		for _, c := range children {
			batch.Queue(`INSERT INTO children (profile_id, age, gender) VALUES ($1, $2, $3)`,
				profileID, c.Age, string(c.Gender))
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *ProfileRepository) DeleteChildren(ctx context.Context, profileID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM children WHERE profile_id = $1`, profileID)
	return err
}

var _ repository.ProfileStore = (*ProfileRepository)(nil)
