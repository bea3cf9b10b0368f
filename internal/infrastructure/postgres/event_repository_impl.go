package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/mother-community/internal/domain/entity"
	"github.com/oksasatya/mother-community/internal/domain/repository"
)

type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

func (r *EventRepository) Create(ctx context.Context, e *entity.Event) error {
	var creator *string
	if e.CreatorID != "" {
		creator = &e.CreatorID
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO events (creator_id, title, description, location, date, time, age_group, is_free, link, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`, creator, e.Title, e.Description, e.Location, e.Date, e.Time, e.AgeGroup, e.IsFree, e.Link, e.ImageURL)
	return row.Scan(&e.ID, &e.CreatedAt)
}

func (r *EventRepository) ListUpcoming(ctx context.Context, from time.Time) ([]entity.Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, creator_id, title, description, location, date, time, age_group, is_free, link, image_url, created_at
		FROM events
		WHERE date >= $1::date
		ORDER BY date, time NULLS FIRST, created_at
	`, from.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]entity.Event, 0)
	for rows.Next() {
		var e entity.Event
		var creator *string
		if err := rows.Scan(&e.ID, &creator, &e.Title, &e.Description, &e.Location, &e.Date, &e.Time,
			&e.AgeGroup, &e.IsFree, &e.Link, &e.ImageURL, &e.CreatedAt); err != nil {
			return nil, err
		}
		if creator != nil {
			e.CreatorID = *creator
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

var _ repository.EventRepository = (*EventRepository)(nil)
