package repository

import (
	"context"
	"time"

	"github.com/oksasatya/mother-community/internal/domain/entity"
)

type EventRepository interface {
	Create(ctx context.Context, e *entity.Event) error
	// ListUpcoming returns events dated on or after from, soonest first.
	ListUpcoming(ctx context.Context, from time.Time) ([]entity.Event, error)
}
