package repository

import (
	"context"

	"github.com/oksasatya/mother-community/internal/domain/entity"
)

// ProfileStore persists member profiles and the children they own.
type ProfileStore interface {
	// Ensure creates an empty profile for id when none exists and returns
	// the stored profile.
	Ensure(ctx context.Context, id, email string) (*entity.Profile, error)
	GetByID(ctx context.Context, id string) (*entity.Profile, error)
	// ListWithChildren returns every profile with children embedded, ordered
	// by creation time.
	ListWithChildren(ctx context.Context) ([]entity.Profile, error)
	Update(ctx context.Context, p *entity.Profile) error
	Delete(ctx context.Context, id string) error

	ReplaceChildren(ctx context.Context, profileID string, children []entity.Child) error
	DeleteChildren(ctx context.Context, profileID string) error
}
