package repository

import (
	"context"
	"io"

	"github.com/oksasatya/mother-community/internal/domain/directory"
	"github.com/oksasatya/mother-community/internal/domain/entity"
)

// ObjectStorage stores binary objects such as avatars and event images.
type ObjectStorage interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
	PublicURL(objectPath string) string
	Remove(ctx context.Context, objectPath string) error
}

// Geocoder resolves a free-text place name to candidate coordinates. The
// first candidate is the best match.
type Geocoder interface {
	Geocode(ctx context.Context, place string) ([]directory.Point, error)
}

// ProfileHit is a single full-text search result.
type ProfileHit struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	City      string `json:"city"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// ProfileIndex is a full-text search index over profiles.
type ProfileIndex interface {
	Index(ctx context.Context, p *entity.Profile) error
	Remove(ctx context.Context, id string) error
	Search(ctx context.Context, q string, size int) ([]ProfileHit, error)
}

// DirectoryCache keeps a short-lived copy of the full directory listing.
type DirectoryCache interface {
	Get(ctx context.Context) ([]entity.Profile, bool, error)
	Set(ctx context.Context, profiles []entity.Profile) error
	Invalidate(ctx context.Context) error
}

// JobPublisher enqueues background jobs (e-mails).
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}
