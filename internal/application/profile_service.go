package application

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/mother-community/internal/domain/entity"
	repo "github.com/oksasatya/mother-community/internal/domain/repository"
)

const (
	PathMain      = "/main"
	PathDashboard = "/dashboard"
)

// NextPath is where a member goes after login or after saving the profile.
func NextPath(complete bool) string {
	if complete {
		return PathMain
	}
	return PathDashboard
}

type ProfileService struct {
	Profiles repo.ProfileStore
	Users    repo.UserRepository
	Geocoder repo.Geocoder
	Storage  repo.ObjectStorage
	Index    repo.ProfileIndex
	Cache    repo.DirectoryCache
	Logger   *logrus.Logger
}

func NewProfileService(profiles repo.ProfileStore, users repo.UserRepository, geocoder repo.Geocoder, storage repo.ObjectStorage, index repo.ProfileIndex, cache repo.DirectoryCache, logger *logrus.Logger) *ProfileService {
	return &ProfileService{
		Profiles: profiles,
		Users:    users,
		Geocoder: geocoder,
		Storage:  storage,
		Index:    index,
		Cache:    cache,
		Logger:   logger,
	}
}

type UpdateProfileInput struct {
	FullName  string
	Birthdate *time.Time
	City      string
	Children  []entity.Child
}

// Own returns the viewer's profile, creating an empty one when the row does
// not exist yet.
func (s *ProfileService) Own(ctx context.Context, userID string) (*entity.Profile, error) {
	p, err := s.Profiles.GetByID(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.Profiles.Ensure(ctx, u.ID, u.Email)
}

func (s *ProfileService) Get(ctx context.Context, id string) (*entity.Profile, error) {
	p, err := s.Profiles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return p, nil
}

// Update saves the scalar fields, replaces the children wholesale and
// re-geocodes the city when it changed or no coordinates are stored.
func (s *ProfileService) Update(ctx context.Context, userID string, in UpdateProfileInput) (*entity.Profile, error) {
	p, err := s.Own(ctx, userID)
	if err != nil {
		return nil, err
	}

	prevCity := entity.Deref(p.City)
	p.FullName = entity.StrPtr(strings.TrimSpace(in.FullName))
	p.Birthdate = in.Birthdate
	p.City = entity.StrPtr(strings.TrimSpace(in.City))

	cityChanged := !strings.EqualFold(prevCity, entity.Deref(p.City))
	if cityChanged || !p.HasLocation() {
		s.locate(ctx, p)
	}

	if err := s.Profiles.Update(ctx, p); err != nil {
		return nil, err
	}

	children := make([]entity.Child, 0, len(in.Children))
	for _, c := range in.Children {
		if c.Gender == "" {
			c.Gender = entity.GenderUnspecified
		}
		c.ProfileID = p.ID
		children = append(children, c)
	}
	if err := s.Profiles.ReplaceChildren(ctx, p.ID, children); err != nil {
		return nil, err
	}
	p.Children = children

	s.afterChange(ctx, p)
	return p, nil
}

// locate sets the coordinates from the first geocoding candidate. Without a
// city or a usable candidate the coordinates are cleared.
func (s *ProfileService) locate(ctx context.Context, p *entity.Profile) {
	p.Latitude, p.Longitude = nil, nil
	if p.City == nil || s.Geocoder == nil {
		return
	}
	pts, err := s.Geocoder.Geocode(ctx, *p.City)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("city", *p.City).Warn("geocoding failed")
		}
		return
	}
	if len(pts) == 0 {
		return
	}
	lat, lon := pts[0].Lat, pts[0].Lon
	p.Latitude, p.Longitude = &lat, &lon
}

func (s *ProfileService) UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	p, err := s.Own(ctx, userID)
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("avatars", userID, uuid.NewString()+ext))
	url, err := s.Storage.Upload(ctx, objectPath, contentType, r)
	if err != nil {
		return "", err
	}

	old := p.AvatarURL
	p.AvatarURL = &url
	if err := s.Profiles.Update(ctx, p); err != nil {
		return "", err
	}
	if old != nil && *old != url {
		if err := s.Storage.Remove(ctx, *old); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", userID).Warn("remove previous avatar failed")
		}
	}
	s.afterChange(ctx, p)
	return url, nil
}

// afterChange refreshes the derived copies of a profile. Neither affects the
// saved result.
func (s *ProfileService) afterChange(ctx context.Context, p *entity.Profile) {
	if s.Cache != nil {
		if err := s.Cache.Invalidate(ctx); err != nil && s.Logger != nil {
			s.Logger.WithError(err).Warn("directory cache invalidate failed")
		}
	}
	if s.Index != nil {
		if err := s.Index.Index(ctx, p); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("profile_id", p.ID).Warn("es index failed")
		}
	}
}
