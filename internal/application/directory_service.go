package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/mother-community/internal/domain/directory"
	"github.com/oksasatya/mother-community/internal/domain/entity"
	repo "github.com/oksasatya/mother-community/internal/domain/repository"
)

// DirectoryService serves the member directory.
type DirectoryService struct {
	Profiles repo.ProfileStore
	Cache    repo.DirectoryCache
	Index    repo.ProfileIndex
	Logger   *logrus.Logger
	Now      func() time.Time
}

func NewDirectoryService(profiles repo.ProfileStore, cache repo.DirectoryCache, index repo.ProfileIndex, logger *logrus.Logger) *DirectoryService {
	return &DirectoryService{Profiles: profiles, Cache: cache, Index: index, Logger: logger, Now: time.Now}
}

// List filters the directory for viewerID. Distances are measured from the
// viewer's stored coordinates.
func (s *DirectoryService) List(ctx context.Context, viewerID string, c directory.Criteria) ([]entity.Profile, error) {
	all, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	var viewer *directory.Point
	for i := range all {
		if all[i].ID == viewerID && all[i].HasLocation() {
			viewer = &directory.Point{Lat: *all[i].Latitude, Lon: *all[i].Longitude}
			break
		}
	}
	return directory.Apply(all, c, viewer, s.now()), nil
}

func (s *DirectoryService) load(ctx context.Context) ([]entity.Profile, error) {
	if s.Cache != nil {
		cached, ok, err := s.Cache.Get(ctx)
		if err != nil && s.Logger != nil {
			s.Logger.WithError(err).Warn("directory cache read failed")
		}
		if ok {
			return cached, nil
		}
	}
	all, err := s.Profiles.ListWithChildren(ctx)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		if err := s.Cache.Set(ctx, all); err != nil && s.Logger != nil {
			s.Logger.WithError(err).Warn("directory cache write failed")
		}
	}
	return all, nil
}

func (s *DirectoryService) Search(ctx context.Context, q string, size int) ([]repo.ProfileHit, error) {
	if s.Index == nil {
		return []repo.ProfileHit{}, nil
	}
	return s.Index.Search(ctx, q, size)
}

func (s *DirectoryService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
