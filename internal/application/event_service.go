package application

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/mother-community/internal/domain/entity"
	repo "github.com/oksasatya/mother-community/internal/domain/repository"
)

type EventService struct {
	Events  repo.EventRepository
	Storage repo.ObjectStorage
	Logger  *logrus.Logger
	Now     func() time.Time
}

func NewEventService(events repo.EventRepository, storage repo.ObjectStorage, logger *logrus.Logger) *EventService {
	return &EventService{Events: events, Storage: storage, Logger: logger, Now: time.Now}
}

type CreateEventInput struct {
	Title       string
	Description string
	Location    string
	Date        time.Time
	Time        string
	AgeGroup    string
	IsFree      bool
	Link        string

	Image     io.Reader // optional
	ImageName string
	ImageType string
}

// ListUpcoming returns events from today on, soonest first.
func (s *EventService) ListUpcoming(ctx context.Context) ([]entity.Event, error) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return s.Events.ListUpcoming(ctx, today)
}

// Create uploads the optional image first; a failed upload creates nothing.
func (s *EventService) Create(ctx context.Context, creatorID string, in CreateEventInput) (*entity.Event, error) {
	e := &entity.Event{
		CreatorID:   creatorID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Location:    strings.TrimSpace(in.Location),
		Date:        in.Date,
		Time:        entity.StrPtr(strings.TrimSpace(in.Time)),
		AgeGroup:    entity.StrPtr(strings.TrimSpace(in.AgeGroup)),
		IsFree:      in.IsFree,
		Link:        entity.StrPtr(strings.TrimSpace(in.Link)),
	}
	if e.Title == "" || e.Description == "" || e.Location == "" || e.Date.IsZero() {
		return nil, ErrInvalidEvent
	}

	if in.Image != nil {
		ext := strings.ToLower(filepath.Ext(in.ImageName))
		objectPath := "events/event_" + uuid.NewString() + ext
		url, err := s.Storage.Upload(ctx, objectPath, in.ImageType, in.Image)
		if err != nil {
			if s.Logger != nil {
				s.Logger.WithError(err).WithField("creator_id", creatorID).Error("event image upload failed")
			}
			return nil, fmt.Errorf("upload event image: %w", err)
		}
		e.ImageURL = &url
	}

	if err := s.Events.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}
