package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	app "github.com/oksasatya/mother-community/internal/application"
	"github.com/oksasatya/mother-community/internal/domain/entity"
	"github.com/oksasatya/mother-community/pkg/response"
	"github.com/oksasatya/mother-community/pkg/validation"
)

const maxEventImageBytes = 8 << 20

// EventService is implemented by *application.EventService.
type EventService interface {
	ListUpcoming(ctx context.Context) ([]entity.Event, error)
	Create(ctx context.Context, creatorID string, in app.CreateEventInput) (*entity.Event, error)
}

type EventHandler struct {
	Svc    EventService
	Logger *logrus.Logger
}

func NewEventHandler(svc EventService, logger *logrus.Logger) *EventHandler {
	return &EventHandler{Svc: svc, Logger: logger}
}

type createEventForm struct {
	Title       string `form:"title" binding:"required,notblank,max=200"`
	Description string `form:"description" binding:"required,notblank,max=5000"`
	Location    string `form:"location" binding:"required,notblank,max=200"`
	Date        string `form:"date" binding:"required,datetime=2006-01-02"`
	Time        string `form:"time" binding:"omitempty,datetime=15:04"`
	AgeGroup    string `form:"age_group" binding:"max=50"`
	IsFree      bool   `form:"is_free"`
	Link        string `form:"link" binding:"omitempty,url"`
}

func (h *EventHandler) List(c *gin.Context) {
	events, err := h.Svc.ListUpcoming(c.Request.Context())
	if err != nil {
		writeError(c, h.Logger, "load events failed", err)
		return
	}
	out := make([]eventDTO, 0, len(events))
	for _, e := range events {
		out = append(out, toEventDTO(e))
	}
	response.Success(c, http.StatusOK, out, "events", gin.H{"count": len(out)})
}

func (h *EventHandler) Create(c *gin.Context) {
	var form createEventForm
	if err := c.ShouldBind(&form); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	date, _ := time.Parse(dateLayout, form.Date)

	in := app.CreateEventInput{
		Title:       form.Title,
		Description: form.Description,
		Location:    form.Location,
		Date:        date,
		Time:        form.Time,
		AgeGroup:    form.AgeGroup,
		IsFree:      form.IsFree,
		Link:        form.Link,
	}

	if fh, err := c.FormFile("image"); err == nil {
		if fh.Size > maxEventImageBytes {
			response.Error[any](c, http.StatusRequestEntityTooLarge, "image too large", gin.H{"max_bytes": maxEventImageBytes})
			return
		}
		ct := fh.Header.Get("Content-Type")
		if !strings.HasPrefix(ct, "image/") {
			response.Error[any](c, http.StatusUnsupportedMediaType, "only images are allowed", nil)
			return
		}
		f, err := fh.Open()
		if err != nil {
			response.Error[any](c, http.StatusBadRequest, "cannot read image", nil)
			return
		}
		defer f.Close()
		in.Image, in.ImageName, in.ImageType = f, fh.Filename, ct
	}

	e, err := h.Svc.Create(c.Request.Context(), viewerID(c), in)
	if err != nil {
		writeError(c, h.Logger, "create event failed", err)
		return
	}
	response.Success(c, http.StatusCreated, toEventDTO(*e), "event created", nil)
}
