package handlers

import (
	"context"
	"io"
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

const maxAvatarBytes = 5 << 20

// ProfileService is implemented by *application.ProfileService.
type ProfileService interface {
	Own(ctx context.Context, userID string) (*entity.Profile, error)
	Get(ctx context.Context, id string) (*entity.Profile, error)
	Update(ctx context.Context, userID string, in app.UpdateProfileInput) (*entity.Profile, error)
	UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error)
}

type ProfileHandler struct {
	Svc    ProfileService
	Logger *logrus.Logger
	Now    func() time.Time
}

func NewProfileHandler(svc ProfileService, logger *logrus.Logger) *ProfileHandler {
	return &ProfileHandler{Svc: svc, Logger: logger, Now: time.Now}
}

type childRequest struct {
	Age    int    `json:"age" binding:"min=0,max=40"`
	Gender string `json:"gender" binding:"required,gender"`
}

type updateProfileRequest struct {
	FullName  string         `json:"full_name" binding:"max=120"`
	Birthdate string         `json:"birthdate" binding:"omitempty,datetime=2006-01-02"`
	City      string         `json:"city" binding:"max=120"`
	Children  []childRequest `json:"children" binding:"max=20,dive"`
}

func (r updateProfileRequest) toInput() app.UpdateProfileInput {
	in := app.UpdateProfileInput{FullName: r.FullName, City: r.City}
	if r.Birthdate != "" {
		if t, err := time.Parse(dateLayout, r.Birthdate); err == nil {
			in.Birthdate = &t
		}
	}
	for _, c := range r.Children {
		g, _ := entity.ParseGender(c.Gender)
		in.Children = append(in.Children, entity.Child{Age: c.Age, Gender: g})
	}
	return in
}

func (h *ProfileHandler) GetOwn(c *gin.Context) {
	p, err := h.Svc.Own(c.Request.Context(), viewerID(c))
	if err != nil {
		writeError(c, h.Logger, "load profile failed", err)
		return
	}
	response.Success(c, http.StatusOK, toProfileDTO(p, true, h.Now()), "profile", gin.H{"next": app.NextPath(p.IsComplete())})
}

func (h *ProfileHandler) Update(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	p, err := h.Svc.Update(c.Request.Context(), viewerID(c), req.toInput())
	if err != nil {
		writeError(c, h.Logger, "save profile failed", err)
		return
	}
	response.Success(c, http.StatusOK, toProfileDTO(p, true, h.Now()), "profile saved", gin.H{"next": app.NextPath(p.IsComplete())})
}

func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "file is required", nil)
		return
	}
	if fh.Size > maxAvatarBytes {
		response.Error[any](c, http.StatusRequestEntityTooLarge, "file too large", gin.H{"max_bytes": maxAvatarBytes})
		return
	}
	ct := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "image/") {
		response.Error[any](c, http.StatusUnsupportedMediaType, "only images are allowed", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "cannot read file", nil)
		return
	}
	defer f.Close()

	url, err := h.Svc.UploadAvatar(c.Request.Context(), viewerID(c), f, fh.Filename, ct)
	if err != nil {
		writeError(c, h.Logger, "avatar upload failed", err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"avatar_url": url}, "avatar updated", nil)
}

// Get returns another member's public profile.
func (h *ProfileHandler) Get(c *gin.Context) {
	id := c.Param("id")
	p, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.Logger, "load profile failed", err)
		return
	}
	response.Success(c, http.StatusOK, toProfileDTO(p, id == viewerID(c), h.Now()), "profile", nil)
}
