package handlers

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/mother-community/internal/domain/directory"
	"github.com/oksasatya/mother-community/internal/domain/entity"
	repo "github.com/oksasatya/mother-community/internal/domain/repository"
	"github.com/oksasatya/mother-community/pkg/response"
)

const defaultSearchSize = 20

// DirectoryService is implemented by *application.DirectoryService.
type DirectoryService interface {
	List(ctx context.Context, viewerID string, c directory.Criteria) ([]entity.Profile, error)
	Search(ctx context.Context, q string, size int) ([]repo.ProfileHit, error)
}

type DirectoryHandler struct {
	Svc      DirectoryService
	Profiles ProfileService
	Logger   *logrus.Logger
	Now      func() time.Time
}

func NewDirectoryHandler(svc DirectoryService, profiles ProfileService, logger *logrus.Logger) *DirectoryHandler {
	return &DirectoryHandler{Svc: svc, Profiles: profiles, Logger: logger, Now: time.Now}
}

func (h *DirectoryHandler) List(c *gin.Context) {
	crit, details := parseCriteria(c)
	if len(details) > 0 {
		response.Error[any](c, http.StatusBadRequest, "invalid filter", details)
		return
	}

	viewer := viewerID(c)
	profiles, err := h.Svc.List(c.Request.Context(), viewer, crit)
	if err != nil {
		writeError(c, h.Logger, "load directory failed", err)
		return
	}

	// distances are computed against the viewer's stored location
	var origin *directory.Point
	if own, err := h.Profiles.Own(c.Request.Context(), viewer); err == nil && own.HasLocation() {
		origin = &directory.Point{Lat: *own.Latitude, Lon: *own.Longitude}
	}

	today := h.Now()
	out := make([]profileDTO, 0, len(profiles))
	for i := range profiles {
		d := toProfileDTO(&profiles[i], profiles[i].ID == viewer, today)
		if km, ok := directory.DistanceTo(&profiles[i], origin); ok {
			d.DistanceKm = &km
		}
		out = append(out, d)
	}
	response.Success(c, http.StatusOK, out, "profiles", gin.H{"count": len(out)})
}

func (h *DirectoryHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "q is required", nil)
		return
	}
	size := defaultSearchSize
	if s := c.Query("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 100 {
			response.Error[any](c, http.StatusBadRequest, "invalid filter", gin.H{"size": "must be between 1 and 100"})
			return
		}
		size = n
	}
	hits, err := h.Svc.Search(c.Request.Context(), q, size)
	if err != nil {
		writeError(c, h.Logger, "search failed", err)
		return
	}
	if hits == nil {
		hits = []repo.ProfileHit{}
	}
	response.Success(c, http.StatusOK, hits, "search results", gin.H{"count": len(hits)})
}

// parseCriteria reads directory filters from the query string. Blank values
// mean no constraint.
func parseCriteria(c *gin.Context) (directory.Criteria, map[string]string) {
	var crit directory.Criteria
	details := map[string]string{}

	if v := strings.TrimSpace(c.Query("name")); v != "" {
		crit.Name = &v
	}
	if v := strings.TrimSpace(c.Query("city")); v != "" {
		crit.City = &v
	}
	if v := strings.TrimSpace(c.Query("gender")); v != "" {
		g, ok := entity.ParseGender(v)
		if !ok {
			details["gender"] = "must be one of: male, female, unspecified"
		} else {
			crit.ChildGender = &g
		}
	}

	ints := []struct {
		key string
		dst **int
	}{
		{"min_child_age", &crit.MinChildAge},
		{"max_child_age", &crit.MaxChildAge},
		{"min_mother_age", &crit.MinMotherAge},
		{"max_mother_age", &crit.MaxMotherAge},
	}
	for _, f := range ints {
		v := strings.TrimSpace(c.Query(f.key))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			details[f.key] = "must be a non-negative whole number"
			continue
		}
		*f.dst = &n
	}

	if v := strings.TrimSpace(c.Query("max_distance")); v != "" {
		km, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(km) || math.IsInf(km, 0) || km < 0 {
			details["max_distance"] = "must be a non-negative number"
		} else {
			crit.MaxDistanceKm = &km
		}
	}

	switch s := c.Query("sort"); s {
	case "":
	case "distance":
		crit.SortByDistance = true
	default:
		details["sort"] = fmt.Sprintf("unsupported value %q", s)
	}
	return crit, details
}
