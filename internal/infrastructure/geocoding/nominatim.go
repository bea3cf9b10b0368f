package geocoding

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/oksasatya/mother-community/internal/domain/directory"
	"github.com/oksasatya/mother-community/internal/domain/repository"
)

// Nominatim resolves place names through a Nominatim compatible search API.
type Nominatim struct {
	http *resty.Client
}

type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func NewNominatim(baseURL, userAgent string, timeout time.Duration) *Nominatim {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent)
	return &Nominatim{http: client}
}

// Geocode returns the candidates in the order the service ranks them. An
// unknown place yields an empty slice and no error.
func (n *Nominatim) Geocode(ctx context.Context, q string) ([]directory.Point, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}

	var places []place
	resp, err := n.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"format": "json", "q": q, "limit": "1"}).
		SetResult(&places).
		Get("/search")
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", q, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("geocode %q: status %d", q, resp.StatusCode())
	}

	out := make([]directory.Point, 0, len(places))
	for _, p := range places {
		lat, err := strconv.ParseFloat(p.Lat, 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(p.Lon, 64)
		if err != nil {
			continue
		}
		out = append(out, directory.Point{Lat: lat, Lon: lon})
	}
	return out, nil
}

var _ repository.Geocoder = (*Nominatim)(nil)
