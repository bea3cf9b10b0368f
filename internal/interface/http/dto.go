package handlers

import (
	"time"

	"github.com/oksasatya/mother-community/internal/domain/directory"
	"github.com/oksasatya/mother-community/internal/domain/entity"
)

const dateLayout = "2006-01-02"

type childDTO struct {
	Age    int    `json:"age"`
	Gender string `json:"gender"`
}

type profileDTO struct {
	ID         string     `json:"id"`
	Email      string     `json:"email,omitempty"`
	FullName   *string    `json:"full_name"`
	Birthdate  *string    `json:"birthdate"`
	Age        *int       `json:"age,omitempty"`
	City       *string    `json:"city"`
	Latitude   *float64   `json:"latitude"`
	Longitude  *float64   `json:"longitude"`
	AvatarURL  *string    `json:"avatar_url"`
	Children   []childDTO `json:"children"`
	Complete   bool       `json:"complete"`
	DistanceKm *float64   `json:"distance_km,omitempty"`
}

// toProfileDTO renders a profile. Email is only shown to its owner.
func toProfileDTO(p *entity.Profile, owner bool, today time.Time) profileDTO {
	out := profileDTO{
		ID:        p.ID,
		FullName:  p.FullName,
		City:      p.City,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		AvatarURL: p.AvatarURL,
		Children:  make([]childDTO, 0, len(p.Children)),
		Complete:  p.IsComplete(),
	}
	if owner {
		out.Email = p.Email
	}
	if p.Birthdate != nil && !p.Birthdate.IsZero() {
		s := p.Birthdate.Format(dateLayout)
		age := directory.CalculateAge(*p.Birthdate, today)
		out.Birthdate, out.Age = &s, &age
	}
	for _, c := range p.Children {
		out.Children = append(out.Children, childDTO{Age: c.Age, Gender: string(c.Gender)})
	}
	return out
}

type eventDTO struct {
	ID          string  `json:"id"`
	CreatorID   string  `json:"creator_id,omitempty"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
	Date        string  `json:"date"`
	Time        *string `json:"time"`
	AgeGroup    *string `json:"age_group"`
	IsFree      bool    `json:"is_free"`
	Link        *string `json:"link"`
	ImageURL    *string `json:"image_url"`
}

func toEventDTO(e entity.Event) eventDTO {
	return eventDTO{
		ID:          e.ID,
		CreatorID:   e.CreatorID,
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		Date:        e.Date.Format(dateLayout),
		Time:        e.Time,
		AgeGroup:    e.AgeGroup,
		IsFree:      e.IsFree,
		Link:        e.Link,
		ImageURL:    e.ImageURL,
	}
}
