package entity

import (
	"strings"
	"time"
)

// Gender of a child as stored.
type Gender string

const (
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderUnspecified Gender = "unspecified"
)

// ParseGender accepts the canonical values and the labels used by the
// original German UI (junge, mädchen, keine angabe).
func ParseGender(s string) (Gender, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "junge":
		return GenderMale, true
	case "female", "mädchen", "maedchen":
		return GenderFemale, true
	case "unspecified", "keine angabe", "":
		return GenderUnspecified, true
	}
	return "", false
}

// Child belongs to exactly one profile. Children have no identity that
// survives a profile save; they are replaced wholesale.
type Child struct {
	ProfileID string
	Age       int
	Gender    Gender
}

// Profile is the community-facing record of a member. Optional attributes
// are pointers; nil means "not provided".
type Profile struct {
	ID        string
	Email     string
	FullName  *string
	Birthdate *time.Time
	City      *string
	Latitude  *float64
	Longitude *float64
	AvatarURL *string
	Children  []Child
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsComplete reports whether full name, birth date and city are all present
// and non-empty. Incomplete profiles are sent back to the edit flow.
func (p *Profile) IsComplete() bool {
	if p == nil {
		return false
	}
	return nonEmpty(p.FullName) && p.Birthdate != nil && !p.Birthdate.IsZero() && nonEmpty(p.City)
}

// IsComplete is the function form of (*Profile).IsComplete.
func IsComplete(p *Profile) bool { return p.IsComplete() }

// HasLocation reports whether both coordinates are known.
func (p *Profile) HasLocation() bool {
	return p != nil && p.Latitude != nil && p.Longitude != nil
}

// DisplayName falls back to a neutral label for members without a name.
func (p *Profile) DisplayName() string {
	if p != nil && nonEmpty(p.FullName) {
		return *p.FullName
	}
	return "Anonyme Mutter"
}

func nonEmpty(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

// StrPtr returns nil for an empty (or blank) string.
func StrPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
