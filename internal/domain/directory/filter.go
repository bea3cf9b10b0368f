// Package directory implements the member directory search: criteria
// matching, distance and age helpers, and optional distance ranking.
package directory

import (
	"sort"
	"strings"
	"time"

	"github.com/oksasatya/mother-community/internal/domain/entity"
)

// Criteria is the set of directory filters. A nil field means no constraint.
type Criteria struct {
	Name           *string
	City           *string
	ChildGender    *entity.Gender
	MinChildAge    *int
	MaxChildAge    *int
	MinMotherAge   *int
	MaxMotherAge   *int
	MaxDistanceKm  *float64
	SortByDistance bool
}

// IsEmpty reports whether no constraint and no ranking is requested.
func (c Criteria) IsEmpty() bool {
	return c.Name == nil && c.City == nil && c.ChildGender == nil &&
		c.MinChildAge == nil && c.MaxChildAge == nil &&
		c.MinMotherAge == nil && c.MaxMotherAge == nil &&
		c.MaxDistanceKm == nil && !c.SortByDistance
}

// Apply returns the profiles matching every active criterion. Relative input
// order is kept unless SortByDistance is set. The input slice is not
// modified.
func Apply(profiles []entity.Profile, c Criteria, viewer *Point, today time.Time) []entity.Profile {
	out := make([]entity.Profile, 0, len(profiles))
	for i := range profiles {
		if Matches(&profiles[i], c, viewer, today) {
			out = append(out, profiles[i])
		}
	}
	if c.SortByDistance {
		sortByDistance(out, viewer)
	}
	return out
}

// Matches evaluates all active criteria against a single profile.
func Matches(p *entity.Profile, c Criteria, viewer *Point, today time.Time) bool {
	if c.Name != nil && !containsFold(p.FullName, *c.Name) {
		return false
	}
	if c.City != nil && !containsFold(p.City, *c.City) {
		return false
	}
	if c.MinMotherAge != nil || c.MaxMotherAge != nil {
		if p.Birthdate == nil {
			return false
		}
		age := CalculateAge(*p.Birthdate, today)
		if c.MinMotherAge != nil && age < *c.MinMotherAge {
			return false
		}
		if c.MaxMotherAge != nil && age > *c.MaxMotherAge {
			return false
		}
	}
	if c.ChildGender != nil && !anyChild(p.Children, func(ch entity.Child) bool { return ch.Gender == *c.ChildGender }) {
		return false
	}
	// The bounds are checked independently: one child may satisfy the
	// minimum and a different child the maximum.
	if c.MinChildAge != nil && !anyChild(p.Children, func(ch entity.Child) bool { return ch.Age >= *c.MinChildAge }) {
		return false
	}
	if c.MaxChildAge != nil && !anyChild(p.Children, func(ch entity.Child) bool { return ch.Age <= *c.MaxChildAge }) {
		return false
	}
	// Without a viewer location the distance filter does not apply.
	if c.MaxDistanceKm != nil && viewer != nil {
		d, ok := distanceTo(p, viewer)
		if !ok || d > *c.MaxDistanceKm {
			return false
		}
	}
	return true
}

func sortByDistance(ps []entity.Profile, viewer *Point) {
	type ranked struct {
		p  entity.Profile
		d  float64
		ok bool
	}
	rs := make([]ranked, len(ps))
	for i := range ps {
		d, ok := distanceTo(&ps[i], viewer)
		rs[i] = ranked{p: ps[i], d: d, ok: ok}
	}
	// Profiles without a distance keep their input order after all others.
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].ok && rs[j].ok {
			return rs[i].d < rs[j].d
		}
		return rs[i].ok && !rs[j].ok
	})
	for i := range rs {
		ps[i] = rs[i].p
	}
}

// DistanceTo returns the distance from viewer to p when both locations are known.
func DistanceTo(p *entity.Profile, viewer *Point) (float64, bool) {
	return distanceTo(p, viewer)
}

func distanceTo(p *entity.Profile, viewer *Point) (float64, bool) {
	if viewer == nil || !p.HasLocation() {
		return 0, false
	}
	return Distance(*viewer, Point{Lat: *p.Latitude, Lon: *p.Longitude}), true
}

func containsFold(field *string, needle string) bool {
	if field == nil {
		return false
	}
	return strings.Contains(strings.ToLower(*field), strings.ToLower(needle))
}

func anyChild(children []entity.Child, pred func(entity.Child) bool) bool {
	for _, ch := range children {
		if pred(ch) {
			return true
		}
	}
	return false
}
