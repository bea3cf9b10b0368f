package entity

import "time"

// Event is a community meetup listed on the events board.
type Event struct {
	ID          string
	CreatorID   string
	Title       string
	Description string
	Location    string
	Date        time.Time // calendar date, time of day ignored
	Time        *string   // "HH:MM"
	AgeGroup    *string
	IsFree      bool
	Link        *string
	ImageURL    *string
	CreatedAt   time.Time
}
