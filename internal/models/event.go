// Package models holds the wire records returned by the events API and the
// normalized shapes the rest of the client works with.
package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Category is the kind of event
type Category string

const (
	CategoryClubbing   Category = "clubbing"
	CategoryRave       Category = "rave"
	CategoryBirthday   Category = "birthday"
	CategoryWedding    Category = "wedding"
	CategoryFood       Category = "food"
	CategorySport      Category = "sport"
	CategoryMeeting    Category = "meeting"
	CategoryConference Category = "conference"
	CategoryOther      Category = "other"
)

// CategoryAll is the filter value meaning no category constraint. It is never
// the category of an event.
const CategoryAll Category = "All"

// Categories lists every event category in display order
var Categories = []Category{
	CategoryClubbing, CategoryRave, CategoryBirthday, CategoryWedding, CategoryFood,
	CategorySport, CategoryMeeting, CategoryConference, CategoryOther,
}

// ParseCategory maps a wire value onto a Category, case-insensitively.
// Unknown values report false.
func ParseCategory(s string) (Category, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return CategoryOther, false
}

// Visibility controls who can see an event
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// ParseVisibility maps a wire value onto a Visibility. Unknown values report false.
func ParseVisibility(s string) (Visibility, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(VisibilityPublic):
		return VisibilityPublic, true
	case string(VisibilityPrivate):
		return VisibilityPrivate, true
	}
	return VisibilityPublic, false
}

// RawEvent is an event as the API sends it. Nothing in it is trusted.
type RawEvent struct {
	ID          string      `json:"_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	StartDate   string      `json:"startDate"`
	EndDate     string      `json:"endDate"`
	StartTime   string      `json:"startTime"`
	EndTime     string      `json:"endTime"`
	Location    string      `json:"location"`
	Photos      []string    `json:"photos"`
	Type        string      `json:"type"`
	Visibility  string      `json:"visibility"`
	Price       json.Number `json:"price,omitempty"`
}

// Event is the normalized event. StartDate and EndDate are always valid
// calendar dates; EndDate before StartDate is tolerated.
type Event struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	StartDate   Date       `json:"startDate"`
	EndDate     Date       `json:"endDate"`
	StartTime   TimeOfDay  `json:"startTime"`
	EndTime     TimeOfDay  `json:"endTime"`
	Location    string     `json:"location"`
	Description string     `json:"description"`
	BannerURL   string     `json:"bannerUrl"`
	Photos      []string   `json:"photos"`
	Category    Category   `json:"category"`
	Visibility  Visibility `json:"visibility"`
	Price       float64    `json:"price"`

	// Issues names the fields that were replaced by a fallback during mapping.
	Issues []string `json:"issues,omitempty"`
}

// Degraded reports whether any field fell back during mapping
func (e Event) Degraded() bool {
	return len(e.Issues) > 0
}

// IsFree reports whether the event has no price
func (e Event) IsFree() bool {
	return e.Price <= 0
}

// LastDay returns EndDate, or StartDate when EndDate precedes it.
func (e Event) LastDay() Date {
	if e.EndDate.Before(e.StartDate) {
		return e.StartDate
	}
	return e.EndDate
}

// Covers reports whether d lies within the event's day span
func (e Event) Covers(d Date) bool {
	return !d.Before(e.StartDate) && !d.After(e.LastDay())
}

// Starts returns the start instant in loc
func (e Event) Starts(loc *time.Location) time.Time {
	return e.StartTime.On(e.StartDate, loc)
}

// Ends returns the end instant in loc, never before Starts
func (e Event) Ends(loc *time.Location) time.Time {
	end := e.EndTime.On(e.LastDay(), loc)
	if start := e.Starts(loc); end.Before(start) {
		return start
	}
	return end
}
