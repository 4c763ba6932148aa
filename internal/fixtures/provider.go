// Package fixtures serves sample data for screens the API does not back:
// notifications, and the offline event list. It never talks to the network
// and is never mixed into the live client's code paths.
package fixtures

import (
	"context"
	"fmt"
	"sort"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"events-client/internal/mapper"
	"events-client/internal/models"
)

// Provider is a source of fixture data
type Provider interface {
	Notifications(ctx context.Context, limit int) ([]models.Notification, error)
	UnreadCount(ctx context.Context) (int, error)
	SampleEvents(ctx context.Context) ([]models.Event, error)
}

// DefaultNotificationLimit is used when limit is not positive
const DefaultNotificationLimit = 20

// namespace makes fixture ids stable across runs
var namespace = uuid.MustParse("6f1c8e2a-3d47-4b6e-9a51-2c0e7d9b4f10")

// Static is a Provider built from fixed data anchored at the current date
type Static struct {
	clock  clock.Clock
	mapper *mapper.Mapper
}

// NewStatic creates a Static provider. Sample events are mapped with m so
// they look exactly like live ones.
func NewStatic(c clock.Clock, m *mapper.Mapper) *Static {
	if c == nil {
		c = clock.New()
	}
	return &Static{clock: c, mapper: m}
}

// ID returns the stable fixture id for name
func ID(name string) string {
	return uuid.NewSHA1(namespace, []byte(name)).String()
}

type notificationSeed struct {
	kind    string
	title   string
	message string
	age     int // hours
	read    bool
}

var notificationSeeds = []notificationSeed{
	{"reservation", "Reservation confirmed", "Your seat for Summer Rooftop Party is confirmed.", 1, false},
	{"comment", "New comment", "Sam commented on Friday Food Market.", 5, false},
	{"reminder", "Starting soon", "Go Meetup starts tomorrow at 18:30.", 20, true},
	{"invite", "You're invited", "Lea invited you to a private birthday party.", 30, false},
	{"moderation", "Event approved", "Your event Sunday Five-a-side was approved.", 72, true},
	{"reservation", "Reservation cancelled", "The organiser cancelled Jazz Night.", 120, true},
}

// Notifications returns up to limit notifications, newest first
func (s *Static) Notifications(ctx context.Context, limit int) ([]models.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultNotificationLimit
	}

	now := s.clock.Now()
	out := make([]models.Notification, 0, len(notificationSeeds))
	for i, seed := range notificationSeeds {
		out = append(out, models.Notification{
			ID:        ID(fmt.Sprintf("notification-%d", i)),
			Kind:      seed.kind,
			Title:     seed.title,
			Message:   seed.message,
			CreatedAt: now.Add(-hours(seed.age)),
			Read:      seed.read,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// UnreadCount returns how many notifications are unread
func (s *Static) UnreadCount(ctx context.Context) (int, error) {
	all, err := s.Notifications(ctx, len(notificationSeeds))
	if err != nil {
		return 0, err
	}
	n := 0
	for _, item := range all {
		if !item.Read {
			n++
		}
	}
	return n, nil
}

type eventSeed struct {
	title      string
	category   models.Category
	visibility models.Visibility
	offset     int // days from today
	span       int // extra days
	start, end string
	location   string
	price      string
}

var eventSeeds = []eventSeed{
	{"Summer Rooftop Party", models.CategoryClubbing, models.VisibilityPublic, 0, 0, "21:00", "23:59", "Skyline Terrace", "15"},
	{"Warehouse Rave", models.CategoryRave, models.VisibilityPublic, 2, 1, "22:00", "06:00", "Dock 7", "25"},
	{"Lea's 30th", models.CategoryBirthday, models.VisibilityPrivate, 4, 0, "19:00", "23:00", "Lea's place", ""},
	{"Friday Food Market", models.CategoryFood, models.VisibilityPublic, 5, 0, "12:00", "20:00", "Old Town Square", ""},
	{"Sunday Five-a-side", models.CategorySport, models.VisibilityPublic, 7, 0, "10:00", "12:00", "Riverside Pitch", "5"},
	{"Go Meetup", models.CategoryMeeting, models.VisibilityPublic, 9, 0, "18:30", "21:00", "Hub Coworking", ""},
	{"Cloud Native Conference", models.CategoryConference, models.VisibilityPublic, 12, 2, "09:00", "17:30", "Expo Center", "199"},
	{"Anna & Tom", models.CategoryWedding, models.VisibilityPrivate, 18, 0, "14:00", "23:30", "Lakeside Manor", ""},
	{"Board Game Night", models.CategoryOther, models.VisibilityPublic, -3, 0, "19:00", "22:00", "The Dice Cafe", "3"},
}

// SampleEvents returns events spread around today, mapped like live records
func (s *Static) SampleEvents(ctx context.Context) ([]models.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	today := models.DateOf(s.clock.Now())
	raws := make([]models.RawEvent, 0, len(eventSeeds))
	for i, seed := range eventSeeds {
		start := today.AddDays(seed.offset)
		raws = append(raws, models.RawEvent{
			ID:          ID(fmt.Sprintf("event-%d", i)),
			Title:       seed.title,
			Description: fmt.Sprintf("%s at %s.", seed.title, seed.location),
			StartDate:   start.String(),
			EndDate:     start.AddDays(seed.span).String(),
			StartTime:   seed.start,
			EndTime:     seed.end,
			Location:    seed.location,
			Type:        string(seed.category),
			Visibility:  string(seed.visibility),
			Price:       jsonNumber(seed.price),
		})
	}
	return s.mapper.Events(raws), nil
}
