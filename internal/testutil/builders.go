package testutil

import (
	"encoding/json"

	"events-client/internal/models"
)

// RawEventBuilder helps build raw wire events
type RawEventBuilder struct {
	event models.RawEvent
}

// NewRawEventBuilder creates a builder for a well-formed one-day public event
func NewRawEventBuilder() *RawEventBuilder {
	return &RawEventBuilder{
		event: models.RawEvent{
			ID:          "evt-1",
			Title:       "Test Event",
			Description: "A test event",
			StartDate:   "2025-07-15",
			EndDate:     "2025-07-15",
			StartTime:   "19:00",
			EndTime:     "23:00",
			Location:    "Main Hall",
			Photos:      []string{},
			Type:        string(models.CategoryMeeting),
			Visibility:  string(models.VisibilityPublic),
		},
	}
}

func (b *RawEventBuilder) WithID(id string) *RawEventBuilder {
	b.event.ID = id
	return b
}

func (b *RawEventBuilder) WithTitle(title string) *RawEventBuilder {
	b.event.Title = title
	return b
}

func (b *RawEventBuilder) WithDescription(description string) *RawEventBuilder {
	b.event.Description = description
	return b
}

func (b *RawEventBuilder) WithDates(start, end string) *RawEventBuilder {
	b.event.StartDate = start
	b.event.EndDate = end
	return b
}

func (b *RawEventBuilder) WithTimes(start, end string) *RawEventBuilder {
	b.event.StartTime = start
	b.event.EndTime = end
	return b
}

func (b *RawEventBuilder) WithLocation(location string) *RawEventBuilder {
	b.event.Location = location
	return b
}

func (b *RawEventBuilder) WithPhotos(photos ...string) *RawEventBuilder {
	b.event.Photos = photos
	return b
}

func (b *RawEventBuilder) WithType(category models.Category) *RawEventBuilder {
	b.event.Type = string(category)
	return b
}

func (b *RawEventBuilder) WithVisibility(visibility models.Visibility) *RawEventBuilder {
	b.event.Visibility = string(visibility)
	return b
}

func (b *RawEventBuilder) WithPrice(price string) *RawEventBuilder {
	b.event.Price = json.Number(price)
	return b
}

func (b *RawEventBuilder) Build() models.RawEvent {
	ev := b.event
	ev.Photos = append([]string(nil), b.event.Photos...)
	return ev
}
