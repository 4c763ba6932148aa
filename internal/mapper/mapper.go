// Package mapper converts raw API records into normalized models.
//
// Mapping never fails. A malformed date or time is replaced by
// models.FallbackDate or models.FallbackTime, the field is recorded in
// Event.Issues and a warning is logged, so bad data stays visible to
// operators while the event still renders.
package mapper

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"events-client/internal/common/logging"
	"events-client/internal/models"
)

// Config controls URL resolution
type Config struct {
	// APIOrigin is scheme://host[:port] of the API, without a path
	APIOrigin string
	// UploadsPath is the path segment under which relative photo names are served
	UploadsPath string
	// Placeholder is the banner used when an event has no photos
	Placeholder string
}

// DefaultPlaceholder is the banner used when none is configured
const DefaultPlaceholder = "/images/event-placeholder.jpg"

// Mapper converts raw records. It is safe for concurrent use.
type Mapper struct {
	origin      string
	uploadsPath string
	placeholder string
	logger      logging.Logger
}

// New creates a Mapper. A nil logger discards fallback warnings.
func New(cfg Config, logger logging.Logger) *Mapper {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	uploads := strings.Trim(cfg.UploadsPath, "/")
	if uploads == "" {
		uploads = "uploads"
	}
	placeholder := cfg.Placeholder
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	return &Mapper{
		origin:      strings.TrimRight(cfg.APIOrigin, "/"),
		uploadsPath: uploads,
		placeholder: placeholder,
		logger:      logger.WithFields(logging.Field{Key: "component", Value: "mapper"}),
	}
}

// Event normalizes one raw event
func (m *Mapper) Event(raw models.RawEvent) models.Event {
	ev := models.Event{
		ID:          raw.ID,
		Title:       strings.TrimSpace(raw.Title),
		Location:    strings.TrimSpace(raw.Location),
		Description: raw.Description,
		Photos:      m.resolvePhotos(raw.Photos),
	}

	ev.StartDate = m.date(&ev, "startDate", raw.StartDate)
	ev.EndDate = m.date(&ev, "endDate", raw.EndDate)
	ev.StartTime = m.timeOfDay(&ev, "startTime", raw.StartTime)
	ev.EndTime = m.timeOfDay(&ev, "endTime", raw.EndTime)

	if len(ev.Photos) > 0 {
		ev.BannerURL = ev.Photos[0]
	} else {
		ev.BannerURL = m.placeholder
	}

	category, ok := models.ParseCategory(raw.Type)
	if !ok && raw.Type != "" {
		m.fallback(&ev, "type", raw.Type)
	}
	ev.Category = category

	visibility, ok := models.ParseVisibility(raw.Visibility)
	if !ok && raw.Visibility != "" {
		m.fallback(&ev, "visibility", raw.Visibility)
	}
	ev.Visibility = visibility

	if raw.Price != "" {
		price, err := raw.Price.Float64()
		if err != nil || price < 0 {
			m.fallback(&ev, "price", raw.Price.String())
		} else {
			ev.Price = price
		}
	}

	return ev
}

// Events normalizes a slice, preserving order
func (m *Mapper) Events(raws []models.RawEvent) []models.Event {
	events := make([]models.Event, len(raws))
	for i, raw := range raws {
		events[i] = m.Event(raw)
	}
	return events
}

// ToRaw renders a normalized event back into wire form. Mapping the result
// yields the original event when it carried no issues.
func (m *Mapper) ToRaw(ev models.Event) models.RawEvent {
	photos := make([]string, len(ev.Photos))
	copy(photos, ev.Photos)
	return models.RawEvent{
		ID:          ev.ID,
		Title:       ev.Title,
		Description: ev.Description,
		StartDate:   ev.StartDate.String(),
		EndDate:     ev.EndDate.String(),
		StartTime:   string(ev.StartTime),
		EndTime:     string(ev.EndTime),
		Location:    ev.Location,
		Photos:      photos,
		Type:        string(ev.Category),
		Visibility:  string(ev.Visibility),
		Price:       json.Number(strconv.FormatFloat(ev.Price, 'f', -1, 64)),
	}
}

// User normalizes a profile
func (m *Mapper) User(raw models.RawUser) models.User {
	user := models.User{
		ID:    raw.ID,
		Name:  strings.TrimSpace(raw.Name),
		Email: strings.TrimSpace(raw.Email),
		Role:  strings.ToLower(strings.TrimSpace(raw.Role)),
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if raw.Avatar != "" {
		user.AvatarURL = m.ResolvePhoto(raw.Avatar)
	}
	return user
}

// Reservation normalizes a reservation, mapping the populated event if present
func (m *Mapper) Reservation(raw models.RawReservation) models.Reservation {
	res := models.Reservation{
		ID:     raw.ID,
		Status: reservationStatus(raw.Status),
		Seats:  raw.Seats,
	}
	if res.Seats < 1 {
		res.Seats = 1
	}
	if created, err := time.Parse(time.RFC3339, raw.CreatedAt); err == nil {
		res.Created = created
	}

	body := bytes.TrimSpace(raw.Event)
	switch {
	case len(body) == 0 || bytes.Equal(body, []byte("null")):
	case body[0] == '{':
		var rawEvent models.RawEvent
		if err := json.Unmarshal(body, &rawEvent); err != nil {
			m.logger.Warn("reservation event could not be decoded",
				logging.String("reservation_id", raw.ID), logging.Err(err))
			break
		}
		ev := m.Event(rawEvent)
		res.Event = &ev
		res.EventID = ev.ID
	default:
		var id string
		if err := json.Unmarshal(body, &id); err == nil {
			res.EventID = id
		}
	}
	return res
}

// ResolvePhoto turns a storage-relative file name into an absolute URL.
// Absolute http and https URLs are returned unchanged.
func (m *Mapper) ResolvePhoto(p string) string {
	p = strings.TrimSpace(p)
	lower := strings.ToLower(p)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return p
	}
	name := strings.TrimLeft(p, "/")
	if !strings.HasPrefix(name, m.uploadsPath+"/") {
		name = m.uploadsPath + "/" + name
	}
	return m.origin + "/" + name
}

func (m *Mapper) resolvePhotos(photos []string) []string {
	resolved := make([]string, 0, len(photos))
	for _, p := range photos {
		if strings.TrimSpace(p) == "" {
			continue
		}
		resolved = append(resolved, m.ResolvePhoto(p))
	}
	return resolved
}

// date accepts YYYY-MM-DD, or an ISO timestamp whose date part is YYYY-MM-DD.
func (m *Mapper) date(ev *models.Event, field, value string) models.Date {
	s := strings.TrimSpace(value)
	if len(s) > 10 && s[10] == 'T' {
		s = s[:10]
	}
	d, err := models.ParseDate(s)
	if err != nil {
		m.fallback(ev, field, value)
		return models.FallbackDate
	}
	return d
}

func (m *Mapper) timeOfDay(ev *models.Event, field, value string) models.TimeOfDay {
	t, err := models.ParseTimeOfDay(strings.TrimSpace(value))
	if err != nil {
		m.fallback(ev, field, value)
		return models.FallbackTime
	}
	return t
}

func (m *Mapper) fallback(ev *models.Event, field, value string) {
	ev.Issues = append(ev.Issues, field)
	m.logger.Warn("event field replaced by fallback",
		logging.String("event_id", ev.ID),
		logging.String("field", field),
		logging.String("value", value),
	)
}

func reservationStatus(s string) models.ReservationStatus {
	switch models.ReservationStatus(strings.ToLower(strings.TrimSpace(s))) {
	case models.ReservationConfirmed:
		return models.ReservationConfirmed
	case models.ReservationCancelled, "canceled":
		return models.ReservationCancelled
	default:
		return models.ReservationPending
	}
}
