package calendar

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"events-client/internal/models"
)

func event(id, start, end string) models.Event {
	return models.Event{
		ID:        id,
		Title:     "Event " + id,
		StartDate: models.MustParseDate(start),
		EndDate:   models.MustParseDate(end),
		StartTime: "18:00",
		EndTime:   "22:00",
	}
}

func ids(events []models.Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.ID
	}
	return out
}

func TestBucket_SpanInclusive(t *testing.T) {
	spans := [][2]string{
		{"2025-07-01", "2025-07-01"},
		{"2025-07-30", "2025-08-02"},
		{"2024-12-31", "2025-01-01"},
		{"2024-02-27", "2024-03-01"},
	}

	for _, span := range spans {
		t.Run(span[0]+".."+span[1], func(t *testing.T) {
			ev := event("e", span[0], span[1])
			idx := Bucket([]models.Event{ev})

			d1, d2 := ev.StartDate, ev.EndDate
			expected := d1.DaysUntil(d2) + 1
			assert.Equal(t, expected, idx.Len())

			for d := d1.AddDays(-3); !d.After(d2.AddDays(3)); d = d.AddDays(1) {
				inside := !d.Before(d1) && !d.After(d2)
				assert.Equal(t, inside, idx.HasEvents(d), d.String())
			}
		})
	}
}

func TestBucket_ReversedRange(t *testing.T) {
	ev := event("rev", "2025-07-10", "2025-07-01")
	idx := Bucket([]models.Event{ev})

	assert.Equal(t, []string{"2025-07-10"}, idx.Dates())
	assert.Equal(t, []string{"rev"}, ids(idx.EventsOn(ev.StartDate)))
	assert.False(t, idx.HasEvents(models.MustParseDate("2025-07-05")))
}

func TestBucket_StableOrderNoDedup(t *testing.T) {
	events := []models.Event{
		event("b", "2025-07-01", "2025-07-03"),
		event("a", "2025-07-02", "2025-07-02"),
		event("c", "2025-06-30", "2025-07-02"),
	}
	idx := Bucket(events)

	assert.Equal(t, []string{"b", "a", "c"}, ids(idx.EventsOn(models.MustParseDate("2025-07-02"))))
	assert.Equal(t, []string{"b", "c"}, ids(idx.EventsOn(models.MustParseDate("2025-07-01"))))
	assert.Equal(t, []string{"b"}, ids(idx.EventsOn(models.MustParseDate("2025-07-03"))))
	assert.Nil(t, idx.EventsOn(models.MustParseDate("2025-07-04")))
}

func TestBucket_Empty(t *testing.T) {
	idx := Bucket(nil)
	assert.Equal(t, 0, idx.Len())
	assert.Empty(t, idx.Dates())
}

func TestBucketWithin_ClipsLongSpans(t *testing.T) {
	fallback := models.Event{ID: "old", StartDate: models.FallbackDate, EndDate: models.MustParseDate("2025-07-02")}
	outside := event("out", "2025-09-01", "2025-09-02")
	from, to := models.MustParseDate("2025-07-01"), models.MustParseDate("2025-07-31")

	idx := BucketWithin([]models.Event{fallback, outside}, from, to)

	assert.Equal(t, []string{"2025-07-01", "2025-07-02"}, idx.Dates())
	assert.Equal(t, 0, BucketWithin([]models.Event{fallback}, to, from).Len())
}

func TestBucketWithin_MatchesBucketInsideWindow(t *testing.T) {
	events := make([]models.Event, 0, 20)
	for i := 0; i < 20; i++ {
		start := models.MustParseDate("2025-06-20").AddDays(i * 2)
		events = append(events, models.Event{
			ID:        fmt.Sprintf("e%d", i),
			StartDate: start,
			EndDate:   start.AddDays(i % 5),
		})
	}
	from, to := models.MustParseDate("2025-07-01"), models.MustParseDate("2025-07-31")

	full := Bucket(events)
	window := BucketWithin(events, from, to)

	for d := from; !d.After(to); d = d.AddDays(1) {
		require.Equal(t, ids(full.EventsOn(d)), ids(window.EventsOn(d)), d.String())
	}
}
