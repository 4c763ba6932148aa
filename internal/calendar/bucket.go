// Package calendar groups events into calendar days and tracks the month a
// calendar view is showing.
package calendar

import (
	"sort"

	"events-client/internal/models"
)

// Index maps a calendar day to the events touching it. An Index is built in
// one pass and never patched; rebuild it when the events or the window change.
type Index struct {
	days map[string][]models.Event
}

// Bucket places every event in the bucket of each day from its start date to
// its end date inclusive, preserving input order within a bucket. An event
// whose end precedes its start is placed on its start date only.
func Bucket(events []models.Event) Index {
	idx := Index{days: make(map[string][]models.Event)}
	for _, ev := range events {
		for d := ev.StartDate; !d.After(ev.LastDay()); d = d.AddDays(1) {
			idx.add(d, ev)
		}
	}
	return idx
}

// BucketWithin is Bucket restricted to days in [from, to]. Long spans, such
// as an event whose start fell back to 1970, cost only the visible days.
func BucketWithin(events []models.Event, from, to models.Date) Index {
	idx := Index{days: make(map[string][]models.Event)}
	if to.Before(from) {
		return idx
	}
	for _, ev := range events {
		start, end := ev.StartDate, ev.LastDay()
		if end.Before(from) || start.After(to) {
			continue
		}
		if start.Before(from) {
			start = from
		}
		if end.After(to) {
			end = to
		}
		for d := start; !d.After(end); d = d.AddDays(1) {
			idx.add(d, ev)
		}
	}
	return idx
}

func (idx Index) add(d models.Date, ev models.Event) {
	key := d.String()
	idx.days[key] = append(idx.days[key], ev)
}

// EventsOn returns the events bucketed on d, in input order
func (idx Index) EventsOn(d models.Date) []models.Event {
	return idx.days[d.String()]
}

// HasEvents reports whether any event touches d
func (idx Index) HasEvents(d models.Date) bool {
	return len(idx.days[d.String()]) > 0
}

// Dates returns the non-empty days as YYYY-MM-DD strings in ascending order
func (idx Index) Dates() []string {
	keys := make([]string, 0, len(idx.days))
	for k := range idx.days {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of non-empty days
func (idx Index) Len() int {
	return len(idx.days)
}
