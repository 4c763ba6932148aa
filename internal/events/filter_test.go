package events

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"events-client/internal/models"
)

func sampleEvents() []models.Event {
	d := models.MustParseDate
	return []models.Event{
		{ID: "1", Title: "Summer Rave", Location: "Warehouse", Category: models.CategoryRave,
			Visibility: models.VisibilityPublic, StartDate: d("2025-07-04"), EndDate: d("2025-07-05")},
		{ID: "2", Title: "Team Lunch", Description: "Pizza for everyone", Category: models.CategoryFood,
			Visibility: models.VisibilityPrivate, StartDate: d("2025-07-10"), EndDate: d("2025-07-10")},
		{ID: "3", Title: "Go Conference", Location: "Berlin", Category: models.CategoryConference,
			Visibility: models.VisibilityPublic, StartDate: d("2025-08-01"), EndDate: d("2025-08-03")},
		{ID: "4", Title: "Broken dates", Category: models.CategoryOther,
			Visibility: models.VisibilityPublic, StartDate: d("2025-07-20"), EndDate: d("2025-07-18")},
	}
}

func ids(events []models.Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.ID
	}
	return out
}

func TestFilterLocal(t *testing.T) {
	d := models.MustParseDate

	tests := []struct {
		name    string
		filters Filters
		want    []string
	}{
		{"no filters", Filters{}, []string{"1", "2", "3", "4"}},
		{"All category", Filters{Category: models.CategoryAll}, []string{"1", "2", "3", "4"}},
		{"category", Filters{Category: models.CategoryFood}, []string{"2"}},
		{"visibility", Filters{Visibility: models.VisibilityPrivate}, []string{"2"}},
		{"search title case-insensitive", Filters{Search: "RAVE"}, []string{"1"}},
		{"search description", Filters{Search: "pizza"}, []string{"2"}},
		{"search location", Filters{Search: "berlin"}, []string{"3"}},
		{"date range overlap", Filters{StartDate: d("2025-07-05"), EndDate: d("2025-07-31")}, []string{"1", "2", "4"}},
		{"reversed span counts as start day", Filters{StartDate: d("2025-07-19"), EndDate: d("2025-07-19")}, []string{}},
		{"combined", Filters{Category: models.CategoryRave, Search: "summer", Visibility: models.VisibilityPublic}, []string{"1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(FilterLocal(sampleEvents(), tt.filters)))
		})
	}
}
