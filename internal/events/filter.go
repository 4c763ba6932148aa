package events

import (
	"strings"

	"github.com/samber/lo"

	"events-client/internal/models"
)

// FilterLocal applies f to an in-memory list. It exists for fixture and
// offline screens only; live lists are filtered by the server.
//
// Search is a case-insensitive substring match on title, description and
// location. A date range keeps events whose day span overlaps it.
func FilterLocal(events []models.Event, f Filters) []models.Event {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	return lo.Filter(events, func(ev models.Event, _ int) bool {
		if f.Category != "" && f.Category != models.CategoryAll && ev.Category != f.Category {
			return false
		}
		if f.Visibility != "" && ev.Visibility != f.Visibility {
			return false
		}
		if !f.EndDate.IsZero() && ev.StartDate.After(f.EndDate) {
			return false
		}
		if !f.StartDate.IsZero() && ev.LastDay().Before(f.StartDate) {
			return false
		}
		if search == "" {
			return true
		}
		return lo.SomeBy([]string{ev.Title, ev.Description, ev.Location}, func(s string) bool {
			return strings.Contains(strings.ToLower(s), search)
		})
	})
}
