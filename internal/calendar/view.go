package calendar

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/samber/lo"

	"events-client/internal/models"
)

// IsToday reports whether d is the calendar day of now, ignoring time of day.
func IsToday(d models.Date, now time.Time) bool {
	return models.DateOf(now) == d
}

// IsSelected reports whether d is the selected day
func IsSelected(d, selected models.Date) bool {
	return !selected.IsZero() && d == selected
}

// Cell is one day of a month grid
type Cell struct {
	Date     models.Date
	InMonth  bool
	Today    bool
	Selected bool
	Events   []models.Event
}

// Week is seven consecutive cells
type Week [7]Cell

// View is the state of a month calendar: the visible month, the selected day
// and the day index of the events it was given. The index covers the whole
// visible grid, including spill-over days of adjacent months.
type View struct {
	clock     clock.Clock
	loc       *time.Location
	weekStart time.Weekday

	mu       sync.RWMutex
	month    Month
	selected models.Date
	events   []models.Event
	index    Index
}

// NewView opens a view on the current month. A nil clock uses the wall clock
// and a nil location uses time.Local.
func NewView(c clock.Clock, loc *time.Location, weekStart time.Weekday) *View {
	if c == nil {
		c = clock.New()
	}
	if loc == nil {
		loc = time.Local
	}
	v := &View{clock: c, loc: loc, weekStart: weekStart}
	v.month = MonthOf(v.Today())
	v.rebuild()
	return v
}

// Today returns the current calendar day in the view's location
func (v *View) Today() models.Date {
	return models.DateOf(v.clock.Now().In(v.loc))
}

// IsToday reports whether d is today at call time
func (v *View) IsToday(d models.Date) bool {
	return IsToday(d, v.clock.Now().In(v.loc))
}

// Month returns the visible month
func (v *View) Month() Month {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.month
}

// SetMonth changes the visible month and rebuilds the index
func (v *View) SetMonth(m Month) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.month = m
	v.rebuild()
}

// NextMonth advances one month and returns the new anchor
func (v *View) NextMonth() Month { return v.shift(1) }

// PrevMonth goes back one month and returns the new anchor
func (v *View) PrevMonth() Month { return v.shift(-1) }

// NextYear advances twelve months
func (v *View) NextYear() Month { return v.shift(12) }

// PrevYear goes back twelve months
func (v *View) PrevYear() Month { return v.shift(-12) }

func (v *View) shift(n int) Month {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.month = v.month.AddMonths(n)
	v.rebuild()
	return v.month
}

// SetEvents replaces the events and rebuilds the index
func (v *View) SetEvents(events []models.Event) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.events = append([]models.Event(nil), events...)
	v.rebuild()
}

// Select marks d as the selected day
func (v *View) Select(d models.Date) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selected = d
}

// ClearSelection unselects any day
func (v *View) ClearSelection() {
	v.Select(models.Date{})
}

// Selected returns the selected day, if any
func (v *View) Selected() (models.Date, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.selected, !v.selected.IsZero()
}

// IsSelected reports whether d is the selected day
func (v *View) IsSelected(d models.Date) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return IsSelected(d, v.selected)
}

// HasEvents reports whether any event touches d within the visible grid
func (v *View) HasEvents(d models.Date) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.index.HasEvents(d)
}

// EventsOn returns the events touching d within the visible grid
func (v *View) EventsOn(d models.Date) []models.Event {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.index.EventsOn(d)
}

// Upcoming returns the events of the visible month that end on or after
// today, in start order.
func (v *View) Upcoming() []models.Event {
	today := v.Today()
	v.mu.RLock()
	month := v.month
	events := v.events
	v.mu.RUnlock()

	first, last := month.Range()
	upcoming := lo.Filter(events, func(ev models.Event, _ int) bool {
		return !ev.LastDay().Before(today) && !ev.LastDay().Before(first) && !ev.StartDate.After(last)
	})
	sortByStart(upcoming, v.loc)
	return upcoming
}

// Grid returns the weeks covering the visible month
func (v *View) Grid() []Week {
	today := v.Today()
	v.mu.RLock()
	defer v.mu.RUnlock()

	start, end := gridBounds(v.month, v.weekStart)
	weeks := make([]Week, 0, 6)
	for d := start; !d.After(end); {
		var w Week
		for i := range w {
			w[i] = Cell{
				Date:     d,
				InMonth:  v.month.Contains(d),
				Today:    d == today,
				Selected: IsSelected(d, v.selected),
				Events:   v.index.EventsOn(d),
			}
			d = d.AddDays(1)
		}
		weeks = append(weeks, w)
	}
	return weeks
}

func (v *View) rebuild() {
	start, end := gridBounds(v.month, v.weekStart)
	v.index = BucketWithin(v.events, start, end)
}

// gridBounds returns the first and last day of the full weeks covering m.
func gridBounds(m Month, weekStart time.Weekday) (models.Date, models.Date) {
	first, last := m.Range()
	lead := (int(first.In(time.UTC).Weekday()) - int(weekStart) + 7) % 7
	trail := (int(weekStart) + 6 - int(last.In(time.UTC).Weekday()) + 7) % 7
	return first.AddDays(-lead), last.AddDays(trail)
}
