package calendar

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	ics "github.com/emersion/go-ical"

	"events-client/internal/models"
)

const productID = "-//events-client//eventsctl//EN"

// ExportICS writes events as an iCalendar document. Events whose start and
// end time are both midnight are exported as all-day events; others as UTC
// date-times interpreted in loc. now stamps DTSTAMP.
func ExportICS(w io.Writer, events []models.Event, loc *time.Location, now time.Time) error {
	if loc == nil {
		loc = time.Local
	}

	cal := ics.NewCalendar()
	cal.Props.SetText(ics.PropVersion, "2.0")
	cal.Props.SetText(ics.PropProductID, productID)

	sorted := append([]models.Event(nil), events...)
	sortByStart(sorted, loc)

	for _, ev := range sorted {
		event := ics.NewEvent()
		event.Props.SetText(ics.PropUID, uid(ev))
		event.Props.SetDateTime(ics.PropDateTimeStamp, now.UTC())
		event.Props.SetText(ics.PropSummary, ev.Title)
		if ev.Description != "" {
			event.Props.SetText(ics.PropDescription, ev.Description)
		}
		if ev.Location != "" {
			event.Props.SetText(ics.PropLocation, ev.Location)
		}
		event.Props.SetText(ics.PropCategories, string(ev.Category))
		event.Props.SetText(ics.PropClass, strings.ToUpper(string(ev.Visibility)))

		if allDay(ev) {
			event.Props.SetDate(ics.PropDateTimeStart, ev.StartDate.In(time.UTC))
			event.Props.SetDate(ics.PropDateTimeEnd, ev.LastDay().AddDays(1).In(time.UTC))
		} else {
			event.Props.SetDateTime(ics.PropDateTimeStart, ev.Starts(loc).UTC())
			event.Props.SetDateTime(ics.PropDateTimeEnd, ev.Ends(loc).UTC())
		}

		cal.Children = append(cal.Children, event.Component)
	}

	if err := ics.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}

func allDay(ev models.Event) bool {
	return ev.StartTime == models.FallbackTime && ev.EndTime == models.FallbackTime
}

func uid(ev models.Event) string {
	if ev.ID != "" {
		return ev.ID + "@events-client"
	}
	return fmt.Sprintf("%s-%s@events-client", ev.StartDate, strings.ReplaceAll(strings.ToLower(ev.Title), " ", "-"))
}

func sortByStart(events []models.Event, loc *time.Location) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Starts(loc).Before(events[j].Starts(loc))
	})
}
