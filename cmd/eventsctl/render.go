package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"events-client/internal/common/pagination"
	"events-client/internal/models"
)

func eventDays(ev models.Event) string {
	if ev.LastDay() == ev.StartDate {
		return ev.StartDate.String()
	}
	return ev.StartDate.String() + ".." + ev.LastDay().String()
}

func eventPrice(ev models.Event) string {
	if ev.IsFree() {
		return "free"
	}
	return fmt.Sprintf("%.2f", ev.Price)
}

func renderEvents(w io.Writer, list []models.Event) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No events found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTIME\tTITLE\tCATEGORY\tVISIBILITY\tLOCATION\tPRICE")
	for _, ev := range list {
		title := ev.Title
		if ev.Degraded() {
			title += " (!)"
		}
		fmt.Fprintf(tw, "%s\t%s-%s\t%s\t%s\t%s\t%s\t%s\n",
			eventDays(ev), ev.StartTime, ev.EndTime, title,
			ev.Category, ev.Visibility, ev.Location, eventPrice(ev))
	}
	tw.Flush()
}

// renderPager prints the page summary and the compact page buttons with the
// current page in brackets
func renderPager(w io.Writer, meta pagination.Metadata) {
	items := pagination.GeneratePages(meta.CurrentPage, meta.TotalPages)
	labels := make([]string, len(items))
	for i, item := range items {
		if !item.Ellipsis && item.Page == meta.CurrentPage {
			labels[i] = "[" + item.String() + "]"
		} else {
			labels[i] = item.String()
		}
	}
	fmt.Fprintf(w, "\nPage %d of %d, %d events  %s\n",
		meta.CurrentPage, meta.TotalPages, meta.TotalCount, strings.Join(labels, " "))
}

func renderReservations(w io.Writer, list []models.Reservation) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No reservations.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tSEATS\tEVENT\tDATE\tBOOKED")
	for _, r := range list {
		title, date := r.EventID, ""
		if r.Event != nil {
			title, date = r.Event.Title, eventDays(*r.Event)
		}
		booked := ""
		if !r.Created.IsZero() {
			booked = r.Created.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", r.Status, r.Seats, title, date, booked)
	}
	tw.Flush()
}

// ago renders the age of t relative to now in a short human form
func ago(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
