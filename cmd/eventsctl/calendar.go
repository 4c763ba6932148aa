package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"events-client/internal/calendar"
	"events-client/internal/common/errors"
	"events-client/internal/common/pagination"
	"events-client/internal/common/validation"
	"events-client/internal/events"
	"events-client/internal/models"
)

// maxRangePages bounds how many pages a month fetch may walk
const maxRangePages = 20

func parseMonth(s string) (calendar.Month, error) {
	m, err := calendar.ParseMonth(s)
	if err != nil {
		return calendar.Month{}, errors.ValidationError(fmt.Sprintf("month %q must be in YYYY-MM form", s))
	}
	return m, nil
}

type monthFlags struct {
	Month string `json:"month" validate:"month"`
	Day   string `json:"day" validate:"iso_date"`
}

// fetchRange returns every event overlapping [from, to], walking pages until
// the server reports no next page
func (c *cli) fetchRange(ctx context.Context, from, to models.Date, offline bool) ([]models.Event, error) {
	f := events.Filters{StartDate: from, EndDate: to}
	if offline {
		sample, err := c.app.Fixtures.SampleEvents(ctx)
		if err != nil {
			return nil, err
		}
		return events.FilterLocal(sample, f), nil
	}

	if err := c.requireSession(ctx); err != nil {
		return nil, err
	}
	var all []models.Event
	q := events.Query{Params: pagination.Params{Page: 1, Limit: pagination.MaxLimit}, Filters: f}
	for ; q.Page <= maxRangePages; q.Page++ {
		page, err := c.app.Events.List(ctx, q)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Events...)
		if !page.Pagination.HasNextPage {
			break
		}
	}
	return all, nil
}

func (c *cli) calendar(ctx context.Context, args []string) error {
	fs := c.flags("calendar")
	var mf monthFlags
	fs.StringVar(&mf.Month, "month", "", "month to show, YYYY-MM (default: this month)")
	fs.StringVar(&mf.Day, "day", "", "select a day and list its events, YYYY-MM-DD")
	offline := fs.Bool("offline", false, "use sample events without contacting the API")
	if err := c.parse(fs, args); err != nil {
		return err
	}
	if err := validation.Default().Struct(mf); err != nil {
		return err
	}

	view := c.app.NewCalendar()
	if mf.Day != "" {
		day := models.MustParseDate(mf.Day)
		view.SetMonth(calendar.MonthOf(day))
		view.Select(day)
	}
	if mf.Month != "" {
		m, err := parseMonth(mf.Month)
		if err != nil {
			return err
		}
		view.SetMonth(m)
	}

	// a week either side covers the spill-over days of the grid
	first, last := view.Month().Range()
	list, err := c.fetchRange(ctx, first.AddDays(-7), last.AddDays(7), *offline)
	if err != nil {
		return err
	}
	view.SetEvents(list)

	renderGrid(c.out, view)

	if day, ok := view.Selected(); ok {
		fmt.Fprintf(c.out, "\nEvents on %s:\n", day)
		renderEvents(c.out, view.EventsOn(day))
		return nil
	}
	fmt.Fprintln(c.out, "\nUpcoming:")
	renderEvents(c.out, view.Upcoming())
	return nil
}

// renderGrid prints the month with today in brackets, the selected day in
// angle brackets and event days starred
func renderGrid(w io.Writer, view *calendar.View) {
	grid := view.Grid()
	fmt.Fprintf(w, "%s\n", view.Month())

	var header strings.Builder
	for _, cell := range grid[0] {
		header.WriteString(fmt.Sprintf(" %-4s", cell.Date.In(time.UTC).Weekday().String()[:2]))
	}
	fmt.Fprintln(w, strings.TrimRight(header.String(), " "))

	for _, week := range grid {
		var line strings.Builder
		for _, cell := range week {
			line.WriteString(renderCell(cell))
		}
		fmt.Fprintln(w, strings.TrimRight(line.String(), " "))
	}
}

func renderCell(cell calendar.Cell) string {
	if !cell.InMonth {
		return "     "
	}
	left, right := " ", " "
	switch {
	case cell.Selected:
		left, right = "<", ">"
	case cell.Today:
		left, right = "[", "]"
	}
	mark := " "
	if len(cell.Events) > 0 {
		mark = "*"
	}
	return fmt.Sprintf("%s%2d%s%s", left, cell.Date.Day, right, mark)
}

func (c *cli) exportICS(ctx context.Context, args []string) error {
	fs := c.flags("export-ics")
	var mf monthFlags
	fs.StringVar(&mf.Month, "month", "", "month to export, YYYY-MM (default: this month)")
	out := fs.String("out", "", "output file (default: stdout)")
	offline := fs.Bool("offline", false, "export sample events without contacting the API")
	if err := c.parse(fs, args); err != nil {
		return err
	}
	if err := validation.Default().Struct(mf); err != nil {
		return err
	}

	month := calendar.MonthOf(c.app.NewCalendar().Today())
	if mf.Month != "" {
		m, err := parseMonth(mf.Month)
		if err != nil {
			return err
		}
		month = m
	}

	first, last := month.Range()
	list, err := c.fetchRange(ctx, first, last, *offline)
	if err != nil {
		return err
	}

	w := c.out
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", *out, err)
		}
		defer f.Close()
		w = f
	}
	if err := calendar.ExportICS(w, list, c.app.Location, c.app.Clock.Now()); err != nil {
		return err
	}
	if *out != "" {
		fmt.Fprintf(c.err, "Wrote %d events for %s to %s\n", len(list), month, *out)
	}
	return nil
}
