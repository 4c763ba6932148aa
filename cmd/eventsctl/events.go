package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"

	"events-client/internal/common/errors"
	"events-client/internal/common/pagination"
	"events-client/internal/common/validation"
	"events-client/internal/events"
	"events-client/internal/listing"
	"events-client/internal/models"
)

// listFlags are the filter flags shared by events and watch
type listFlags struct {
	Page       int    `json:"page" validate:"min=1"`
	Limit      int    `json:"limit" validate:"min=1,max=100"`
	Category   string `json:"category" validate:"category"`
	Visibility string `json:"visibility" validate:"visibility"`
	Search     string `json:"search"`
	From       string `json:"from" validate:"iso_date"`
	To         string `json:"to" validate:"iso_date"`
	Month      string `json:"month" validate:"month"`
}

func (c *cli) bindListFlags(fs *flag.FlagSet, lf *listFlags) {
	fs.IntVar(&lf.Page, "page", 1, "page number")
	fs.IntVar(&lf.Limit, "limit", c.app.Config.PageLimit, "events per page")
	fs.StringVar(&lf.Category, "category", "", "category filter, or All")
	fs.StringVar(&lf.Visibility, "visibility", "", "public or private")
	fs.StringVar(&lf.Search, "search", "", "text to search for")
	fs.StringVar(&lf.From, "from", "", "earliest day, YYYY-MM-DD")
	fs.StringVar(&lf.To, "to", "", "latest day, YYYY-MM-DD")
	fs.StringVar(&lf.Month, "month", "", "limit to a month, YYYY-MM (overrides --from/--to)")
}

// filters validates the flags and converts them into list filters
func (lf listFlags) filters() (events.Filters, error) {
	if err := validation.Default().Struct(lf); err != nil {
		return events.Filters{}, err
	}

	var f events.Filters
	if lf.Category != "" && !strings.EqualFold(lf.Category, string(models.CategoryAll)) {
		f.Category, _ = models.ParseCategory(lf.Category)
	}
	if lf.Visibility != "" {
		f.Visibility, _ = models.ParseVisibility(lf.Visibility)
	}
	f.Search = strings.TrimSpace(lf.Search)

	if lf.Month != "" {
		m, err := parseMonth(lf.Month)
		if err != nil {
			return f, err
		}
		f.StartDate, f.EndDate = m.Range()
		return f, nil
	}
	if lf.From != "" {
		f.StartDate = models.MustParseDate(lf.From)
	}
	if lf.To != "" {
		f.EndDate = models.MustParseDate(lf.To)
	}
	if !f.StartDate.IsZero() && !f.EndDate.IsZero() && f.EndDate.Before(f.StartDate) {
		return f, errors.ValidationError("to must not be before from")
	}
	return f, nil
}

func (c *cli) events(ctx context.Context, args []string) error {
	fs := c.flags("events")
	var lf listFlags
	c.bindListFlags(fs, &lf)
	offline := fs.Bool("offline", false, "list sample events without contacting the API")
	asJSON := fs.Bool("json", false, "print JSON instead of a table")
	if err := c.parse(fs, args); err != nil {
		return err
	}
	f, err := lf.filters()
	if err != nil {
		return err
	}

	var page events.Page
	if *offline {
		page, err = c.offlinePage(ctx, f, pagination.Params{Page: lf.Page, Limit: lf.Limit})
	} else {
		page, err = c.onlinePage(ctx, f, lf.Page, lf.Limit)
	}
	if err != nil {
		return err
	}

	if *asJSON {
		return writeJSON(c.out, page)
	}
	renderEvents(c.out, page.Events)
	renderPager(c.out, page.Pagination)
	return nil
}

// onlinePage drives a list controller to the requested page
func (c *cli) onlinePage(ctx context.Context, f events.Filters, page, limit int) (events.Page, error) {
	if err := c.requireSession(ctx); err != nil {
		return events.Page{}, err
	}

	ctl := c.app.NewLister(listing.WithFilters(f), listing.WithLimit(limit))
	defer ctl.Close()

	done := make(chan struct{})
	go func() {
		ctl.GoToPage(page)
		ctl.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return events.Page{}, ctx.Err()
	}

	state := ctl.State()
	switch state.Status {
	case listing.StatusReady:
		return events.Page{Events: state.Events, Pagination: state.Pagination}, nil
	case listing.StatusError, listing.StatusSessionExpired:
		return events.Page{}, state.Err
	}
	return events.Page{}, fmt.Errorf("event list ended in state %s", state.Status)
}

// offlinePage filters and pages the fixture events locally
func (c *cli) offlinePage(ctx context.Context, f events.Filters, p pagination.Params) (events.Page, error) {
	sample, err := c.app.Fixtures.SampleEvents(ctx)
	if err != nil {
		return events.Page{}, err
	}
	matched := events.FilterLocal(sample, f)
	p = p.Normalize()
	return events.Page{
		Events:     pagination.Slice(matched, p),
		Pagination: pagination.NewMetadata(p, len(matched)),
	}, nil
}

func (c *cli) mine(ctx context.Context, args []string) error {
	fs := c.flags("mine")
	asJSON := fs.Bool("json", false, "print JSON instead of a table")
	if err := c.parse(fs, args); err != nil {
		return err
	}
	if err := c.requireSession(ctx); err != nil {
		return err
	}

	mine, err := c.app.Events.Mine(ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(c.out, mine)
	}
	renderEvents(c.out, mine)
	return nil
}

func (c *cli) reservations(ctx context.Context, args []string) error {
	fs := c.flags("reservations")
	all := fs.Bool("all", false, "include cancelled reservations")
	asJSON := fs.Bool("json", false, "print JSON instead of a table")
	if err := c.parse(fs, args); err != nil {
		return err
	}
	if err := c.requireSession(ctx); err != nil {
		return err
	}

	res, err := c.app.Events.MyReservations(ctx)
	if err != nil {
		return err
	}
	if !*all {
		active := res[:0:0]
		for _, r := range res {
			if r.Active() {
				active = append(active, r)
			}
		}
		res = active
	}
	if *asJSON {
		return writeJSON(c.out, res)
	}
	renderReservations(c.out, res)
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
