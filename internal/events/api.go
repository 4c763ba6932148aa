// Package events is the typed client for the events endpoints. Every record
// that comes back is passed through the mapper before callers see it.
package events

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	apihttp "events-client/internal/common/http"
	"events-client/internal/common/logging"
	"events-client/internal/common/pagination"
	"events-client/internal/mapper"
	"events-client/internal/models"
)

// Requester performs one API call. *apihttp.Client satisfies it.
type Requester interface {
	Do(ctx context.Context, req *apihttp.Request, out interface{}) error
}

// Filters narrows an event list. Zero values mean no constraint; Category
// may also be models.CategoryAll.
type Filters struct {
	Category   models.Category
	Search     string
	StartDate  models.Date
	EndDate    models.Date
	Visibility models.Visibility
}

// Query is one page request
type Query struct {
	pagination.Params
	Filters
}

// Values encodes the query the way GET /events expects it
func (q Query) Values() url.Values {
	values := url.Values{}
	q.Params.Apply(values)

	if q.Category != "" && q.Category != models.CategoryAll {
		values.Set("type", string(q.Category))
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		values.Set("search", search)
	}
	if !q.StartDate.IsZero() {
		values.Set("startDate", q.StartDate.String())
	}
	if !q.EndDate.IsZero() {
		values.Set("endDate", q.EndDate.String())
	}
	if q.Visibility != "" {
		values.Set("visibility", string(q.Visibility))
	}
	return values
}

// Page is one page of normalized events with the server's pagination block
type Page struct {
	Events     []models.Event      `json:"events"`
	Pagination pagination.Metadata `json:"pagination"`
}

type listResponse struct {
	Events []models.RawEvent `json:"events"`
	pagination.Metadata
}

// API reads events and reservations
type API struct {
	client Requester
	mapper *mapper.Mapper
	logger logging.Logger
}

// NewAPI creates an API
func NewAPI(client Requester, m *mapper.Mapper, logger logging.Logger) *API {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &API{
		client: client,
		mapper: m,
		logger: logger.WithFields(logging.Field{Key: "component", Value: "events_api"}),
	}
}

// List fetches exactly one page of events matching q
func (a *API) List(ctx context.Context, q Query) (Page, error) {
	var resp listResponse
	err := a.client.Do(ctx, &apihttp.Request{
		Method: http.MethodGet,
		Path:   "/events",
		Query:  q.Values(),
	}, &resp)
	if err != nil {
		return Page{}, err
	}

	page := Page{
		Events:     a.mapper.Events(resp.Events),
		Pagination: resp.Metadata,
	}
	if page.Pagination.CurrentPage == 0 {
		page.Pagination.CurrentPage = q.Params.Normalize().Page
	}

	a.logger.Debug("Fetched events page",
		logging.Int("page", page.Pagination.CurrentPage),
		logging.Int("total_pages", page.Pagination.TotalPages),
		logging.Int("count", len(page.Events)),
	)
	return page, nil
}

// Mine fetches the events created by the signed-in user
func (a *API) Mine(ctx context.Context) ([]models.Event, error) {
	var raws []models.RawEvent
	if err := a.client.Do(ctx, &apihttp.Request{Method: http.MethodGet, Path: "/events/user/me"}, &raws); err != nil {
		return nil, err
	}
	return a.mapper.Events(raws), nil
}

// Get fetches one event by id
func (a *API) Get(ctx context.Context, id string) (models.Event, error) {
	var raw models.RawEvent
	req := &apihttp.Request{Method: http.MethodGet, Path: "/events/" + url.PathEscape(id)}
	if err := a.client.Do(ctx, req, &raw); err != nil {
		return models.Event{}, err
	}
	return a.mapper.Event(raw), nil
}

// MyReservations fetches the signed-in user's reservations
func (a *API) MyReservations(ctx context.Context) ([]models.Reservation, error) {
	var raws []models.RawReservation
	if err := a.client.Do(ctx, &apihttp.Request{Method: http.MethodGet, Path: "/reservations/user/me"}, &raws); err != nil {
		return nil, err
	}
	reservations := make([]models.Reservation, len(raws))
	for i, raw := range raws {
		reservations[i] = a.mapper.Reservation(raw)
	}
	return reservations, nil
}
