// Package listing drives a filtered, paginated event list.
//
// Fetches may overlap. Every fetch is tagged with a sequence number and the
// previous fetch's context is cancelled, so only the response to the most
// recently issued request can change the visible state. After Close nothing
// changes state.
package listing

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"events-client/internal/calendar"
	"events-client/internal/common/debounce"
	"events-client/internal/common/errors"
	"events-client/internal/common/logging"
	"events-client/internal/common/pagination"
	"events-client/internal/events"
	"events-client/internal/models"
)

// Lister fetches one page. *events.API satisfies it.
type Lister interface {
	List(ctx context.Context, q events.Query) (events.Page, error)
}

// Status is what the list is currently showing
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusError
	// StatusSessionExpired is kept apart from StatusError so views can send
	// the user to sign in.
	StatusSessionExpired
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	case StatusSessionExpired:
		return "session_expired"
	default:
		return "unknown"
	}
}

// State is a snapshot of the list
type State struct {
	Status     Status
	Query      events.Query
	Events     []models.Event
	Pagination pagination.Metadata
	Pages      []pagination.Item
	Err        error
	Message    string
	// Seq is the request the snapshot belongs to
	Seq uint64
}

// Option configures a Controller
type Option func(*Controller)

// WithClock sets the clock behind the search debouncer
func WithClock(c clock.Clock) Option {
	return func(ctl *Controller) {
		ctl.clock = c
	}
}

// WithSearchDelay sets the search debounce delay
func WithSearchDelay(d time.Duration) Option {
	return func(ctl *Controller) {
		ctl.searchDelay = d
	}
}

// WithLimit sets the page size
func WithLimit(limit int) Option {
	return func(ctl *Controller) {
		ctl.query.Limit = limit
	}
}

// WithFilters sets the initial filters
func WithFilters(f events.Filters) Option {
	return func(ctl *Controller) {
		ctl.query.Filters = f
	}
}

// WithLogger sets the logger
func WithLogger(logger logging.Logger) Option {
	return func(ctl *Controller) {
		ctl.logger = logger
	}
}

// Controller owns the query and the visible state of one list
type Controller struct {
	lister      Lister
	clock       clock.Clock
	searchDelay time.Duration
	search      *debounce.Debouncer
	logger      logging.Logger

	ctx        context.Context
	cancelAll  context.CancelFunc
	inflight   sync.WaitGroup
	notifyMu   sync.Mutex
	subscribed map[int]func(State)
	nextSub    int

	mu     sync.Mutex
	query  events.Query
	state  State
	seq    uint64
	cancel context.CancelFunc
	closed bool
}

// New creates an idle Controller. Nothing is fetched until Refresh or a
// setter is called.
func New(lister Lister, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	ctl := &Controller{
		lister:      lister,
		clock:       clock.New(),
		searchDelay: debounce.DefaultDelay,
		logger:      logging.GetGlobalLogger(),
		ctx:         ctx,
		cancelAll:   cancel,
		subscribed:  make(map[int]func(State)),
		query:       events.Query{Params: pagination.Params{Page: 1, Limit: pagination.DefaultLimit}},
	}
	for _, opt := range opts {
		opt(ctl)
	}
	ctl.query.Params = ctl.query.Params.Normalize()
	ctl.search = debounce.New(ctl.clock, ctl.searchDelay)
	ctl.logger = ctl.logger.WithFields(logging.Field{Key: "component", Value: "listing"})
	ctl.state.Query = ctl.query
	return ctl
}

// Refresh fetches the current page again
func (c *Controller) Refresh() {
	c.update(func(q *events.Query) bool { return true })
}

// SetCategory filters by category and returns to page 1. models.CategoryAll
// or "" removes the constraint.
func (c *Controller) SetCategory(category models.Category) {
	c.update(func(q *events.Query) bool {
		q.Category = category
		q.Page = 1
		return true
	})
}

// SetVisibility filters by visibility and returns to page 1
func (c *Controller) SetVisibility(visibility models.Visibility) {
	c.update(func(q *events.Query) bool {
		q.Visibility = visibility
		q.Page = 1
		return true
	})
}

// SetDateRange limits the list to events overlapping [from, to] and returns
// to page 1. Zero dates remove the bound.
func (c *Controller) SetDateRange(from, to models.Date) {
	c.update(func(q *events.Query) bool {
		q.StartDate = from
		q.EndDate = to
		q.Page = 1
		return true
	})
}

// SetMonth scopes the list to the days of m
func (c *Controller) SetMonth(m calendar.Month) {
	from, to := m.Range()
	c.SetDateRange(from, to)
}

// SetSearch schedules a search for term after the debounce delay. Each call
// replaces the pending one; only the last term is sent.
func (c *Controller) SetSearch(term string) {
	term = strings.TrimSpace(term)
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}
	c.search.Trigger(func() {
		c.update(func(q *events.Query) bool {
			if q.Search == term {
				return false
			}
			q.Search = term
			q.Page = 1
			return true
		})
	})
}

// SearchPending reports whether a debounced search has not been sent yet
func (c *Controller) SearchPending() bool {
	return c.search.Pending()
}

// GoToPage fetches page. Pages past the last known page are clamped.
func (c *Controller) GoToPage(page int) {
	c.update(func(q *events.Query) bool {
		if total := c.state.Pagination.TotalPages; total > 0 && page > total {
			page = total
		}
		if page < 1 {
			page = 1
		}
		q.Page = page
		return true
	})
}

// NextPage moves forward when the server reported a next page
func (c *Controller) NextPage() bool {
	c.mu.Lock()
	meta := c.state.Pagination
	c.mu.Unlock()
	if !meta.HasNextPage {
		return false
	}
	c.GoToPage(meta.CurrentPage + 1)
	return true
}

// PrevPage moves back when not on the first page
func (c *Controller) PrevPage() bool {
	c.mu.Lock()
	meta := c.state.Pagination
	c.mu.Unlock()
	if !meta.HasPrevPage() {
		return false
	}
	c.GoToPage(meta.CurrentPage - 1)
	return true
}

// update applies mutate to the query and, when it reports a change, starts
// a fetch that supersedes any fetch still in flight.
func (c *Controller) update(mutate func(q *events.Query) bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	q := c.query
	if !mutate(&q) {
		c.mu.Unlock()
		return
	}
	c.query = q

	c.seq++
	seq := c.seq
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancel = cancel

	c.state.Status = StatusLoading
	c.state.Query = q
	c.state.Seq = seq
	snap := c.snapshotLocked()
	c.inflight.Add(1)
	c.mu.Unlock()

	c.notify(snap)

	go func() {
		defer c.inflight.Done()
		defer cancel()
		page, err := c.lister.List(ctx, q)
		c.apply(seq, page, err)
	}()
}

func (c *Controller) apply(seq uint64, page events.Page, err error) {
	c.mu.Lock()
	if c.closed || seq != c.seq {
		c.mu.Unlock()
		c.logger.Debug("Discarding superseded response", logging.Uint64("seq", seq))
		return
	}
	if err != nil && errors.IsCanceled(err) {
		c.mu.Unlock()
		return
	}

	if err != nil {
		c.state.Err = err
		c.state.Message = errors.UserMessage(err)
		if errors.IsType(err, errors.ErrTypeSessionExpired) {
			c.state.Status = StatusSessionExpired
		} else {
			c.state.Status = StatusError
		}
		c.logger.Warn("Event list fetch failed",
			logging.Int("page", c.state.Query.Page),
			logging.Err(err),
		)
	} else {
		meta := page.Pagination
		c.state.Status = StatusReady
		c.state.Err = nil
		c.state.Message = ""
		c.state.Events = page.Events
		c.state.Pagination = meta
		c.state.Pages = pagination.GeneratePages(meta.CurrentPage, meta.TotalPages)
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// Subscribe registers fn for state changes and returns a function that
// removes it. fn is called outside the controller's lock, one call at a time.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subscribed[id] = fn
	return func() {
		c.notifyMu.Lock()
		defer c.notifyMu.Unlock()
		delete(c.subscribed, id)
	}
}

func (c *Controller) notify(s State) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	for _, fn := range c.subscribed {
		fn(s)
	}
}

// State returns the current snapshot
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	s := c.state
	s.Events = append([]models.Event(nil), c.state.Events...)
	s.Pages = append([]pagination.Item(nil), c.state.Pages...)
	return s
}

// Wait blocks until no fetch is in flight. A pending debounced search is
// not waited for.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// Close cancels the in-flight fetch and any pending search. No state change
// happens after Close returns.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.search.Cancel()
	c.cancelAll()
	c.inflight.Wait()
}
