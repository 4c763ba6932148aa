package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"

	"events-client/internal/common/pagination"
	"events-client/internal/models"
)

// FakeAPI is an in-process stand-in for the events REST API. It serves the
// endpoints the client uses under /api, issues opaque tokens and can be told
// to expire them or to fail the next request on a path.
type FakeAPI struct {
	server *httptest.Server

	mu            sync.Mutex
	users         map[string]TestUser
	events        []models.RawEvent
	mine          []models.RawEvent
	reservations  []models.RawReservation
	accessTokens  map[string]string
	refreshTokens map[string]string
	failures      map[string][]failure
	hits          map[string]int
	seq           int

	// BeforeList, when set, runs before GET /events answers. Tests use it to
	// hold a response back.
	BeforeList func(p pagination.Params)
}

type failure struct {
	status int
	body   string
}

// NewFakeAPI starts a FakeAPI loaded with NewTestFixtures and stops it when
// the test ends.
func NewFakeAPI(t testing.TB) *FakeAPI {
	t.Helper()

	fixtures := NewTestFixtures()
	f := &FakeAPI{
		users:         make(map[string]TestUser),
		events:        fixtures.Events,
		accessTokens:  make(map[string]string),
		refreshTokens: make(map[string]string),
		failures:      make(map[string][]failure),
		hits:          make(map[string]int),
	}
	for _, u := range fixtures.Users {
		f.users[u.Profile.Email] = u
	}

	router := mux.NewRouter()
	router.Use(f.recordMiddleware)
	router.Use(f.failureMiddleware)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/login", f.handleLogin).Methods("POST")
	api.HandleFunc("/auth/refresh", f.handleRefresh).Methods("POST")

	protected := api.NewRoute().Subrouter()
	protected.Use(f.authMiddleware)
	protected.HandleFunc("/auth/check-token", f.handleCheckToken).Methods("GET")
	protected.HandleFunc("/events", f.handleListEvents).Methods("GET")
	protected.HandleFunc("/events/user/me", f.handleMyEvents).Methods("GET")
	protected.HandleFunc("/events/{id}", f.handleGetEvent).Methods("GET")
	protected.HandleFunc("/reservations/user/me", f.handleMyReservations).Methods("GET")

	f.server = httptest.NewServer(router)
	t.Cleanup(f.server.Close)
	return f
}

// URL returns the API base URL, including the /api prefix
func (f *FakeAPI) URL() string {
	return f.server.URL + "/api"
}

// Origin returns scheme://host of the server
func (f *FakeAPI) Origin() string {
	return f.server.URL
}

// SetEvents replaces the events served by GET /events
func (f *FakeAPI) SetEvents(events []models.RawEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = events
}

// SetMine sets the events returned by GET /events/user/me
func (f *FakeAPI) SetMine(events []models.RawEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mine = events
}

// SetReservations sets the reservations returned by GET /reservations/user/me
func (f *FakeAPI) SetReservations(reservations []models.RawReservation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reservations = reservations
}

// IssueTokens signs email in without a password and returns its tokens
func (f *FakeAPI) IssueTokens(email string) (access, refresh string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issueLocked(email)
}

func (f *FakeAPI) issueLocked(email string) (string, string) {
	f.seq++
	access := fmt.Sprintf("access-%d", f.seq)
	refresh := fmt.Sprintf("refresh-%d", f.seq)
	f.accessTokens[access] = email
	f.refreshTokens[refresh] = email
	return access, refresh
}

// ExpireAccessTokens invalidates every access token issued so far. Refresh
// tokens stay valid.
func (f *FakeAPI) ExpireAccessTokens() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accessTokens = make(map[string]string)
}

// RevokeRefreshTokens invalidates every refresh token issued so far
func (f *FakeAPI) RevokeRefreshTokens() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshTokens = make(map[string]string)
}

// FailNext makes the next request to path answer status with a JSON
// {"message": msg} body, or a plain body when msg starts with "<".
func (f *FakeAPI) FailNext(path string, status int, msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[path] = append(f.failures[path], failure{status: status, body: msg})
}

// Hits returns how many requests reached "METHOD /api/path"
func (f *FakeAPI) Hits(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[method+" "+path]
}

func (f *FakeAPI) recordMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.hits[r.Method+" "+r.URL.Path]++
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) failureMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		queue := f.failures[r.URL.Path]
		var fail *failure
		if len(queue) > 0 {
			fail = &queue[0]
			f.failures[r.URL.Path] = queue[1:]
		}
		f.mu.Unlock()

		if fail == nil {
			next.ServeHTTP(w, r)
			return
		}
		if strings.HasPrefix(fail.body, "<") {
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(fail.status)
			_, _ = w.Write([]byte(fail.body))
			return
		}
		sendError(w, fail.status, fail.body)
	})
}

func (f *FakeAPI) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		f.mu.Lock()
		_, ok := f.accessTokens[token]
		f.mu.Unlock()
		if token == "" || !ok {
			sendError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	f.mu.Lock()
	user, ok := f.users[strings.ToLower(req.Email)]
	if !ok || user.Password != req.Password {
		f.mu.Unlock()
		sendError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	access, refresh := f.issueLocked(user.Profile.Email)
	f.mu.Unlock()

	sendJSON(w, map[string]interface{}{
		"token":        access,
		"refreshToken": refresh,
		"_id":          user.Profile.ID,
		"name":         user.Profile.Name,
		"email":        user.Profile.Email,
		"role":         user.Profile.Role,
	})
}

func (f *FakeAPI) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	f.mu.Lock()
	email, ok := f.refreshTokens[req.RefreshToken]
	if !ok {
		f.mu.Unlock()
		sendError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	delete(f.refreshTokens, req.RefreshToken)
	access, refresh := f.issueLocked(email)
	f.mu.Unlock()

	sendJSON(w, map[string]string{"token": access, "refreshToken": refresh})
}

func (f *FakeAPI) handleCheckToken(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	f.mu.Lock()
	user := f.users[f.accessTokens[token]]
	f.mu.Unlock()
	sendJSON(w, user.Profile)
}

func (f *FakeAPI) handleListEvents(w http.ResponseWriter, r *http.Request) {
	params := pagination.ParseParams(r)
	if f.BeforeList != nil {
		f.BeforeList(params)
	}

	q := r.URL.Query()
	category := q.Get("type")
	search := strings.ToLower(q.Get("search"))
	visibility := q.Get("visibility")
	from, to := q.Get("startDate"), q.Get("endDate")

	f.mu.Lock()
	var matched []models.RawEvent
	for _, ev := range f.events {
		if category != "" && !strings.EqualFold(ev.Type, category) {
			continue
		}
		if visibility != "" && ev.Visibility != visibility {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(ev.Title), search) {
			continue
		}
		// ISO dates compare correctly as strings
		if to != "" && ev.StartDate > to {
			continue
		}
		if from != "" && ev.EndDate < from {
			continue
		}
		matched = append(matched, ev)
	}
	f.mu.Unlock()

	meta := pagination.NewMetadata(params, len(matched))
	page := pagination.Slice(matched, params)
	if page == nil {
		page = []models.RawEvent{}
	}

	sendJSON(w, struct {
		Events []models.RawEvent `json:"events"`
		pagination.Metadata
	}{Events: page, Metadata: meta})
}

func (f *FakeAPI) handleMyEvents(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	mine := append([]models.RawEvent{}, f.mine...)
	f.mu.Unlock()
	sendJSON(w, mine)
}

func (f *FakeAPI) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	f.mu.Lock()
	defer f.mu.Unlock()
	all := append(append([]models.RawEvent{}, f.events...), f.mine...)
	for _, ev := range all {
		if ev.ID == id {
			sendJSON(w, ev)
			return
		}
	}
	sendError(w, http.StatusNotFound, "Event not found")
}

func (f *FakeAPI) handleMyReservations(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	reservations := append([]models.RawReservation{}, f.reservations...)
	f.mu.Unlock()
	sendJSON(w, reservations)
}

func sendJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

func sendError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
