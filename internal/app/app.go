package app

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"events-client/internal/calendar"
	"events-client/internal/circuitbreaker"
	apihttp "events-client/internal/common/http"
	"events-client/internal/common/logging"
	"events-client/internal/config"
	"events-client/internal/crypto"
	"events-client/internal/events"
	"events-client/internal/fixtures"
	"events-client/internal/listing"
	"events-client/internal/mapper"
	"events-client/internal/redis"
	"events-client/internal/session"
	"events-client/internal/tokenstore"
)

// App holds all the client dependencies
type App struct {
	Config      *config.Config
	Client      *apihttp.Client
	Breaker     *circuitbreaker.Breaker
	Mapper      *mapper.Mapper
	Tokens      tokenstore.Store
	Session     *session.Store
	Events      *events.API
	Fixtures    fixtures.Provider
	RedisClient *redis.Client
	Encryptor   *crypto.Encryptor
	Clock       clock.Clock
	Location    *time.Location
	WeekStart   time.Weekday
	Logger      logging.Logger
}

// Option adjusts an App before its components are built
type Option func(*App)

// WithClock replaces the wall clock
func WithClock(c clock.Clock) Option {
	return func(app *App) {
		app.Clock = c
	}
}

// WithLogger replaces the global logger
func WithLogger(logger logging.Logger) Option {
	return func(app *App) {
		app.Logger = logger
	}
}

// New creates a new client instance with all dependencies. The session is
// not restored; call Session.Init before using authenticated endpoints.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	app := &App{
		Config: cfg,
		Clock:  clock.New(),
		Logger: logging.GetGlobalLogger(),
	}
	for _, opt := range opts {
		opt(app)
	}
	app.Logger = app.Logger.WithFields(logging.Field{Key: "component", Value: "app"})

	var err error
	if app.Location, err = cfg.Location(); err != nil {
		return nil, fmt.Errorf("failed to resolve timezone %q: %w", cfg.Timezone, err)
	}
	if app.WeekStart, err = cfg.FirstWeekday(); err != nil {
		return nil, err
	}

	// Initialize components in order of dependency
	if err := app.initializeClient(); err != nil {
		return nil, err
	}

	app.Mapper = mapper.New(mapper.Config{
		APIOrigin:   app.Client.Origin(),
		UploadsPath: cfg.UploadsPath,
		Placeholder: cfg.PlaceholderImage,
	}, app.Logger)

	if err := app.initializeEncryption(); err != nil {
		return nil, err
	}

	if cfg.TokenStore == config.TokenStoreRedis {
		if err := app.initializeRedis(); err != nil {
			return nil, err
		}
	}

	if err := app.initializeTokenStore(); err != nil {
		app.Cleanup()
		return nil, err
	}

	app.Session = session.New(app.Client, app.Tokens, app.Mapper,
		session.WithLogger(app.Logger),
		session.WithClock(app.Clock),
	)
	app.Events = events.NewAPI(app.Client, app.Mapper, app.Logger)
	app.Fixtures = fixtures.NewStatic(app.Clock, app.Mapper)

	return app, nil
}

// NewLister creates a list controller over the events API using the
// configured page size and search delay. The caller must Close it.
func (app *App) NewLister(opts ...listing.Option) *listing.Controller {
	base := []listing.Option{
		listing.WithClock(app.Clock),
		listing.WithLimit(app.Config.PageLimit),
		listing.WithSearchDelay(app.Config.SearchDebounce),
		listing.WithLogger(app.Logger),
	}
	return listing.New(app.Events, append(base, opts...)...)
}

// NewCalendar opens a month view on today in the configured timezone
func (app *App) NewCalendar() *calendar.View {
	return calendar.NewView(app.Clock, app.Location, app.WeekStart)
}

// Cleanup releases all resources
func (app *App) Cleanup() {
	if app.RedisClient != nil {
		if err := app.RedisClient.Close(); err != nil {
			app.Logger.Warn("Failed to close redis client", logging.Err(err))
		}
		app.RedisClient = nil
	}
}
