package app

import (
	"fmt"

	"events-client/internal/circuitbreaker"
	apihttp "events-client/internal/common/http"
	"events-client/internal/common/logging"
)

// userAgent identifies the client to the API
const userAgent = "eventsctl/1.0"

func (app *App) initializeClient() error {
	opts := []apihttp.ClientOption{
		apihttp.WithTimeout(app.Config.HTTPTimeout),
		apihttp.WithUserAgent(userAgent),
		apihttp.WithLogger(app.Logger),
	}

	if app.Config.RateLimitRPS > 0 {
		opts = append(opts, apihttp.WithRateLimit(app.Config.RateLimitRPS, app.Config.RateLimitBurst))
		app.Logger.Info("Rate Limiting: Enabled",
			logging.Field{Key: "rps", Value: app.Config.RateLimitRPS},
			logging.Field{Key: "burst", Value: app.Config.RateLimitBurst},
		)
	}

	if app.Config.CircuitBreakerEnabled {
		app.Breaker = circuitbreaker.New("events-api", circuitbreaker.DefaultConfig(), app.Logger)
		opts = append(opts, apihttp.WithBreaker(app.Breaker))
		app.Logger.Info("Circuit Breaker: Enabled")
	}

	client, err := apihttp.NewClient(app.Config.APIBaseURL, opts...)
	if err != nil {
		return fmt.Errorf("failed to initialize API client: %w", err)
	}

	app.Client = client
	app.Logger.Debug("API client ready", logging.String("base_url", client.BaseURL()))
	return nil
}
