package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"events-client/internal/common/logging"
	"events-client/internal/config"
)

// Command is the work one CLI invocation performs once the client is wired.
// ctx is cancelled on SIGINT or SIGTERM.
type Command func(ctx context.Context, app *App) error

// Run is the main entry point for the CLI. It loads .env and the
// configuration, sets up logging, builds the App and hands it to cmd.
func Run(cmd Command) error {
	// Load environment variables
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Failed to load configuration", err)
		return err
	}

	closer, err := logging.Init(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer closer.Close()
	defer logging.MustSync()

	if cfg.ConfigFile != "" {
		logging.Debug("Configuration file applied", logging.String("path", cfg.ConfigFile))
	}

	if err := cfg.Validate(); err != nil {
		logging.Error("Configuration validation failed", err)
		return err
	}

	app, err := New(cfg)
	if err != nil {
		logging.Error("Failed to initialize client", err)
		return err
	}
	defer app.Cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cmd(ctx, app)
}
