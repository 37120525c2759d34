/*
main.go - Application entry point

PURPOSE:
  Starts the hotel booking server. Loads configuration, opens the selected
  table backend, seeds first-run data, finishes interrupted bookings and
  serves the HTTP API until signaled.

STARTUP SEQUENCE:
  1. Load configuration (.env + HOTEL_* environment)
  2. Build the zap logger
  3. Open the backend (files, sqlite or memory)
  4. Bootstrap: seed rooms, initialize the admin secret
  5. Recover pending intents, then refresh room statuses
  6. Start the status scheduler (repeats step 5 periodically)
  7. Configure HTTP router and start the server

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (HOTEL_SHUTDOWN_GRACE)
  3. Stop the status scheduler
  4. Close the backend
  5. Exit

COMMAND-LINE FLAGS:
  -env     Path of the .env file (default: .env, skipped when missing)

EXAMPLES:
  # Flat files under ./data
  HOTEL_TOKEN_SECRET=change-me ./server

  # SQLite database
  HOTEL_STORE_BACKEND=sqlite HOTEL_SQLITE_PATH=./hotel.db ./server

  # Everything in memory, console logs
  HOTEL_STORE_BACKEND=memory HOTEL_LOG_FORMAT=console ./server

SEE ALSO:
  - config/config.go: Variables and defaults
  - api/server.go: Router configuration
  - hotel/engine.go: Booking engine
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/warp/hotel-engine/api"
	"github.com/warp/hotel-engine/config"
	"github.com/warp/hotel-engine/generic"
	"github.com/warp/hotel-engine/generic/store"
	"github.com/warp/hotel-engine/hotel"
	"github.com/warp/hotel-engine/logger"
	"github.com/warp/hotel-engine/store/sqlite"
	"go.uber.org/zap"
)

func main() {
	envFile := flag.String("env", ".env", "Path of the .env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, "hotel-engine")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	backend, closeBackend, err := openBackend(cfg)
	if err != nil {
		return fmt.Errorf("open %s backend: %w", cfg.StoreBackend, err)
	}
	defer closeBackend()
	log.Info("backend opened", zap.String("backend", cfg.StoreBackend))

	ctx := context.Background()
	accounts := hotel.NewAccounts(backend, cfg.AdminDefaultPassword, log)
	engine := hotel.NewEngine(backend, accounts, log)

	if err := hotel.Bootstrap(ctx, engine, log); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	if n, err := engine.Recover(ctx); err != nil {
		return fmt.Errorf("recover: %w", err)
	} else if n > 0 {
		log.Warn("recovered interrupted bookings", zap.Int("intents", n))
	}
	if _, err := engine.RefreshRoomStatuses(ctx); err != nil {
		return fmt.Errorf("refresh room statuses: %w", err)
	}

	scheduler := api.NewStatusScheduler(engine, cfg.StatusRefreshInterval, log)
	scheduler.Start()
	defer scheduler.Stop()

	secret := cfg.TokenSecret
	if secret == "" {
		secret = uuid.NewString()
		log.Warn("HOTEL_TOKEN_SECRET not set; sessions end on restart")
	}

	handler := api.NewHandler(engine, api.NewTokens(secret, cfg.TokenTTL), log)
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.NewRouter(handler, cfg.CORSOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return err
	case sig := <-quit:
		log.Info("shutting down server", zap.Stringer("signal", sig))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}

func openBackend(cfg *config.Config) (generic.Backend, func() error, error) {
	noop := func() error { return nil }
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		s, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.BackendMemory:
		return store.NewMemory(), noop, nil
	default:
		d, err := store.NewDir(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return d, noop, nil
	}
}
