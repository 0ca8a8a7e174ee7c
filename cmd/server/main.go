package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Matipousi/UcuDB1/internal/booking"
	"github.com/Matipousi/UcuDB1/internal/config"
	"github.com/Matipousi/UcuDB1/internal/database"
	"github.com/Matipousi/UcuDB1/internal/handler"
	"github.com/Matipousi/UcuDB1/internal/lock"
	"github.com/Matipousi/UcuDB1/internal/logging"
	"github.com/Matipousi/UcuDB1/internal/middleware"
	"github.com/Matipousi/UcuDB1/internal/queue"
	"github.com/Matipousi/UcuDB1/internal/repository"
	"github.com/Matipousi/UcuDB1/internal/router"
	"github.com/Matipousi/UcuDB1/internal/tracing"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, "study-rooms", cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("flush traces", "error", err)
		}
	}()

	dialect := database.Dialect(cfg.DBDriver)
	if dialect == database.DialectSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := database.Connect(dialect, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if cfg.Migrate {
		if err := database.Migrate(ctx, db, dialect); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	slots, err := database.LoadSlotCatalog(cfg.SlotCatalogPath)
	if err != nil {
		return err
	}
	if err := database.SyncTimeSlots(ctx, db, dialect, slots); err != nil {
		return fmt.Errorf("sync time slots: %w", err)
	}
	logger.Info("database ready", "driver", cfg.DBDriver, "slots", len(slots))

	deps := booking.Deps{DB: db, Logger: logger}

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
		deps.Locker = lock.NewSlotLocker(rdb, cfg.LockTTL, cfg.LockWait)
		logger.Info("redis connected; slot lock, rate limit and cache enabled")
	} else {
		logger.Warn("redis unavailable; slot lock, rate limit and cache disabled")
	}
	if cfg.RabbitMQURL != "" {
		deps.Publisher = queue.NewPublisher(cfg.RabbitMQURL, logger)
	}

	svc := booking.NewService(deps, booking.Config{
		Limits:       booking.Limits{DailyCap: cfg.DailyCap, WeeklyCap: cfg.WeeklyCap},
		SanctionDays: cfg.SanctionDays,
	})

	participants := repository.NewParticipantRepo(db)
	reservations := repository.NewReservationRepo(db)
	sanctions := repository.NewSanctionRepo(db)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestContext(logger))
	e.Use(middleware.AccessLog(logger))

	router.Register(e, router.Handlers{
		Reservations: handler.NewReservationHandler(svc, reservations),
		Admin:        handler.NewAdminHandler(participants, reservations, sanctions),
		Catalog:      handler.NewCatalogHandler(repository.NewTimeSlotRepo(db), repository.NewRoomRepo(db)),
		Ready:        handler.Ready(db),
	}, router.Middleware{
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger),
	}, cfg.JWTSecret)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
