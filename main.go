package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"userservice-backend/internal/api"
	"userservice-backend/internal/auth"
	"userservice-backend/internal/config"
	"userservice-backend/internal/database"
	"userservice-backend/internal/logging"
	"userservice-backend/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	gate := auth.NewGate(
		auth.NewTokenVerifier(cfg.JWTSecret, logger),
		auth.NewServiceKeyVerifier(cfg.ServiceSecret),
	)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = api.ErrorHandler(logger)

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(logging.RequestLogger(logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept,
			echo.HeaderAuthorization, auth.ServiceKeyHeader,
		},
	}))
	e.Use(m.Middleware())

	api.RegisterRoutes(e, api.NewHandler(store, m, logger), gate)

	go func() {
		logger.Info("starting user service", zap.String("port", cfg.Port), zap.String("driver", cfg.StoreDriver))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if err := store.Close(shutdownCtx); err != nil {
		logger.Error("store close", zap.Error(err))
	}
}

// openStore connects the backend selected by STORE_DRIVER
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (database.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
		return database.OpenMongo(connectCtx, database.MongoConfig{
			URI:            cfg.MongoURI,
			Database:       cfg.DBName,
			ConnectTimeout: cfg.ConnectTimeout,
		}, logger)
	case config.DriverSQLite:
		logger.Info("opening sqlite store", zap.String("path", cfg.SQLitePath))
		return database.OpenSQLite(database.SQLiteConfig{Path: cfg.SQLitePath})
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
