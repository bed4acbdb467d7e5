package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/smartcity/incidentmap/internal/boundary"
	"github.com/smartcity/incidentmap/internal/cluster"
	"github.com/smartcity/incidentmap/internal/config"
	"github.com/smartcity/incidentmap/internal/delivery/http"
	"github.com/smartcity/incidentmap/internal/domain"
	"github.com/smartcity/incidentmap/internal/logging"
	"github.com/smartcity/incidentmap/internal/repository"
	"github.com/smartcity/incidentmap/internal/service"
	"github.com/smartcity/incidentmap/internal/viewport"
)

func main() {
	// Configuration (.env is read by config.Load)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zl, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Logger setup failed: %v", err)
	}
	defer zl.Sync() //nolint:errcheck

	// Repository: configured driver, mock data when the database is unreachable
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, closeRepo := repository.Open(ctx, cfg, zl)
	defer closeRepo()

	// Clustering and viewport fitting
	clusterer := cluster.New(cfg.Map.ClusterOptions())
	vp, err := viewport.New(cfg.Map.Padding(), cfg.Map.MinZoom, cfg.Map.MaxZoom)
	if err != nil {
		zl.Fatal("invalid viewport settings", zap.Error(err))
	}

	notices := http.NewNotices()
	sessions := service.NewSessionStore(cfg.SessionTTL)
	mapSvc := service.NewMapService(repo, func() (*boundary.Layer, error) {
		return boundary.Load(cfg.Boundary.File, cfg.Boundary.NameProperty)
	}, service.SessionDeps{
		Clusterer:   clusterer,
		Viewport:    vp,
		Notifier:    notices,
		Logger:      zl,
		DefaultZoom: cfg.Map.Zoom,
	}, sessions)
	mapSvc.Bootstrap(ctx)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sessions.Run(sweepCtx, time.Minute)

	// Fiber App
	app := fiber.New(fiber.Config{
		AppName:               "Incident Map API v1.0",
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          http.ErrorHandler,
		DisableStartupMessage: cfg.IsProduction(),
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Routes
	handler := http.NewHandler(mapSvc, notices, http.MapDefaults{
		Center:  domain.Position{Lon: cfg.Map.CenterLon, Lat: cfg.Map.CenterLat},
		Zoom:    cfg.Map.Zoom,
		MinZoom: cfg.Map.MinZoom,
		MaxZoom: cfg.Map.MaxZoom,
		Padding: cfg.Map.Padding(),
	}, zl)
	http.SetupRoutes(app, handler, cfg.PublicDir)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		zl.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := app.Listen(addr); err != nil {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down server")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		zl.Warn("server forced to shutdown", zap.Error(err))
	}
	zl.Info("server exited gracefully")
}
