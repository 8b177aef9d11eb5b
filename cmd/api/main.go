package main

import (
	"context"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"labrooms/docs"
	"labrooms/internal/config"
	"labrooms/internal/database"
	"labrooms/internal/database/migration"
	handlers "labrooms/internal/http/handler"
	"labrooms/internal/http/middleware"
	otelinit "labrooms/internal/otel"
	"labrooms/internal/relay"
	"labrooms/internal/repository/postgres"
	"labrooms/internal/service"
	"labrooms/internal/storage"
)

// @title LabRooms API
// @version 1.0
// @description Real-time collaborative rooms with chat relay and file sharing.
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := time.UTC

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otelinit.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Initialize repositories and services
	roomRepo := postgres.NewRoomPostgres(db)
	fileRepo := postgres.NewFilePostgres(db)
	roomSvc := service.NewRoomService(roomRepo)

	// Redis fan-out is optional: without REDIS_ADDR the relay stays
	// single-instance.
	var bridge *relay.Bridge
	if cfg.Redis.Addr != "" {
		bridge, err = relay.NewBridge(cfg.Redis)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer bridge.Close()
	}

	hub := relay.NewHub(roomSvc, bridge)
	if bridge != nil {
		go bridge.Run(ctx)
	}

	fileSvc := service.NewFileService(objStore, fileRepo, roomRepo, hub, cfg.Room.MaxUploadBytes)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	// Requester middleware extracts X-Member-ID for membership-gated endpoints
	app.Use(middleware.Requester())
	app.Use(otelfiber.Middleware())

	promMW, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register prometheus metrics: %v", err)
	}
	app.Use(promMW.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, roomSvc, fileSvc, hub)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go roomSvc.RunSweeper(ctx, time.Duration(cfg.Room.SweepIntervalSec)*time.Second)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
